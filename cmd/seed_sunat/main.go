// seed_sunat carga el catálogo 01 de SUNAT (tipos de comprobante) en document_types.
//
// Uso: go run ./cmd/seed_sunat [ruta/catalogo01.txt]
// Formato: una línea por tipo, "CÓDIGO|DESCRIPCIÓN". Líneas vacías o con # se ignoran.
// Los archivos publicados por SUNAT vienen en ISO-8859-1; si el archivo no es UTF-8 válido se convierte.
// Los tipos existentes (mismo código) no se modifican.
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/infrastructure/postgres"
	"github.com/sisfac/sisfac-api/pkg/config"
	"github.com/sisfac/sisfac-api/pkg/logger"
)

type catalogEntry struct {
	Code string
	Name string
}

func main() {
	path := "catalogo01.txt"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}
	entries, err := parseCatalog(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parsear catálogo: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	repo := postgres.NewDocumentTypeRepository(pool)
	var created int
	for _, e := range entries {
		existing, err := repo.GetByCode(ctx, e.Code)
		if err != nil {
			log.Fatal().Err(err).Str("code", e.Code).Msg("buscar tipo")
		}
		if existing != nil {
			continue
		}
		dt := &entity.DocumentType{ID: uuid.New().String(), Code: e.Code, Name: e.Name, IsActive: true}
		if err := repo.Create(ctx, dt); err != nil {
			log.Fatal().Err(err).Str("code", e.Code).Msg("crear tipo")
		}
		created++
	}
	log.Info().Int("leidos", len(entries)).Int("creados", created).Msg("catálogo 01 cargado")
}

// parseCatalog lee "CÓDIGO|DESCRIPCIÓN" por línea. Convierte desde ISO-8859-1 si hace falta.
func parseCatalog(raw []byte) ([]catalogEntry, error) {
	var r io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	var out []catalogEntry
	seen := map[string]bool{}
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		code, name, ok := strings.Cut(line, "|")
		code, name = strings.TrimSpace(code), strings.TrimSpace(name)
		if !ok || len(code) != 2 || name == "" {
			return nil, fmt.Errorf("línea %d: se esperaba \"CÓDIGO|DESCRIPCIÓN\"", lineNo)
		}
		if seen[code] {
			return nil, fmt.Errorf("línea %d: código %s repetido", lineNo, code)
		}
		seen[code] = true
		out = append(out, catalogEntry{Code: code, Name: name})
	}
	return out, sc.Err()
}
