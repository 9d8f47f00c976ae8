package sunat

import (
	"fmt"
	"strings"
)

// BuildFileName arma el nombre de archivo SUNAT: RUC-TIPO-SERIE-NUMERO.
func BuildFileName(ruc, docTypeCode, series string, number int64) string {
	return fmt.Sprintf("%s-%s-%s-%d", strings.TrimSpace(ruc), docTypeCode, strings.TrimSpace(series), number)
}

// ParsedFileName partes recuperadas de un nombre de archivo.
type ParsedFileName struct {
	RUC     string // vacío si el nombre no trae RUC
	DocType string // vacío si el nombre no trae tipo
	Series  string
	Number  string
}

// ParseFileName recupera serie y número de un nombre de archivo como último recurso.
// Quita la extensión .xml/.zip y separa por el primer "-" ("B001-00000045.xml").
// Si el nombre sigue el formato completo RUC-TIPO-SERIE-NUMERO también se reconoce.
func ParseFileName(name string) (ParsedFileName, bool) {
	base := strings.TrimSpace(name)
	for _, ext := range []string{".xml", ".zip"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			base = base[:len(base)-len(ext)]
		}
	}
	if parts := strings.Split(base, "-"); len(parts) == 4 && isDigits(parts[0]) && len(parts[0]) == 11 && isDigits(parts[1]) && len(parts[1]) == 2 {
		if parts[2] == "" || parts[3] == "" {
			return ParsedFileName{}, false
		}
		return ParsedFileName{RUC: parts[0], DocType: parts[1], Series: parts[2], Number: parts[3]}, true
	}
	series, number, found := strings.Cut(base, "-")
	if !found || series == "" || number == "" {
		return ParsedFileName{}, false
	}
	return ParsedFileName{Series: series, Number: number}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
