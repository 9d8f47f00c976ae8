package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
)

// Asegura que BusinessRepo implementa repository.BusinessRepository.
var _ repository.BusinessRepository = (*BusinessRepo)(nil)

// BusinessRepo lectura de empresas y credenciales APISUNAT sobre PostgreSQL.
type BusinessRepo struct {
	pool *pgxpool.Pool
}

// NewBusinessRepository construye el adaptador de persistencia para empresas.
func NewBusinessRepository(pool *pgxpool.Pool) *BusinessRepo {
	return &BusinessRepo{pool: pool}
}

// GetByID obtiene una empresa por ID.
func (r *BusinessRepo) GetByID(ctx context.Context, id string) (*entity.Business, error) {
	query := `
		SELECT id, name, description, ruc, sol_key, created_at, updated_at
		FROM businesses WHERE id = $1`
	var b entity.Business
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.Description, &b.RUC, &b.SolKey, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get business: %w", err)
	}
	return &b, nil
}

// GetSunatConfig obtiene las credenciales APISUNAT de la empresa.
func (r *BusinessRepo) GetSunatConfig(ctx context.Context, businessID string) (*entity.BusinessSunatConfig, error) {
	query := `
		SELECT id, business_id, persona_id, persona_token, production_enabled, created_at, updated_at
		FROM business_sunat_configs WHERE business_id = $1`
	var c entity.BusinessSunatConfig
	err := r.pool.QueryRow(ctx, query, businessID).Scan(
		&c.ID, &c.BusinessID, &c.PersonaID, &c.PersonaToken, &c.ProductionEnabled, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sunat config: %w", err)
	}
	return &c, nil
}
