package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
)

var _ repository.DocumentTypeRepository = (*DocumentTypeRepo)(nil)

// DocumentTypeRepo catálogo de tipos de comprobante.
type DocumentTypeRepo struct {
	q Querier
}

// NewDocumentTypeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentTypeRepository(q Querier) *DocumentTypeRepo {
	return &DocumentTypeRepo{q: q}
}

func (r *DocumentTypeRepo) Create(ctx context.Context, dt *entity.DocumentType) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO document_types (id, code, name, is_active) VALUES ($1, $2, $3, $4)`,
		dt.ID, dt.Code, dt.Name, dt.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert document type: %w", err)
	}
	return nil
}

func (r *DocumentTypeRepo) GetByID(ctx context.Context, id string) (*entity.DocumentType, error) {
	return r.getOne(ctx, `SELECT id, code, name, is_active FROM document_types WHERE id = $1`, id)
}

func (r *DocumentTypeRepo) GetByCode(ctx context.Context, code string) (*entity.DocumentType, error) {
	return r.getOne(ctx, `SELECT id, code, name, is_active FROM document_types WHERE code = $1`, code)
}

func (r *DocumentTypeRepo) getOne(ctx context.Context, query string, arg string) (*entity.DocumentType, error) {
	var dt entity.DocumentType
	err := r.q.QueryRow(ctx, query, arg).Scan(&dt.ID, &dt.Code, &dt.Name, &dt.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document type: %w", err)
	}
	return &dt, nil
}

// List devuelve el catálogo ordenado por código.
func (r *DocumentTypeRepo) List(ctx context.Context) ([]*entity.DocumentType, error) {
	rows, err := r.q.Query(ctx, `SELECT id, code, name, is_active FROM document_types ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	defer rows.Close()
	var list []*entity.DocumentType
	for rows.Next() {
		var dt entity.DocumentType
		if err := rows.Scan(&dt.ID, &dt.Code, &dt.Name, &dt.IsActive); err != nil {
			return nil, fmt.Errorf("scan document type: %w", err)
		}
		list = append(list, &dt)
	}
	return list, rows.Err()
}

func (r *DocumentTypeRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM document_types WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProtectedReference
		}
		return fmt.Errorf("delete document type: %w", err)
	}
	return nil
}
