package repository

import (
	"context"

	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

// DocumentTypeRepository catálogo de tipos de comprobante.
type DocumentTypeRepository interface {
	Create(ctx context.Context, dt *entity.DocumentType) error
	GetByID(ctx context.Context, id string) (*entity.DocumentType, error)
	GetByCode(ctx context.Context, code string) (*entity.DocumentType, error)
	List(ctx context.Context) ([]*entity.DocumentType, error)
	// Delete devuelve domain.ErrProtectedReference si algún comprobante lo referencia.
	Delete(ctx context.Context, id string) error
}
