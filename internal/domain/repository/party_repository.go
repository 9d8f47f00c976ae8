package repository

import (
	"context"

	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

// PartyRepository define el puerto de persistencia para Party.
type PartyRepository interface {
	Create(ctx context.Context, party *entity.Party) error
	GetByID(ctx context.Context, id string) (*entity.Party, error)
	GetByBusinessAndDoc(ctx context.Context, businessID, docType, docNumber string) (*entity.Party, error)
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.Party, error)
	Update(ctx context.Context, party *entity.Party) error
	// Delete devuelve domain.ErrProtectedReference si algún comprobante la referencia.
	Delete(ctx context.Context, id string) error
	// IsReferencedByIssued indica si algún comprobante ISSUED apunta a la party.
	IsReferencedByIssued(ctx context.Context, id string) (bool, error)
}
