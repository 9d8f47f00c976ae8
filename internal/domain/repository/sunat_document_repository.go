package repository

import (
	"context"
	"time"

	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

// SunatDocumentRepository define el puerto de persistencia para comprobantes e ítems.
type SunatDocumentRepository interface {
	// Create devuelve ValidationError si choca con la clave única o el pedido ya tiene comprobante.
	Create(ctx context.Context, doc *entity.SunatDocument) error
	CreateItem(ctx context.Context, item *entity.SunatDocumentItem) error
	GetByID(ctx context.Context, id string) (*entity.SunatDocument, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.SunatDocument, error)
	GetByKey(ctx context.Context, businessID, direction, documentTypeID, series string, number int64) (*entity.SunatDocument, error)
	// ListBySeriesNumber ubica comprobantes cuando SUNAT no informa el tipo; el caller decide si hay ambigüedad.
	ListBySeriesNumber(ctx context.Context, businessID, direction, series string, number int64, limit int) ([]*entity.SunatDocument, error)
	GetByOrderID(ctx context.Context, orderID string) (*entity.SunatDocument, error)
	GetItems(ctx context.Context, documentID string) ([]*entity.SunatDocumentItem, error)
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.SunatDocument, error)
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	// NextNumber siguiente correlativo libre para (empresa, dirección, tipo, serie).
	NextNumber(ctx context.Context, businessID, direction, documentTypeID, series string) (int64, error)
}
