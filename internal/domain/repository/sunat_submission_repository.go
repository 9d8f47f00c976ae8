package repository

import (
	"context"

	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

// SunatSubmissionRepository define el puerto de persistencia para envíos a SUNAT.
// El id externo tiene índice único: es la única clave de deduplicación.
type SunatSubmissionRepository interface {
	Create(ctx context.Context, s *entity.SunatSubmission) error
	GetByID(ctx context.Context, id string) (*entity.SunatSubmission, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.SunatSubmission, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.SunatSubmission, error)
	GetByExternalIDForUpdate(ctx context.Context, externalID string) (*entity.SunatSubmission, error)
	// InsertIfAbsent inserta salvo que el id externo ya exista (ON CONFLICT DO NOTHING).
	// inserted=false indica que otra transacción ganó la carrera.
	InsertIfAbsent(ctx context.Context, s *entity.SunatSubmission) (inserted bool, err error)
	// Update reescribe la fila completa (el caller ya aplicó el parche bajo bloqueo).
	Update(ctx context.Context, s *entity.SunatSubmission) error
	ListByDocument(ctx context.Context, documentID string) ([]*entity.SunatSubmission, error)
	// CountAccepted cuenta envíos ACCEPTED del comprobante, excluyendo excludeID.
	CountAccepted(ctx context.Context, documentID, excludeID string) (int, error)
	// ListRecordsByBusiness proyección plana (SunatRecord) de envíos con id externo.
	ListRecordsByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.SunatRecord, error)
}
