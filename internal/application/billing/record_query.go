package billing

import (
	"context"
	"fmt"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
)

// RecordQuery sirve la vista plana heredada (SunatRecord) sobre envíos + comprobantes.
// Es de solo lectura: toda escritura pasa por ReconciliationEngine.
type RecordQuery struct {
	docRepo repository.SunatDocumentRepository
	subRepo repository.SunatSubmissionRepository
	engine  *ReconciliationEngine
}

// NewRecordQuery construye la proyección.
func NewRecordQuery(docRepo repository.SunatDocumentRepository, subRepo repository.SunatSubmissionRepository, engine *ReconciliationEngine) *RecordQuery {
	return &RecordQuery{docRepo: docRepo, subRepo: subRepo, engine: engine}
}

// GetByExternalID devuelve el registro con ese id de APISUNAT.
func (q *RecordQuery) GetByExternalID(ctx context.Context, businessID, externalID string) (*dto.RecordResponse, error) {
	sub, err := q.subRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("obtener envío: %w", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	if sub.BusinessID != businessID {
		return nil, domain.ErrNotFound
	}
	var doc *entity.SunatDocument
	if sub.IsAttached() {
		if doc, err = q.docRepo.GetByID(ctx, sub.DocumentID); err != nil {
			return nil, fmt.Errorf("obtener comprobante: %w", err)
		}
	}
	return toRecordResponse(projectRecord(sub, doc)), nil
}

// ListByBusiness lista los registros (envíos con id externo) de la empresa.
func (q *RecordQuery) ListByBusiness(ctx context.Context, businessID string, page dto.PageRequest) ([]*dto.RecordResponse, error) {
	page.DefaultPage()
	list, err := q.subRepo.ListRecordsByBusiness(ctx, businessID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar registros: %w", err)
	}
	out := make([]*dto.RecordResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toRecordResponse(r))
	}
	return out, nil
}

// SyncFromSunat concilia el payload y devuelve la vista plana resultante.
func (q *RecordQuery) SyncFromSunat(ctx context.Context, businessID string, in dto.ReconcileRequest) (*dto.RecordResponse, error) {
	sub, doc, err := q.engine.reconcile(ctx, businessID, in)
	if err != nil {
		return nil, err
	}
	return toRecordResponse(projectRecord(sub, doc)), nil
}
