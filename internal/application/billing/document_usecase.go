package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
	"github.com/sisfac/sisfac-api/pkg/logger"
)

// DocumentUseCase consultas y anulación de comprobantes.
type DocumentUseCase struct {
	txRunner SunatTxRunner
	docRepo  repository.SunatDocumentRepository
	log      *logger.Logger
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(txRunner SunatTxRunner, docRepo repository.SunatDocumentRepository, log *logger.Logger) *DocumentUseCase {
	return &DocumentUseCase{txRunner: txRunner, docRepo: docRepo, log: log}
}

// Get devuelve el comprobante con sus ítems.
func (uc *DocumentUseCase) Get(ctx context.Context, businessID, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener comprobante: %w", err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.BusinessID != businessID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.docRepo.GetItems(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener ítems: %w", err)
	}
	return toDocumentResponse(doc, items), nil
}

// List lista cabeceras de la empresa (sin ítems).
func (uc *DocumentUseCase) List(ctx context.Context, businessID string, page dto.PageRequest) ([]*dto.DocumentResponse, error) {
	page.DefaultPage()
	list, err := uc.docRepo.ListByBusiness(ctx, businessID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar comprobantes: %w", err)
	}
	out := make([]*dto.DocumentResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDocumentResponse(d, nil))
	}
	return out, nil
}

// Void anula el comprobante (DRAFT o ISSUED -> VOID). VOID es terminal.
func (uc *DocumentUseCase) Void(ctx context.Context, businessID, id string) (*dto.DocumentResponse, error) {
	var doc *entity.SunatDocument
	err := uc.txRunner.RunSunat(ctx, func(docRepo repository.SunatDocumentRepository, _ repository.SunatSubmissionRepository) error {
		var err error
		doc, err = docRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("obtener comprobante: %w", err)
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if doc.BusinessID != businessID {
			return domain.ErrForbidden
		}
		if doc.Status == entity.DocumentStatusVoid {
			return fmt.Errorf("%w: el comprobante ya está anulado", domain.ErrConflict)
		}
		doc.Status = entity.DocumentStatusVoid
		doc.UpdatedAt = time.Now()
		return docRepo.UpdateStatus(ctx, doc.ID, doc.Status, doc.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Msg("comprobante anulado")
	return toDocumentResponse(doc, nil), nil
}
