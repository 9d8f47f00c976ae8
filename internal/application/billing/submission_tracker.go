package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
	"github.com/sisfac/sisfac-api/pkg/logger"
	"github.com/sisfac/sisfac-api/pkg/sunat"
)

// SubmissionTracker registra los intentos de envío de un comprobante a SUNAT.
// No hace I/O de red: el transporte (sendBill) es responsabilidad del caller, que luego
// informa el resultado vía ReconciliationEngine o RecordError.
type SubmissionTracker struct {
	txRunner     SunatTxRunner
	businessRepo repository.BusinessRepository
	docRepo      repository.SunatDocumentRepository
	subRepo      repository.SunatSubmissionRepository
	log          *logger.Logger
	now          func() time.Time
}

// NewSubmissionTracker construye el caso de uso.
func NewSubmissionTracker(
	txRunner SunatTxRunner,
	businessRepo repository.BusinessRepository,
	docRepo repository.SunatDocumentRepository,
	subRepo repository.SunatSubmissionRepository,
	log *logger.Logger,
) *SubmissionTracker {
	return &SubmissionTracker{
		txRunner:     txRunner,
		businessRepo: businessRepo,
		docRepo:      docRepo,
		subRepo:      subRepo,
		log:          log,
		now:          time.Now,
	}
}

// outboundRequest foto del payload que se enviará a APISUNAT (sin credenciales).
type outboundRequest struct {
	FileName   string                `json:"fileName"`
	Production bool                  `json:"production"`
	Document   *dto.DocumentResponse `json:"document"`
}

// Submit crea un envío PENDING. Reintentar siempre está permitido: cada llamada crea una fila nueva.
func (uc *SubmissionTracker) Submit(ctx context.Context, businessID, documentID string, production bool) (*dto.SubmissionResponse, error) {
	doc, err := uc.loadDocument(ctx, businessID, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.CanSubmit() {
		return nil, fmt.Errorf("%w: el comprobante está anulado", domain.ErrConflict)
	}

	business, err := uc.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("submit: obtener empresa: %w", err)
	}
	if business == nil {
		return nil, domain.ErrNotFound
	}
	if strings.TrimSpace(business.RUC) == "" {
		return nil, domain.NewValidationError("ruc", "la empresa no tiene RUC configurado")
	}
	if err := sunat.ValidateRUC(business.RUC); err != nil {
		return nil, domain.NewValidationError("ruc", err.Error())
	}
	if production {
		cfg, err := uc.businessRepo.GetSunatConfig(ctx, businessID)
		if err != nil {
			return nil, fmt.Errorf("submit: obtener configuración SUNAT: %w", err)
		}
		if cfg == nil || !cfg.ProductionEnabled {
			return nil, domain.NewValidationError("production", "la empresa no tiene habilitado el envío a producción")
		}
	}

	items, err := uc.docRepo.GetItems(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("submit: obtener ítems: %w", err)
	}
	fileName := sunat.BuildFileName(business.RUC, doc.DocumentTypeCode, doc.Series, doc.Number)
	raw, err := json.Marshal(outboundRequest{
		FileName:   fileName,
		Production: production,
		Document:   toDocumentResponse(doc, items),
	})
	if err != nil {
		return nil, fmt.Errorf("submit: serializar payload: %w", err)
	}

	now := uc.now()
	sub := &entity.SunatSubmission{
		ID:         uuid.New().String(),
		BusinessID: doc.BusinessID,
		DocumentID: doc.ID,
		Production: production,
		IsPurchase: doc.Direction == entity.DirectionPurchase,
		FileName:   fileName,
		Status:     entity.SubmissionStatusPending,
		RawRequest: raw,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("submit: guardar envío: %w", err)
	}

	uc.log.Info().
		Str("submission_id", sub.ID).
		Str("document_id", doc.ID).
		Str("file_name", fileName).
		Bool("production", production).
		Msg("envío SUNAT registrado")

	return toSubmissionResponse(sub), nil
}

// RecordError marca un envío PENDING como ERROR (fallo de transporte informado por el caller).
func (uc *SubmissionTracker) RecordError(ctx context.Context, businessID, submissionID, message string) (*dto.SubmissionResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.NewValidationError("message", "requerido")
	}
	var result *entity.SunatSubmission
	err := uc.txRunner.RunSunat(ctx, func(_ repository.SunatDocumentRepository, subRepo repository.SunatSubmissionRepository) error {
		sub, err := subRepo.GetByIDForUpdate(ctx, submissionID)
		if err != nil {
			return fmt.Errorf("obtener envío: %w", err)
		}
		if sub == nil {
			return domain.ErrNotFound
		}
		if sub.BusinessID != businessID {
			return domain.ErrForbidden
		}
		if sub.IsTerminal() {
			return fmt.Errorf("%w: el envío ya está en %s", domain.ErrInvalidTransition, sub.Status)
		}
		sub.Status = entity.SubmissionStatusError
		sub.ErrorMessage = message
		sub.UpdatedAt = uc.now()
		if err := subRepo.Update(ctx, sub); err != nil {
			return err
		}
		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Warn().
		Str("submission_id", result.ID).
		Str("error", message).
		Msg("envío SUNAT marcado como ERROR")

	return toSubmissionResponse(result), nil
}

// Get devuelve un envío de la empresa.
func (uc *SubmissionTracker) Get(ctx context.Context, businessID, submissionID string) (*dto.SubmissionResponse, error) {
	sub, err := uc.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("obtener envío: %w", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	if sub.BusinessID != businessID {
		return nil, domain.ErrForbidden
	}
	return toSubmissionResponse(sub), nil
}

// ListByDocument lista los envíos de un comprobante, del más antiguo al más reciente.
func (uc *SubmissionTracker) ListByDocument(ctx context.Context, businessID, documentID string) ([]*dto.SubmissionResponse, error) {
	if _, err := uc.loadDocument(ctx, businessID, documentID); err != nil {
		return nil, err
	}
	list, err := uc.subRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("listar envíos: %w", err)
	}
	out := make([]*dto.SubmissionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSubmissionResponse(s))
	}
	return out, nil
}

func (uc *SubmissionTracker) loadDocument(ctx context.Context, businessID, documentID string) (*entity.SunatDocument, error) {
	doc, err := uc.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("obtener comprobante: %w", err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.BusinessID != businessID {
		return nil, domain.ErrForbidden
	}
	return doc, nil
}
