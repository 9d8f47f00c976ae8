package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
	"github.com/sisfac/sisfac-api/pkg/logger"
)

// ReconciliationEngine concilia respuestas de APISUNAT (getById o webhook) con los envíos locales.
// El id externo es la única clave de deduplicación: reconciliar dos veces el mismo payload
// deja exactamente el mismo estado.
type ReconciliationEngine struct {
	txRunner    SunatTxRunner
	docTypeRepo repository.DocumentTypeRepository
	extractor   ProcessedDataExtractor
	log         *logger.Logger
	now         func() time.Time
}

// NewReconciliationEngine construye el motor. extractor puede ser nil si no se recibe XML procesado.
func NewReconciliationEngine(
	txRunner SunatTxRunner,
	docTypeRepo repository.DocumentTypeRepository,
	extractor ProcessedDataExtractor,
	log *logger.Logger,
) *ReconciliationEngine {
	return &ReconciliationEngine{
		txRunner:    txRunner,
		docTypeRepo: docTypeRepo,
		extractor:   extractor,
		log:         log,
		now:         time.Now,
	}
}

// Reconcile aplica el payload al envío con ese id externo (lo crea si no existe).
func (uc *ReconciliationEngine) Reconcile(ctx context.Context, businessID string, in dto.ReconcileRequest) (*dto.SubmissionResponse, error) {
	sub, _, err := uc.reconcile(ctx, businessID, in)
	if err != nil {
		return nil, err
	}
	return toSubmissionResponse(sub), nil
}

// ReconcileXML igual que Reconcile, pero los datos procesados se extraen del XML de SUNAT.
func (uc *ReconciliationEngine) ReconcileXML(ctx context.Context, businessID string, payload dto.SunatPayload, xml []byte) (*dto.SubmissionResponse, error) {
	return uc.Reconcile(ctx, businessID, dto.ReconcileRequest{Payload: payload, ProcessedXML: string(xml)})
}

func (uc *ReconciliationEngine) reconcile(ctx context.Context, businessID string, in dto.ReconcileRequest) (*entity.SunatSubmission, *entity.SunatDocument, error) {
	externalID := strings.TrimSpace(in.Payload.ID)
	if externalID == "" {
		return nil, nil, domain.ErrMissingExternalID
	}
	in.Payload.ID = externalID

	processed, err := uc.processedData(in)
	if err != nil {
		return nil, nil, err
	}
	patch := NewSubmissionPatch(in.Payload, processed)
	if err := patch.Validate(); err != nil {
		return nil, nil, err
	}
	if raw, err := json.Marshal(in.Payload); err == nil {
		patch.RawResponse = raw
	}

	var (
		result *entity.SunatSubmission
		doc    *entity.SunatDocument
		prev   string
	)
	err = uc.txRunner.RunSunat(ctx, func(docRepo repository.SunatDocumentRepository, subRepo repository.SunatSubmissionRepository) error {
		sub, err := subRepo.GetByExternalIDForUpdate(ctx, externalID)
		if err != nil {
			return fmt.Errorf("buscar envío por id externo: %w", err)
		}
		if sub == nil && in.SubmissionID != "" {
			if sub, err = claimHandle(ctx, subRepo, in.SubmissionID, externalID); err != nil {
				return err
			}
		}
		if sub == nil {
			created, createdDoc, inserted, err := uc.insertNew(ctx, docRepo, subRepo, businessID, externalID, patch)
			if err != nil {
				return err
			}
			if inserted {
				result, doc, prev = created, createdDoc, entity.SubmissionStatusPending
				return nil
			}
			// Otra transacción insertó el mismo id externo: se parchea esa fila.
			if sub, err = subRepo.GetByExternalIDForUpdate(ctx, externalID); err != nil {
				return fmt.Errorf("releer envío tras conflicto: %w", err)
			}
			if sub == nil {
				return fmt.Errorf("envío %s no encontrado tras conflicto de inserción", externalID)
			}
		}
		prev = sub.Status
		doc, err = uc.patchExisting(ctx, docRepo, subRepo, businessID, externalID, sub, patch)
		result = sub
		return err
	})
	if err != nil {
		uc.logFailure(externalID, err)
		return nil, nil, err
	}

	if prev != result.Status {
		uc.log.Info().
			Str("external_id", externalID).
			Str("submission_id", result.ID).
			Str("from", prev).
			Str("to", result.Status).
			Msg("envío SUNAT conciliado")
	} else {
		uc.log.Debug().
			Str("external_id", externalID).
			Str("status", result.Status).
			Msg("envío SUNAT conciliado sin cambio de estado")
	}
	return result, doc, nil
}

// processedData combina processed_data explícito con lo extraído del XML; lo explícito gana.
func (uc *ReconciliationEngine) processedData(in dto.ReconcileRequest) (*dto.ProcessedData, error) {
	if strings.TrimSpace(in.ProcessedXML) == "" || uc.extractor == nil {
		return in.Processed, nil
	}
	extracted, err := uc.extractor.Extract([]byte(in.ProcessedXML))
	if err != nil {
		return nil, domain.NewValidationError("processed_xml", err.Error())
	}
	if in.Processed == nil {
		return extracted, nil
	}
	merged := *extracted
	if in.Processed.DocumentType != "" {
		merged.DocumentType = in.Processed.DocumentType
	}
	if in.Processed.Series != "" {
		merged.Series = in.Processed.Series
	}
	if in.Processed.Number != "" {
		merged.Number = in.Processed.Number
	}
	if in.Processed.Amount != nil {
		merged.Amount = in.Processed.Amount
	}
	return &merged, nil
}

// claimHandle vincula el id externo al envío devuelto por Submit (handle del caller).
func claimHandle(ctx context.Context, subRepo repository.SunatSubmissionRepository, submissionID, externalID string) (*entity.SunatSubmission, error) {
	sub, err := subRepo.GetByIDForUpdate(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("obtener envío: %w", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	if sub.ExternalID != "" && sub.ExternalID != externalID {
		return nil, domain.NewValidationError("submission_id", "el envío ya está vinculado a otro id externo")
	}
	return sub, nil
}

// insertNew crea el envío para un id externo desconocido. Si el comprobante local se puede
// ubicar queda asociado; si no, el envío se guarda suelto y se asocia en una conciliación
// posterior. inserted=false si otra transacción ganó la carrera.
func (uc *ReconciliationEngine) insertNew(
	ctx context.Context,
	docRepo repository.SunatDocumentRepository,
	subRepo repository.SunatSubmissionRepository,
	businessID, externalID string,
	patch SubmissionPatch,
) (*entity.SunatSubmission, *entity.SunatDocument, bool, error) {
	now := uc.now()
	sub := &entity.SunatSubmission{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		ExternalID: externalID,
		Status:     entity.SubmissionStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	patch.Apply(sub)
	if patch.Status != nil {
		sub.Status = *patch.Status
	}

	doc, err := uc.resolveDocument(ctx, docRepo, sub)
	if err != nil {
		return nil, nil, false, err
	}
	if doc != nil {
		sub.DocumentID = doc.ID
	}

	inserted, err := subRepo.InsertIfAbsent(ctx, sub)
	if err != nil || !inserted {
		return nil, nil, false, err
	}
	if doc == nil {
		uc.log.Warn().
			Str("external_id", externalID).
			Str("series", sub.Series).
			Str("number", sub.Number).
			Msg("envío SUNAT sin comprobante local; queda pendiente de asociar")
		return sub, nil, true, nil
	}
	if sub.Status == entity.SubmissionStatusAccepted {
		if err := uc.onAccepted(ctx, docRepo, subRepo, doc, sub); err != nil {
			return nil, nil, false, err
		}
	}
	return sub, doc, true, nil
}

// resolveDocument ubica el comprobante local con la serie y número del envío (dirección por
// IsPurchase). Con tipo se busca por la clave completa; sin tipo solo vale una coincidencia única.
// nil sin error cuando no hay datos suficientes o ningún comprobante calza.
func (uc *ReconciliationEngine) resolveDocument(
	ctx context.Context,
	docRepo repository.SunatDocumentRepository,
	sub *entity.SunatSubmission,
) (*entity.SunatDocument, error) {
	if sub.Series == "" || sub.Number == "" {
		return nil, nil
	}
	number, err := strconv.ParseInt(sub.Number, 10, 64)
	if err != nil || number <= 0 {
		return nil, nil
	}
	series := strings.ToUpper(sub.Series)
	direction := entity.DirectionSale
	if sub.IsPurchase {
		direction = entity.DirectionPurchase
	}

	if sub.DocumentTypeCode == "" {
		candidates, err := docRepo.ListBySeriesNumber(ctx, sub.BusinessID, direction, series, number, 2)
		if err != nil {
			return nil, fmt.Errorf("buscar comprobante por serie y número: %w", err)
		}
		if len(candidates) != 1 {
			if len(candidates) > 1 {
				uc.log.Warn().
					Str("external_id", sub.ExternalID).
					Str("series", series).
					Int64("number", number).
					Msg("serie y número ambiguos sin tipo de comprobante")
			}
			return nil, nil
		}
		return candidates[0], nil
	}

	docType, err := uc.docTypeRepo.GetByCode(ctx, sub.DocumentTypeCode)
	if err != nil {
		return nil, fmt.Errorf("obtener tipo de comprobante: %w", err)
	}
	if docType == nil {
		return nil, nil
	}
	doc, err := docRepo.GetByKey(ctx, sub.BusinessID, direction, docType.ID, series, number)
	if err != nil {
		return nil, fmt.Errorf("obtener comprobante: %w", err)
	}
	return doc, nil
}

// patchExisting aplica el parche bajo bloqueo. Sin cambios no se escribe nada.
// Un envío suelto se asocia en cuanto sus datos ubican al comprobante.
func (uc *ReconciliationEngine) patchExisting(
	ctx context.Context,
	docRepo repository.SunatDocumentRepository,
	subRepo repository.SunatSubmissionRepository,
	businessID, externalID string,
	sub *entity.SunatSubmission,
	patch SubmissionPatch,
) (*entity.SunatDocument, error) {
	if sub.BusinessID != businessID {
		return nil, domain.ErrForbidden
	}
	var doc *entity.SunatDocument
	if sub.IsAttached() {
		var err error
		if doc, err = docRepo.GetByID(ctx, sub.DocumentID); err != nil {
			return nil, fmt.Errorf("obtener comprobante: %w", err)
		}
		if doc == nil {
			return nil, fmt.Errorf("%w: envío %s sin comprobante", domain.ErrDataIntegrity, sub.ID)
		}
	}

	prev := sub.Status
	next, ok := nextStatus(prev, patch.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, *patch.Status)
	}

	changed := patch.Apply(sub)
	if sub.ExternalID != externalID {
		sub.ExternalID = externalID
		changed = true
	}
	if next != prev {
		sub.Status = next
		changed = true
	}

	attached := false
	if doc == nil {
		found, err := uc.resolveDocument(ctx, docRepo, sub)
		if err != nil {
			return nil, err
		}
		if found != nil {
			doc, sub.DocumentID = found, found.ID
			attached, changed = true, true
		}
	}
	if !changed {
		return doc, nil
	}

	if doc != nil && next == entity.SubmissionStatusAccepted && (prev != entity.SubmissionStatusAccepted || attached) {
		if err := uc.onAccepted(ctx, docRepo, subRepo, doc, sub); err != nil {
			return nil, err
		}
	}
	sub.UpdatedAt = uc.now()
	if err := subRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	if attached {
		uc.log.Info().
			Str("external_id", externalID).
			Str("submission_id", sub.ID).
			Str("document_id", doc.ID).
			Msg("envío SUNAT asociado a su comprobante")
	}
	return doc, nil
}

// onAccepted garantiza un solo envío ACCEPTED por comprobante y emite el comprobante DRAFT.
func (uc *ReconciliationEngine) onAccepted(
	ctx context.Context,
	docRepo repository.SunatDocumentRepository,
	subRepo repository.SunatSubmissionRepository,
	doc *entity.SunatDocument,
	sub *entity.SunatSubmission,
) error {
	n, err := subRepo.CountAccepted(ctx, doc.ID, sub.ID)
	if err != nil {
		return fmt.Errorf("contar envíos aceptados: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: el comprobante %s ya tiene un envío ACCEPTED", domain.ErrDataIntegrity, doc.ID)
	}
	locked, err := docRepo.GetByIDForUpdate(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("bloquear comprobante: %w", err)
	}
	if locked == nil {
		return fmt.Errorf("%w: comprobante %s no encontrado", domain.ErrDataIntegrity, doc.ID)
	}
	switch locked.Status {
	case entity.DocumentStatusDraft:
		now := uc.now()
		if err := docRepo.UpdateStatus(ctx, locked.ID, entity.DocumentStatusIssued, now); err != nil {
			return fmt.Errorf("emitir comprobante: %w", err)
		}
		doc.Status = entity.DocumentStatusIssued
		doc.UpdatedAt = now
	case entity.DocumentStatusVoid:
		uc.log.Warn().
			Str("document_id", doc.ID).
			Str("submission_id", sub.ID).
			Msg("SUNAT aceptó un comprobante anulado localmente")
	}
	return nil
}

func (uc *ReconciliationEngine) logFailure(externalID string, err error) {
	ev := uc.log.Warn()
	if errors.Is(err, domain.ErrDataIntegrity) {
		ev = uc.log.Error()
	}
	ev.Err(err).Str("external_id", externalID).Msg("conciliación SUNAT fallida")
}
