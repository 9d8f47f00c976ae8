package billing

import (
	"context"
	"fmt"

	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
	"github.com/sisfac/sisfac-api/pkg/sunat"
)

// PDFUseCase genera la representación impresa de un comprobante.
// Solo se imprime un comprobante ISSUED (aceptado por SUNAT).
type PDFUseCase struct {
	docRepo      repository.SunatDocumentRepository
	subRepo      repository.SunatSubmissionRepository
	businessRepo repository.BusinessRepository
	partyRepo    repository.PartyRepository
	generator    DocumentPDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	docRepo repository.SunatDocumentRepository,
	subRepo repository.SunatSubmissionRepository,
	businessRepo repository.BusinessRepository,
	partyRepo repository.PartyRepository,
	generator DocumentPDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		docRepo:      docRepo,
		subRepo:      subRepo,
		businessRepo: businessRepo,
		partyRepo:    partyRepo,
		generator:    generator,
	}
}

// DownloadDocumentPDF devuelve (pdfBytes, filename).
//
// Retorna:
//   - domain.ErrNotFound     si el comprobante no existe.
//   - domain.ErrForbidden    si pertenece a otra empresa.
//   - domain.ErrConflict     si aún no está ISSUED.
func (uc *PDFUseCase) DownloadDocumentPDF(ctx context.Context, businessID, documentID string) (pdfBytes []byte, filename string, err error) {
	// ── 1. Comprobante ────────────────────────────────────────────────────────
	doc, err := uc.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener comprobante: %w", err)
	}
	if doc == nil {
		return nil, "", domain.ErrNotFound
	}
	if doc.BusinessID != businessID {
		return nil, "", domain.ErrForbidden
	}
	if doc.Status != entity.DocumentStatusIssued {
		return nil, "", fmt.Errorf("%w: el comprobante está en estado %s; solo se imprime un comprobante emitido",
			domain.ErrConflict, doc.Status)
	}

	// ── 2. Empresa, party e ítems ─────────────────────────────────────────────
	business, err := uc.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener empresa: %w", err)
	}
	if business == nil {
		return nil, "", domain.ErrNotFound
	}
	party, err := uc.partyRepo.GetByID(ctx, doc.PartyID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener party: %w", err)
	}
	if party == nil {
		return nil, "", fmt.Errorf("%w: party %s", domain.ErrNotFound, doc.PartyID)
	}
	items, err := uc.docRepo.GetItems(ctx, doc.ID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener ítems: %w", err)
	}

	// ── 3. Envío aceptado (enlaces XML/CDR) ───────────────────────────────────
	subs, err := uc.subRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener envíos: %w", err)
	}
	var accepted *entity.SunatSubmission
	for _, s := range subs {
		if s.Status == entity.SubmissionStatusAccepted {
			accepted = s
			break
		}
	}

	// ── 4. Generar PDF ────────────────────────────────────────────────────────
	typeName := sunat.DocumentTypeNames[doc.DocumentTypeCode]
	if typeName == "" {
		typeName = "Comprobante " + doc.DocumentTypeCode
	}
	pdfBytes, err = uc.generator.GenerateDocumentPDF(ctx, DocumentPDFData{
		Business: business,
		Party:    party,
		Document: doc,
		Items:    items,
		TypeName: typeName,
		Accepted: accepted,
	})
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	filename = sunat.BuildFileName(business.RUC, doc.DocumentTypeCode, doc.Series, doc.Number) + ".pdf"
	return pdfBytes, filename, nil
}
