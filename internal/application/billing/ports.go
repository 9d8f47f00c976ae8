package billing

import (
	"context"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
)

// SunatTxRunner ejecuta fn dentro de una transacción con repos de comprobantes y envíos atados a ella.
// Si fn retorna error se hace rollback: nunca quedan escrituras parciales.
type SunatTxRunner interface {
	RunSunat(ctx context.Context, fn func(
		docRepo repository.SunatDocumentRepository,
		subRepo repository.SunatSubmissionRepository,
	) error) error
}

// ProcessedDataExtractor obtiene serie, número, tipo y monto del XML devuelto por SUNAT.
type ProcessedDataExtractor interface {
	Extract(xml []byte) (*dto.ProcessedData, error)
}

// DocumentPDFGenerator genera la representación impresa de un comprobante.
type DocumentPDFGenerator interface {
	GenerateDocumentPDF(ctx context.Context, data DocumentPDFData) ([]byte, error)
}

// DocumentPDFData todo lo necesario para imprimir un comprobante.
type DocumentPDFData struct {
	Business *entity.Business
	Party    *entity.Party
	Document *entity.SunatDocument
	Items    []*entity.SunatDocumentItem
	TypeName string                  // "Factura", "Boleta de venta"...
	Accepted *entity.SunatSubmission // envío ACCEPTED (enlaces XML/CDR); puede ser nil
}
