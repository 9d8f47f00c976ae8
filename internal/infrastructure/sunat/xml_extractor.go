package sunat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/application/dto"
)

var _ billing.ProcessedDataExtractor = (*XMLExtractor)(nil)

// ErrUnsupportedXML la raíz no es Invoice, CreditNote ni DebitNote.
var ErrUnsupportedXML = errors.New("sunat: XML no es un comprobante UBL soportado")

// XMLExtractor lee tipo, serie, número e importe del XML UBL 2.1 firmado que devuelve SUNAT.
type XMLExtractor struct{}

// NewXMLExtractor crea el extractor.
func NewXMLExtractor() *XMLExtractor {
	return &XMLExtractor{}
}

// Extract parsea el XML. Los campos ausentes quedan vacíos; solo falla si el XML no es legible.
func (e *XMLExtractor) Extract(xmlBytes []byte) (*dto.ProcessedData, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("sunat: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("sunat: documento sin raíz")
	}

	out := &dto.ProcessedData{}
	totalTag := "LegalMonetaryTotal"
	switch localName(root.Tag) {
	case "Invoice":
		// Factura y boleta comparten raíz; el catálogo 01 viene en InvoiceTypeCode.
		if el := child(root, "InvoiceTypeCode"); el != nil {
			out.DocumentType = strings.TrimSpace(el.Text())
		}
	case "CreditNote":
		out.DocumentType = "07"
	case "DebitNote":
		out.DocumentType = "08"
		totalTag = "RequestedMonetaryTotal"
	default:
		return nil, ErrUnsupportedXML
	}

	if el := child(root, "ID"); el != nil {
		out.Series, out.Number = splitID(strings.TrimSpace(el.Text()))
	}

	if total := child(root, totalTag); total != nil {
		if el := child(total, "PayableAmount"); el != nil {
			amount, err := decimal.NewFromString(strings.TrimSpace(el.Text()))
			if err != nil {
				return nil, fmt.Errorf("sunat: PayableAmount inválido: %w", err)
			}
			out.Amount = &amount
		}
	}
	return out, nil
}

// child primer hijo directo con ese nombre local (ignora el prefijo cbc:/cac:).
func child(el *etree.Element, local string) *etree.Element {
	for _, c := range el.ChildElements() {
		if localName(c.Tag) == local {
			return c
		}
	}
	return nil
}

func localName(tag string) string {
	if i := strings.LastIndex(tag, ":"); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// splitID "F001-00000045" → ("F001", "00000045"). Sin guion todo es serie.
func splitID(id string) (series, number string) {
	i := strings.Index(id, "-")
	if i < 0 {
		return id, ""
	}
	return id[:i], id[i+1:]
}
