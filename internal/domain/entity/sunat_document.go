package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección del comprobante.
const (
	DirectionSale     = "SALE"
	DirectionPurchase = "PURCHASE"
)

// Estados del comprobante.
const (
	DocumentStatusDraft  = "DRAFT"  // Creado, aún sin envío aceptado
	DocumentStatusIssued = "ISSUED" // Al menos un envío ACCEPTED; serie y número congelados
	DocumentStatusVoid   = "VOID"   // Anulado manualmente (terminal)
)

// SunatDocument cabecera de un comprobante electrónico (factura, boleta, NC, ND).
// Clave única: (BusinessID, Direction, DocumentTypeID, Series, Number).
// Los totales se derivan de los ítems; nunca se editan por separado.
type SunatDocument struct {
	ID               string
	BusinessID       string
	Direction        string
	DocumentTypeID   string
	DocumentTypeCode string // desnormalizado para nombres de archivo y respuestas
	Series           string
	Number           int64
	IssueDate        time.Time
	PartyID          string
	OrderID          string // vacío si se creó manualmente
	Currency         string
	ExchangeRate     *decimal.Decimal
	PaymentTerm      string
	DueDate          *time.Time
	TotalTaxable     decimal.Decimal
	TotalIGV         decimal.Decimal
	Total            decimal.Decimal
	Status           string
	RefDocumentID    string // NC/ND: comprobante afectado
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CanSubmit indica si el comprobante admite un nuevo envío.
func (d *SunatDocument) CanSubmit() bool {
	return d.Status != DocumentStatusVoid
}
