package entity

import "github.com/shopspring/decimal"

// Catálogo 07 - afectación del IGV.
const (
	TaxAffectationGravado   = "10"
	TaxAffectationExonerado = "20"
	TaxAffectationGratuito  = "21"
	TaxAffectationInafecto  = "30"
)

// SunatDocumentItem línea de un comprobante.
// LineTotal = round(Quantity*UnitPrice - Discount, 2); IGVAmount solo si es gravado.
type SunatDocumentItem struct {
	ID             string
	DocumentID     string
	ProductID      string // opcional, trazabilidad
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	Discount       decimal.Decimal
	TaxAffectation string
	IGVRate        decimal.Decimal
	LineTotal      decimal.Decimal
	IGVAmount      decimal.Decimal
}
