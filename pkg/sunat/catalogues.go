// Package sunat contiene catálogos y reglas de SUNAT (Perú) usados por la facturación electrónica.
package sunat

// =============================================================================
// Catálogo 01 - Tipos de comprobante
// =============================================================================

const (
	DocTypeFactura    = "01"
	DocTypeBoleta     = "03"
	DocTypeCreditNote = "07"
	DocTypeDebitNote  = "08"
)

// DocumentTypeNames nombres oficiales de los tipos de comprobante soportados.
var DocumentTypeNames = map[string]string{
	DocTypeFactura:    "Factura",
	DocTypeBoleta:     "Boleta de venta",
	DocTypeCreditNote: "Nota de crédito",
	DocTypeDebitNote:  "Nota de débito",
}

// =============================================================================
// Catálogo 06 - Tipos de documento de identidad
// =============================================================================

const (
	IdentityNone     = "0" // Sin documento
	IdentityDNI      = "1"
	IdentityCE       = "4" // Carné de extranjería
	IdentityRUC      = "6"
	IdentityPassport = "7"
)

// ValidIdentityTypes tipos de documento de identidad aceptados para Party.
var ValidIdentityTypes = map[string]bool{
	IdentityNone: true, IdentityDNI: true, IdentityCE: true, IdentityRUC: true, IdentityPassport: true,
}

// =============================================================================
// Catálogo 07 - Afectación del IGV
// =============================================================================

const (
	AffectationGravado   = "10" // Gravado - operación onerosa
	AffectationExonerado = "20"
	AffectationGratuito  = "21" // Gratuito (referencial)
	AffectationInafecto  = "30"
)

// ValidTaxAffectations códigos de afectación reconocidos.
var ValidTaxAffectations = map[string]bool{
	AffectationGravado: true, AffectationExonerado: true, AffectationGratuito: true, AffectationInafecto: true,
}

// Monedas y condiciones de pago.
const (
	CurrencyPEN = "PEN"
	CurrencyUSD = "USD"

	PaymentTermCash   = "CASH"
	PaymentTermCredit = "CREDIT"
)

// ValidCurrencies monedas aceptadas.
var ValidCurrencies = map[string]bool{CurrencyPEN: true, CurrencyUSD: true}

// ValidPaymentTerms condiciones de pago aceptadas.
var ValidPaymentTerms = map[string]bool{PaymentTermCash: true, PaymentTermCredit: true}
