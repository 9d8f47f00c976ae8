package entity

// DocumentType tipo de comprobante SUNAT (01 Factura, 03 Boleta, 07 NC, 08 ND).
type DocumentType struct {
	ID       string
	Code     string
	Name     string
	IsActive bool
}

// IsNote indica si el tipo es nota de crédito o débito (requiere documento de referencia).
func (t *DocumentType) IsNote() bool {
	return t.Code == "07" || t.Code == "08"
}
