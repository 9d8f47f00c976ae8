package entity

import "time"

// Party cliente o proveedor de un comprobante, con alcance por empresa.
// Clave única: (BusinessID, DocType, DocNumber).
type Party struct {
	ID         string
	BusinessID string
	DocType    string // catálogo 06: 0 SIN DOC, 1 DNI, 4 CE, 6 RUC, 7 PASAPORTE
	DocNumber  string
	Name       string
	Address    string
	Email      string
	Phone      string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
