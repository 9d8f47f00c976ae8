package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un envío a SUNAT. Solo PENDING admite transiciones; el resto son terminales.
const (
	SubmissionStatusPending   = "PENDING"
	SubmissionStatusAccepted  = "ACCEPTED"
	SubmissionStatusRejected  = "REJECTED"
	SubmissionStatusException = "EXCEPTION"
	SubmissionStatusError     = "ERROR"
)

// SunatSubmission un intento de envío (sendBill) más su resultado final (getById).
// Un comprobante puede tener varios envíos (reintentos). DocumentID vacío: SUNAT informó un
// id externo que aún no se pudo asociar a un comprobante local.
type SunatSubmission struct {
	ID               string
	BusinessID       string
	DocumentID       string
	Production       bool
	IsPurchase       bool
	FileName         string // RUC-TIPO-SERIE-NUMERO
	ExternalID       string // documentId de APISUNAT; vacío hasta que lo asignen
	Status           string
	DocumentTypeCode string // tipo reportado por SUNAT
	Series           string // serie reportada por SUNAT
	Number           string // número reportado por SUNAT (tal cual, ej: "00000045")
	Amount           *decimal.Decimal
	XMLURL           string
	CDRURL           string
	IssuedAt         *time.Time
	RespondedAt      *time.Time
	Faults           json.RawMessage
	Notes            json.RawMessage
	ErrorMessage     string
	RawRequest       json.RawMessage
	RawResponse      json.RawMessage
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsAttached indica si el envío ya está asociado a un comprobante local.
func (s *SunatSubmission) IsAttached() bool {
	return s.DocumentID != ""
}

// IsTerminal indica si el envío ya no admite cambios de estado.
func (s *SunatSubmission) IsTerminal() bool {
	return s.Status != SubmissionStatusPending
}
