package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SunatRecord vista plana heredada (un registro por id externo).
// Se construye a partir de SunatSubmission + SunatDocument; nunca se escribe directamente.
type SunatRecord struct {
	ExternalID   string
	BusinessID   string
	DocumentID   string
	SubmissionID string
	Type         string
	Series       string
	Number       string
	Status       string
	Production   bool
	IsPurchase   bool
	XMLURL       string
	CDRURL       string
	IssueTime    *time.Time
	ResponseTime *time.Time
	Faults       json.RawMessage
	Amount       *decimal.Decimal
	FileName     string
}
