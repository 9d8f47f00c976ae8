package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// AssembleDocumentRequest body para POST /api/sunat-documents (alta manual).
// Number 0 = asignar el siguiente correlativo de la serie.
type AssembleDocumentRequest struct {
	Direction        string              `json:"direction,omitempty"` // SALE (defecto) | PURCHASE
	DocumentTypeCode string              `json:"document_type"`
	Series           string              `json:"series"`
	Number           int64               `json:"number,omitempty"`
	IssueDate        string              `json:"issue_date,omitempty"` // YYYY-MM-DD; vacío = hoy
	PartyID          string              `json:"party_id"`
	Currency         string              `json:"currency,omitempty"`
	ExchangeRate     *decimal.Decimal    `json:"exchange_rate,omitempty"`
	PaymentTerm      string              `json:"payment_term,omitempty"`
	DueDate          string              `json:"due_date,omitempty"`
	RefDocumentID    string              `json:"ref_document_id,omitempty"`
	Items            []DocumentItemInput `json:"items"`
}

// AssembleFromOrderRequest body para POST /api/sunat-documents/from-order.
// Party, moneda, condición de pago e ítems salen del pedido.
type AssembleFromOrderRequest struct {
	OrderID          string           `json:"order_id"`
	DocumentTypeCode string           `json:"document_type"`
	Series           string           `json:"series"`
	Number           int64            `json:"number,omitempty"`
	IssueDate        string           `json:"issue_date,omitempty"`
	ExchangeRate     *decimal.Decimal `json:"exchange_rate,omitempty"`
	DueDate          string           `json:"due_date,omitempty"`
	TaxAffectation   string           `json:"tax_affectation,omitempty"` // aplica a todas las líneas; defecto 10
}

// DocumentItemInput línea enviada por el cliente.
type DocumentItemInput struct {
	ProductID      string           `json:"product_id,omitempty"`
	Description    string           `json:"description"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	Discount       decimal.Decimal  `json:"discount"`
	TaxAffectation string           `json:"tax_affectation,omitempty"` // defecto 10
	IGVRate        *decimal.Decimal `json:"igv_rate,omitempty"`        // defecto SUNAT_IGV_RATE
}

// DocumentResponse comprobante con ítems.
type DocumentResponse struct {
	ID            string                 `json:"id"`
	BusinessID    string                 `json:"business_id"`
	Direction     string                 `json:"direction"`
	DocumentType  string                 `json:"document_type"`
	Series        string                 `json:"series"`
	Number        int64                  `json:"number"`
	IssueDate     string                 `json:"issue_date"`
	PartyID       string                 `json:"party_id"`
	OrderID       string                 `json:"order_id,omitempty"`
	Currency      string                 `json:"currency"`
	ExchangeRate  *decimal.Decimal       `json:"exchange_rate,omitempty"`
	PaymentTerm   string                 `json:"payment_term"`
	DueDate       string                 `json:"due_date,omitempty"`
	TotalTaxable  decimal.Decimal        `json:"total_taxable"`
	TotalIGV      decimal.Decimal        `json:"total_igv"`
	Total         decimal.Decimal        `json:"total"`
	Status        string                 `json:"status"`
	RefDocumentID string                 `json:"ref_document_id,omitempty"`
	Items         []DocumentItemResponse `json:"items,omitempty"`
}

// DocumentItemResponse línea en la respuesta.
type DocumentItemResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id,omitempty"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	TaxAffectation string          `json:"tax_affectation"`
	IGVRate        decimal.Decimal `json:"igv_rate"`
	LineTotal      decimal.Decimal `json:"line_total"`
	IGVAmount      decimal.Decimal `json:"igv_amount"`
}

// SubmitRequest body para POST /api/sunat-documents/:id/submissions.
type SubmitRequest struct {
	Production bool `json:"production"`
}

// RecordErrorRequest body para POST /api/sunat-submissions/:id/error.
type RecordErrorRequest struct {
	Message string `json:"message"`
}

// SubmissionResponse envío en respuestas.
type SubmissionResponse struct {
	ID           string           `json:"id"`
	DocumentID   string           `json:"document_id,omitempty"` // vacío: aún sin comprobante local
	Production   bool             `json:"production"`
	IsPurchase   bool             `json:"is_purchase"`
	FileName     string           `json:"file_name"`
	ExternalID   string           `json:"apisunat_document_id,omitempty"`
	Status       string           `json:"status"`
	DocumentType string           `json:"document_type,omitempty"`
	Series       string           `json:"series,omitempty"`
	Number       string           `json:"number,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	XMLURL       string           `json:"xml_url,omitempty"`
	CDRURL       string           `json:"cdr_url,omitempty"`
	IssuedAt     string           `json:"sunat_issued_at,omitempty"`
	RespondedAt  string           `json:"sunat_responded_at,omitempty"`
	Faults       json.RawMessage  `json:"faults,omitempty"`
	Notes        json.RawMessage  `json:"notes,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	RawRequest   json.RawMessage  `json:"raw_request,omitempty"`
	RawResponse  json.RawMessage  `json:"raw_response,omitempty"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

// ReconcileRequest body para POST /api/sunat-submissions/reconcile.
// SubmissionID es el handle devuelto por el envío; opcional.
// ProcessedXML es el XML del comprobante devuelto por SUNAT; si viene, se extraen serie/número/monto.
type ReconcileRequest struct {
	Payload      SunatPayload   `json:"payload"`
	Processed    *ProcessedData `json:"processed_data,omitempty"`
	SubmissionID string         `json:"submission_id,omitempty"`
	ProcessedXML string         `json:"processed_xml,omitempty"`
}

// RecordResponse vista plana heredada (SunatRecord).
type RecordResponse struct {
	ID           string           `json:"id"`
	DocumentID   string           `json:"document_id,omitempty"`
	SubmissionID string           `json:"submission_id"`
	Type         string           `json:"type,omitempty"`
	Serie        string           `json:"serie,omitempty"`
	Numero       string           `json:"numero,omitempty"`
	Status       string           `json:"status"`
	Production   bool             `json:"production"`
	IsPurchase   bool             `json:"isPurchase"`
	XML          string           `json:"xml,omitempty"`
	CDR          string           `json:"cdr,omitempty"`
	IssueTime    string           `json:"issueTime,omitempty"`
	ResponseTime string           `json:"responseTime,omitempty"`
	Faults       json.RawMessage  `json:"faults,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	FileName     string           `json:"fileName,omitempty"`
}
