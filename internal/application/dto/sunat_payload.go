package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SunatPayload respuesta de APISUNAT (getById / webhook). Solo id es obligatorio.
type SunatPayload struct {
	ID           string          `json:"id"`
	Type         FlexString      `json:"type,omitempty"`
	Serie        FlexString      `json:"serie,omitempty"`
	Numero       FlexString      `json:"numero,omitempty"`
	Status       string          `json:"status,omitempty"`
	XML          string          `json:"xml,omitempty"`
	CDR          string          `json:"cdr,omitempty"`
	IssueTime    *FlexTime       `json:"issueTime,omitempty"`
	ResponseTime *FlexTime       `json:"responseTime,omitempty"`
	Production   *bool           `json:"production,omitempty"`
	IsPurchase   *bool           `json:"isPurchase,omitempty"`
	Faults       json.RawMessage `json:"faults,omitempty"`
	Notes        json.RawMessage `json:"notes,omitempty"`
	FileName     string          `json:"fileName,omitempty"`
}

// ProcessedData valores extraídos del XML de SUNAT; son la fuente más confiable.
type ProcessedData struct {
	DocumentType string           `json:"document_type,omitempty"`
	Series       string           `json:"series,omitempty"`
	Number       string           `json:"number,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
}

// FlexString acepta string o número JSON ("00000045" o 45).
type FlexString string

// UnmarshalJSON implementa json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("valor no es string ni número: %s", string(b))
	}
	*f = FlexString(n.String())
	return nil
}

// FlexTime acepta segundos Unix (como envía APISUNAT) o RFC 3339.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON implementa json.Unmarshaler.
func (t *FlexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = time.Unix(secs, 0).UTC()
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("fecha inválida %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	secs, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp inválido %s: %w", string(b), err)
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}

// MarshalJSON serializa en RFC 3339.
func (t FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}
