package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/pkg/sunat"
)

// SubmissionPatch actualización parcial de un envío. nil (o RawMessage vacío) = campo ausente:
// un campo ausente nunca pisa el valor local.
type SubmissionPatch struct {
	Status           *string // ya traducido al vocabulario local
	DocumentTypeCode *string
	Series           *string
	Number           *string
	Amount           *decimal.Decimal
	XMLURL           *string
	CDRURL           *string
	IssuedAt         *time.Time
	RespondedAt      *time.Time
	Production       *bool
	IsPurchase       *bool
	FileName         *string
	Faults           json.RawMessage
	Notes            json.RawMessage
	RawResponse      json.RawMessage
}

// NewSubmissionPatch arma el parche desde el payload de APISUNAT y los datos procesados del XML.
// Serie/número/tipo: processed > payload > fileName.
func NewSubmissionPatch(p dto.SunatPayload, processed *dto.ProcessedData) SubmissionPatch {
	var patch SubmissionPatch

	if st := strings.TrimSpace(p.Status); st != "" {
		mapped := sunat.MapExternalStatus(st)
		patch.Status = &mapped
	}

	var fromName sunat.ParsedFileName
	if p.FileName != "" {
		fromName, _ = sunat.ParseFileName(p.FileName)
	}
	var pd dto.ProcessedData
	if processed != nil {
		pd = *processed
	}
	patch.DocumentTypeCode = firstNonEmpty(pd.DocumentType, string(p.Type), fromName.DocType)
	patch.Series = firstNonEmpty(pd.Series, string(p.Serie), fromName.Series)
	patch.Number = firstNonEmpty(pd.Number, string(p.Numero), fromName.Number)
	if pd.Amount != nil {
		amount := *pd.Amount
		patch.Amount = &amount
	}

	patch.XMLURL = firstNonEmpty(p.XML)
	patch.CDRURL = firstNonEmpty(p.CDR)
	patch.FileName = firstNonEmpty(p.FileName)
	if p.IssueTime != nil && !p.IssueTime.IsZero() {
		t := p.IssueTime.Time
		patch.IssuedAt = &t
	}
	if p.ResponseTime != nil && !p.ResponseTime.IsZero() {
		t := p.ResponseTime.Time
		patch.RespondedAt = &t
	}
	if p.Production != nil {
		v := *p.Production
		patch.Production = &v
	}
	if p.IsPurchase != nil {
		v := *p.IsPurchase
		patch.IsPurchase = &v
	}
	patch.Faults = presentJSON(p.Faults)
	patch.Notes = presentJSON(p.Notes)
	return patch
}

// Límites de las columnas de identificación reportadas por SUNAT.
const (
	maxDocTypeLen = 2
	maxSeriesLen  = 10
	maxNumberLen  = 20
)

// Validate rechaza identificadores que no caben en el envío.
func (p SubmissionPatch) Validate() error {
	checks := []struct {
		field string
		value *string
		max   int
	}{
		{"type", p.DocumentTypeCode, maxDocTypeLen},
		{"serie", p.Series, maxSeriesLen},
		{"numero", p.Number, maxNumberLen},
	}
	for _, c := range checks {
		if c.value != nil && utf8.RuneCountInString(*c.value) > c.max {
			return domain.NewValidationError(c.field, fmt.Sprintf("máximo %d caracteres", c.max))
		}
	}
	return nil
}

// Apply copia al envío los campos presentes, salvo Status (lo decide la máquina de estados).
// FileName solo se completa si el envío no tenía uno. Devuelve true si algo cambió.
func (p SubmissionPatch) Apply(s *entity.SunatSubmission) bool {
	changed := false
	setString := func(dst *string, v *string) {
		if v != nil && *v != "" && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	setTime := func(dst **time.Time, v *time.Time) {
		if v != nil && (*dst == nil || !(*dst).Equal(*v)) {
			t := *v
			*dst = &t
			changed = true
		}
	}
	setJSON := func(dst *json.RawMessage, v json.RawMessage) {
		if len(v) > 0 && !jsonEqual(*dst, v) {
			*dst = v
			changed = true
		}
	}

	setString(&s.DocumentTypeCode, p.DocumentTypeCode)
	setString(&s.Series, p.Series)
	setString(&s.Number, p.Number)
	setString(&s.XMLURL, p.XMLURL)
	setString(&s.CDRURL, p.CDRURL)
	if s.FileName == "" {
		setString(&s.FileName, p.FileName)
	}
	if p.Amount != nil && (s.Amount == nil || !s.Amount.Equal(*p.Amount)) {
		amount := *p.Amount
		s.Amount = &amount
		changed = true
	}
	setTime(&s.IssuedAt, p.IssuedAt)
	setTime(&s.RespondedAt, p.RespondedAt)
	if p.Production != nil && s.Production != *p.Production {
		s.Production = *p.Production
		changed = true
	}
	if p.IsPurchase != nil && s.IsPurchase != *p.IsPurchase {
		s.IsPurchase = *p.IsPurchase
		changed = true
	}
	setJSON(&s.Faults, p.Faults)
	setJSON(&s.Notes, p.Notes)
	setJSON(&s.RawResponse, p.RawResponse)
	return changed
}

// nextStatus aplica la máquina de estados: solo PENDING admite transiciones.
// Estado ausente o PENDING sobre un envío terminal se ignoran; otro terminal es ErrInvalidTransition.
func nextStatus(current string, incoming *string) (string, bool) {
	if incoming == nil || *incoming == current {
		return current, true
	}
	if current == entity.SubmissionStatusPending {
		return *incoming, true
	}
	if *incoming == entity.SubmissionStatusPending {
		return current, true
	}
	return current, false
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return &v
		}
	}
	return nil
}

// jsonEqual compara por valor: JSONB reordena claves y quita espacios al guardar.
func jsonEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

func presentJSON(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}
