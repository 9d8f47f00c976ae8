package billing

import (
	"strconv"
	"time"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toDocumentResponse(doc *entity.SunatDocument, items []*entity.SunatDocumentItem) *dto.DocumentResponse {
	out := &dto.DocumentResponse{
		ID:            doc.ID,
		BusinessID:    doc.BusinessID,
		Direction:     doc.Direction,
		DocumentType:  doc.DocumentTypeCode,
		Series:        doc.Series,
		Number:        doc.Number,
		IssueDate:     doc.IssueDate.Format(dateLayout),
		PartyID:       doc.PartyID,
		OrderID:       doc.OrderID,
		Currency:      doc.Currency,
		ExchangeRate:  doc.ExchangeRate,
		PaymentTerm:   doc.PaymentTerm,
		TotalTaxable:  doc.TotalTaxable,
		TotalIGV:      doc.TotalIGV,
		Total:         doc.Total,
		Status:        doc.Status,
		RefDocumentID: doc.RefDocumentID,
	}
	if doc.DueDate != nil {
		out.DueDate = doc.DueDate.Format(dateLayout)
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.DocumentItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			Discount:       it.Discount,
			TaxAffectation: it.TaxAffectation,
			IGVRate:        it.IGVRate,
			LineTotal:      it.LineTotal,
			IGVAmount:      it.IGVAmount,
		})
	}
	return out
}

func toSubmissionResponse(s *entity.SunatSubmission) *dto.SubmissionResponse {
	return &dto.SubmissionResponse{
		ID:           s.ID,
		DocumentID:   s.DocumentID,
		Production:   s.Production,
		IsPurchase:   s.IsPurchase,
		FileName:     s.FileName,
		ExternalID:   s.ExternalID,
		Status:       s.Status,
		DocumentType: s.DocumentTypeCode,
		Series:       s.Series,
		Number:       s.Number,
		Amount:       s.Amount,
		XMLURL:       s.XMLURL,
		CDRURL:       s.CDRURL,
		IssuedAt:     formatTime(s.IssuedAt),
		RespondedAt:  formatTime(s.RespondedAt),
		Faults:       s.Faults,
		Notes:        s.Notes,
		ErrorMessage: s.ErrorMessage,
		RawRequest:   s.RawRequest,
		RawResponse:  s.RawResponse,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toRecordResponse(r *entity.SunatRecord) *dto.RecordResponse {
	return &dto.RecordResponse{
		ID:           r.ExternalID,
		DocumentID:   r.DocumentID,
		SubmissionID: r.SubmissionID,
		Type:         r.Type,
		Serie:        r.Series,
		Numero:       r.Number,
		Status:       r.Status,
		Production:   r.Production,
		IsPurchase:   r.IsPurchase,
		XML:          r.XMLURL,
		CDR:          r.CDRURL,
		IssueTime:    formatTime(r.IssueTime),
		ResponseTime: formatTime(r.ResponseTime),
		Faults:       r.Faults,
		Amount:       r.Amount,
		FileName:     r.FileName,
	}
}

func toPartyResponse(p *entity.Party) *dto.PartyResponse {
	return &dto.PartyResponse{
		ID:         p.ID,
		BusinessID: p.BusinessID,
		DocType:    p.DocType,
		DocNumber:  p.DocNumber,
		Name:       p.Name,
		Address:    p.Address,
		Email:      p.Email,
		Phone:      p.Phone,
		IsActive:   p.IsActive,
	}
}

func toDocumentTypeResponse(t *entity.DocumentType) *dto.DocumentTypeResponse {
	return &dto.DocumentTypeResponse{ID: t.ID, Code: t.Code, Name: t.Name, IsActive: t.IsActive}
}

// projectRecord arma la vista plana SunatRecord a partir del envío y su comprobante.
func projectRecord(s *entity.SunatSubmission, doc *entity.SunatDocument) *entity.SunatRecord {
	r := &entity.SunatRecord{
		ExternalID:   s.ExternalID,
		BusinessID:   s.BusinessID,
		DocumentID:   s.DocumentID,
		IsPurchase:   s.IsPurchase,
		SubmissionID: s.ID,
		Type:         s.DocumentTypeCode,
		Series:       s.Series,
		Number:       s.Number,
		Status:       s.Status,
		Production:   s.Production,
		XMLURL:       s.XMLURL,
		CDRURL:       s.CDRURL,
		IssueTime:    s.IssuedAt,
		ResponseTime: s.RespondedAt,
		Faults:       s.Faults,
		Amount:       s.Amount,
		FileName:     s.FileName,
	}
	if doc != nil {
		r.IsPurchase = doc.Direction == entity.DirectionPurchase
		if r.Type == "" {
			r.Type = doc.DocumentTypeCode
		}
		if r.Series == "" {
			r.Series = doc.Series
		}
		if r.Number == "" {
			r.Number = strconv.FormatInt(doc.Number, 10)
		}
	}
	return r
}
