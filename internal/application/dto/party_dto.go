package dto

// CreatePartyRequest body para POST /api/parties.
type CreatePartyRequest struct {
	DocType   string `json:"doc_type"`
	DocNumber string `json:"doc_number"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// UpdatePartyRequest body para PUT /api/parties/:id. Campos nil no se modifican.
type UpdatePartyRequest struct {
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// PartyResponse party en respuestas.
type PartyResponse struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	DocType    string `json:"doc_type"`
	DocNumber  string `json:"doc_number"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	IsActive   bool   `json:"is_active"`
}

// CreateDocumentTypeRequest body para POST /api/document-types.
type CreateDocumentTypeRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DocumentTypeResponse tipo de comprobante en respuestas.
type DocumentTypeResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}
