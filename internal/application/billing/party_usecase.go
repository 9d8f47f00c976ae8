package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
	"github.com/sisfac/sisfac-api/pkg/sunat"
)

// PartyUseCase casos de uso para clientes/proveedores de comprobantes.
type PartyUseCase struct {
	repo repository.PartyRepository
}

// NewPartyUseCase construye el caso de uso.
func NewPartyUseCase(repo repository.PartyRepository) *PartyUseCase {
	return &PartyUseCase{repo: repo}
}

// Create registra una party. La clave (empresa, tipo doc, número) es única.
func (uc *PartyUseCase) Create(ctx context.Context, businessID string, in dto.CreatePartyRequest) (*dto.PartyResponse, error) {
	docType := strings.TrimSpace(in.DocType)
	docNumber := strings.TrimSpace(in.DocNumber)
	name := strings.TrimSpace(in.Name)
	if !sunat.ValidIdentityTypes[docType] {
		return nil, domain.NewValidationError("doc_type", "tipo de documento no reconocido (0, 1, 4, 6, 7)")
	}
	if docNumber == "" && docType != sunat.IdentityNone {
		return nil, domain.NewValidationError("doc_number", "requerido")
	}
	if docType == sunat.IdentityRUC {
		if err := sunat.ValidateRUC(docNumber); err != nil {
			return nil, domain.NewValidationError("doc_number", err.Error())
		}
	}
	if docType == sunat.IdentityDNI && (len(docNumber) != 8 || !isNumeric(docNumber)) {
		return nil, domain.NewValidationError("doc_number", "el DNI debe tener 8 dígitos")
	}
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}

	existing, err := uc.repo.GetByBusinessAndDoc(ctx, businessID, docType, docNumber)
	if err != nil {
		return nil, fmt.Errorf("party: buscar duplicado: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	party := &entity.Party{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		DocType:    docType,
		DocNumber:  docNumber,
		Name:       name,
		Address:    strings.TrimSpace(in.Address),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, party); err != nil {
		return nil, err
	}
	return toPartyResponse(party), nil
}

// Get devuelve una party de la empresa.
func (uc *PartyUseCase) Get(ctx context.Context, businessID, id string) (*dto.PartyResponse, error) {
	party, err := uc.load(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return toPartyResponse(party), nil
}

// List lista parties de la empresa.
func (uc *PartyUseCase) List(ctx context.Context, businessID string, page dto.PageRequest) ([]*dto.PartyResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.ListByBusiness(ctx, businessID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.PartyResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPartyResponse(p))
	}
	return out, nil
}

// Update modifica datos de contacto. Una party referenciada por un comprobante ISSUED es inmutable.
func (uc *PartyUseCase) Update(ctx context.Context, businessID, id string, in dto.UpdatePartyRequest) (*dto.PartyResponse, error) {
	party, err := uc.load(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	referenced, err := uc.repo.IsReferencedByIssued(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("party: verificar referencias: %w", err)
	}
	if referenced {
		return nil, fmt.Errorf("%w: la party está referenciada por comprobantes emitidos", domain.ErrConflict)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "no puede quedar vacío")
		}
		party.Name = name
	}
	if in.Address != nil {
		party.Address = strings.TrimSpace(*in.Address)
	}
	if in.Email != nil {
		party.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		party.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.IsActive != nil {
		party.IsActive = *in.IsActive
	}
	party.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, party); err != nil {
		return nil, err
	}
	return toPartyResponse(party), nil
}

// Delete elimina la party; falla con ErrProtectedReference si algún comprobante la usa.
func (uc *PartyUseCase) Delete(ctx context.Context, businessID, id string) error {
	if _, err := uc.load(ctx, businessID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *PartyUseCase) load(ctx context.Context, businessID, id string) (*entity.Party, error) {
	party, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("party: obtener: %w", err)
	}
	if party == nil {
		return nil, domain.ErrNotFound
	}
	if party.BusinessID != businessID {
		return nil, domain.ErrForbidden
	}
	return party, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
