package billing

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
)

// DocumentTypeUseCase catálogo de tipos de comprobante.
type DocumentTypeUseCase struct {
	repo repository.DocumentTypeRepository
}

// NewDocumentTypeUseCase construye el caso de uso.
func NewDocumentTypeUseCase(repo repository.DocumentTypeRepository) *DocumentTypeUseCase {
	return &DocumentTypeUseCase{repo: repo}
}

// List devuelve todos los tipos.
func (uc *DocumentTypeUseCase) List(ctx context.Context) ([]*dto.DocumentTypeResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.DocumentTypeResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toDocumentTypeResponse(t))
	}
	return out, nil
}

// Create registra un tipo. El código es de 2 dígitos y único.
func (uc *DocumentTypeUseCase) Create(ctx context.Context, in dto.CreateDocumentTypeRequest) (*dto.DocumentTypeResponse, error) {
	code := strings.TrimSpace(in.Code)
	if len(code) != 2 || !isNumeric(code) {
		return nil, domain.NewValidationError("code", "debe tener 2 dígitos")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	existing, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	t := &entity.DocumentType{ID: uuid.New().String(), Code: code, Name: name, IsActive: true}
	if err := uc.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return toDocumentTypeResponse(t), nil
}

// Delete elimina un tipo; falla con ErrProtectedReference si algún comprobante lo usa.
func (uc *DocumentTypeUseCase) Delete(ctx context.Context, id string) error {
	t, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return domain.ErrNotFound
	}
	return uc.repo.Delete(ctx, id)
}
