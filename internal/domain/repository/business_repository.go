package repository

import (
	"context"

	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

// BusinessRepository puerto de lectura de empresas y su configuración APISUNAT.
type BusinessRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Business, error)
	// GetSunatConfig devuelve nil, nil si la empresa no tiene configuración.
	GetSunatConfig(ctx context.Context, businessID string) (*entity.BusinessSunatConfig, error)
}
