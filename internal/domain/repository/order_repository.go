package repository

import (
	"context"

	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

// OrderRepository lectura de pedidos (los escribe el módulo de pedidos).
type OrderRepository interface {
	// GetByID devuelve el pedido con sus ítems, o nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
}
