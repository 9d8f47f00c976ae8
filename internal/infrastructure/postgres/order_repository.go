package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo lectura de pedidos con sus ítems.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// GetByID devuelve el pedido con sus ítems ordenados por línea.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var o entity.Order
	err := r.q.QueryRow(ctx,
		`SELECT id, business_id, party_id, currency, payment_term FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.BusinessID, &o.PartyID, &o.Currency, &o.PaymentTerm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT product_id, description, quantity, unit_price, discount
		FROM order_items WHERE order_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OrderItem
		var productID *string
		if err := rows.Scan(&productID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Discount); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.ProductID = derefString(productID)
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return &o, nil
}
