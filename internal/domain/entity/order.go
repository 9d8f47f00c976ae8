package entity

import "github.com/shopspring/decimal"

// Order pedido ya capturado por el módulo de pedidos. Aquí es solo de lectura:
// es la entrada del ensamblado de comprobantes.
type Order struct {
	ID          string
	BusinessID  string
	PartyID     string
	Currency    string
	PaymentTerm string
	Items       []OrderItem
}

// OrderItem línea del pedido.
type OrderItem struct {
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
}
