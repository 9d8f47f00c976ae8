// Package sunat contiene las reglas de dominio del comprobante electrónico SUNAT:
// cálculo de líneas, totales del documento y su validación.
package sunat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	pkgsunat "github.com/sisfac/sisfac-api/pkg/sunat"
)

// TaxablePolicy decide qué líneas suman a TotalTaxable.
type TaxablePolicy string

const (
	// PolicyGravadoOnly solo las líneas gravadas (10) forman la base imponible.
	// Las demás se suman al total pero no a TotalTaxable.
	PolicyGravadoOnly TaxablePolicy = "GRAVADO_ONLY"
	// PolicyAllLines todas las líneas forman TotalTaxable; total = taxable + IGV.
	PolicyAllLines TaxablePolicy = "ALL_LINES"
)

// ParseTaxablePolicy interpreta el valor de configuración; vacío equivale a GRAVADO_ONLY.
func ParseTaxablePolicy(s string) (TaxablePolicy, error) {
	switch TaxablePolicy(strings.ToUpper(strings.TrimSpace(s))) {
	case "", PolicyGravadoOnly:
		return PolicyGravadoOnly, nil
	case PolicyAllLines:
		return PolicyAllLines, nil
	default:
		return "", fmt.Errorf("sunat: política de base imponible desconocida %q", s)
	}
}

// Totals totales derivados del comprobante.
type Totals struct {
	Taxable decimal.Decimal
	IGV     decimal.Decimal
	Total   decimal.Decimal
}

// ItemInput datos de una línea antes del cálculo.
type ItemInput struct {
	ProductID      string
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	Discount       decimal.Decimal
	TaxAffectation string
	IGVRate        decimal.Decimal
}

var (
	maxIGVRate = decimal.NewFromInt(1)
)

// ValidateItem verifica mínimos y catálogos de una línea. index se usa en el nombre del campo.
func ValidateItem(index int, in ItemInput) error {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", index, name) }
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.NewValidationError(field("quantity"), "debe ser mayor que 0")
	}
	if in.UnitPrice.IsNegative() {
		return domain.NewValidationError(field("unit_price"), "debe ser mayor o igual a 0")
	}
	if in.Discount.IsNegative() {
		return domain.NewValidationError(field("discount"), "debe ser mayor o igual a 0")
	}
	if in.Discount.GreaterThan(in.Quantity.Mul(in.UnitPrice)) {
		return domain.NewValidationError(field("discount"), "no puede superar cantidad × precio")
	}
	if !pkgsunat.ValidTaxAffectations[in.TaxAffectation] {
		return domain.NewValidationError(field("tax_affectation"), "código no reconocido (10, 20, 21, 30)")
	}
	if in.IGVRate.IsNegative() || in.IGVRate.GreaterThan(maxIGVRate) {
		return domain.NewValidationError(field("igv_rate"), "debe estar entre 0 y 1")
	}
	return nil
}

// BuildItem calcula LineTotal e IGVAmount de una línea ya validada.
func BuildItem(in ItemInput) *entity.SunatDocumentItem {
	lineTotal := in.Quantity.Mul(in.UnitPrice).Sub(in.Discount).Round(2)
	igv := decimal.Zero
	if in.TaxAffectation == entity.TaxAffectationGravado {
		igv = lineTotal.Mul(in.IGVRate).Round(2)
	}
	return &entity.SunatDocumentItem{
		ProductID:      in.ProductID,
		Description:    in.Description,
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		Discount:       in.Discount,
		TaxAffectation: in.TaxAffectation,
		IGVRate:        in.IGVRate,
		LineTotal:      lineTotal,
		IGVAmount:      igv,
	}
}

// ComputeTotals suma las líneas según la política.
// En ambas políticas se cumple: Σ LineTotal + Σ IGVAmount == Total.
func ComputeTotals(items []*entity.SunatDocumentItem, policy TaxablePolicy) Totals {
	var taxable, igv, nonTaxable decimal.Decimal
	for _, it := range items {
		igv = igv.Add(it.IGVAmount)
		if policy == PolicyAllLines || it.TaxAffectation == entity.TaxAffectationGravado {
			taxable = taxable.Add(it.LineTotal)
		} else {
			nonTaxable = nonTaxable.Add(it.LineTotal)
		}
	}
	return Totals{
		Taxable: taxable,
		IGV:     igv,
		Total:   taxable.Add(igv).Add(nonTaxable),
	}
}
