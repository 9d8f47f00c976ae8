package sunat

import (
	"errors"
	"fmt"

	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

// ErrInvalidDocument agrupa errores de coherencia del comprobante.
var ErrInvalidDocument = errors.New("comprobante inválido para SUNAT")

// ValidateDocumentTotals comprueba que la cabecera coincida con los totales derivados de los ítems.
// Se usa antes de persistir: un comprobante nunca se guarda con totales incoherentes.
func ValidateDocumentTotals(doc *entity.SunatDocument, items []*entity.SunatDocumentItem, policy TaxablePolicy) error {
	if doc == nil {
		return fmt.Errorf("%w: comprobante nulo", ErrInvalidDocument)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: debe tener al menos un ítem", ErrInvalidDocument)
	}
	var errs []error
	want := ComputeTotals(items, policy)
	if !doc.TotalTaxable.Equal(want.Taxable) {
		errs = append(errs, fmt.Errorf("total_taxable (%s) no coincide con la suma de ítems (%s)", doc.TotalTaxable, want.Taxable))
	}
	if !doc.TotalIGV.Equal(want.IGV) {
		errs = append(errs, fmt.Errorf("total_igv (%s) no coincide con la suma de IGV por ítem (%s)", doc.TotalIGV, want.IGV))
	}
	if !doc.Total.Equal(want.Total) {
		errs = append(errs, fmt.Errorf("total (%s) no coincide con lo esperado (%s)", doc.Total, want.Total))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidDocument}, errs...)...)
	}
	return nil
}
