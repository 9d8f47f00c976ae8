package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// ErrMissingExternalID el payload de SUNAT no trae id; sin clave de correlación no se concilia.
	ErrMissingExternalID = fmt.Errorf("%w: payload sin id externo", ErrInvalidInput)
	// ErrProtectedReference se intenta borrar un registro referenciado por un comprobante.
	ErrProtectedReference = errors.New("el registro está referenciado por comprobantes y no puede eliminarse")
	// ErrInvalidTransition cambio de estado no permitido (solo PENDING admite transiciones).
	ErrInvalidTransition = fmt.Errorf("%w: transición de estado no permitida", ErrConflict)
	// ErrDataIntegrity invariante de datos rota (ej: dos envíos ACCEPTED para el mismo comprobante).
	ErrDataIntegrity = errors.New("violación de integridad de datos")
)

// ValidationError describe qué campo falló y qué restricción violó.
// errors.Is(err, ErrInvalidInput) es true para cualquier ValidationError.
type ValidationError struct {
	Field      string
	Constraint string
}

// NewValidationError construye el error para un campo y restricción.
func NewValidationError(field, constraint string) *ValidationError {
	return &ValidationError{Field: field, Constraint: constraint}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Constraint
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Constraint)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
