package sunat

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Vocabulario de estados que devuelve APISUNAT.
const (
	ExternalStatusAceptado  = "ACEPTADO"
	ExternalStatusRechazado = "RECHAZADO"
	ExternalStatusExcepcion = "EXCEPCION"
)

// Estados locales de un envío (espejo de entity.SubmissionStatus*; pkg no depende de internal).
const (
	StatusPending   = "PENDING"
	StatusAccepted  = "ACCEPTED"
	StatusRejected  = "REJECTED"
	StatusException = "EXCEPTION"
)

// NormalizeExternalStatus pasa a mayúsculas y elimina tildes ("Excepción" -> "EXCEPCION").
func NormalizeExternalStatus(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ToUpper(folded)
}

// MapExternalStatus traduce el estado de SUNAT al estado local.
// Cualquier valor no reconocido (incluido vacío) queda en PENDING: sigue en vuelo, no es error.
func MapExternalStatus(s string) string {
	switch NormalizeExternalStatus(s) {
	case ExternalStatusAceptado:
		return StatusAccepted
	case ExternalStatusRechazado:
		return StatusRejected
	case ExternalStatusExcepcion:
		return StatusException
	default:
		return StatusPending
	}
}
