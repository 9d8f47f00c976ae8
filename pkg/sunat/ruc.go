package sunat

import (
	"fmt"
	"unicode"
)

// pesos del módulo 11 para el dígito verificador del RUC (10 primeros dígitos).
var rucWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidateRUC valida longitud, prefijo y dígito verificador de un RUC.
// Acepta separadores ("20-123456789-0"); solo se consideran los dígitos.
func ValidateRUC(ruc string) error {
	digits := extractDigits(ruc)
	if len(digits) != 11 {
		return fmt.Errorf("sunat: RUC debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	switch string(digits[:2]) {
	case "10", "15", "16", "17", "20":
	default:
		return fmt.Errorf("sunat: prefijo de RUC inválido %q", string(digits[:2]))
	}
	expected := checkDigit(digits[:10])
	if digits[10] != expected {
		return fmt.Errorf("sunat: dígito verificador del RUC inválido: esperado %c, recibido %c", expected, digits[10])
	}
	return nil
}

// ComputeRUCCheckDigit calcula el dígito verificador para los 10 primeros dígitos.
func ComputeRUCCheckDigit(base string) (byte, error) {
	digits := extractDigits(base)
	if len(digits) < 10 {
		return 0, fmt.Errorf("sunat: se requieren 10 dígitos, se encontraron %d", len(digits))
	}
	return checkDigit(digits[:10]), nil
}

func checkDigit(base []byte) byte {
	var sum int
	for i, d := range base {
		sum += int(d-'0') * rucWeights[i]
	}
	dv := 11 - sum%11
	switch dv {
	case 10:
		dv = 0
	case 11:
		dv = 1
	}
	return byte('0' + dv)
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
