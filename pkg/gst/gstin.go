package gst

import (
	"fmt"
	"regexp"
	"strings"
)

// gstinPattern: código de estado (2) + PAN (10) + número de entidad + 'Z' + dígito de control.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

const gstinCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NormalizeGSTIN elimina espacios y pasa a mayúsculas.
func NormalizeGSTIN(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// ValidateGSTIN valida formato y dígito de control (módulo 36) de un GSTIN.
func ValidateGSTIN(gstin string) error {
	g := NormalizeGSTIN(gstin)
	if !gstinPattern.MatchString(g) {
		return fmt.Errorf("gst: GSTIN %q no cumple el formato de 15 caracteres", gstin)
	}
	expected, err := GSTINCheckChar(g[:14])
	if err != nil {
		return err
	}
	if g[14] != expected {
		return fmt.Errorf("gst: dígito de control del GSTIN inválido: esperado %c, recibido %c", expected, g[14])
	}
	return nil
}

// GSTINCheckChar calcula el carácter de control para los 14 primeros caracteres.
// Factores alternos 1,2; cada producto aporta cociente + resto en base 36.
func GSTINCheckChar(first14 string) (byte, error) {
	if len(first14) != 14 {
		return 0, fmt.Errorf("gst: se requieren 14 caracteres, se recibieron %d", len(first14))
	}
	sum := 0
	for i := 0; i < 14; i++ {
		v := strings.IndexByte(gstinCharset, first14[i])
		if v < 0 {
			return 0, fmt.Errorf("gst: carácter inválido %q en GSTIN", first14[i])
		}
		factor := 1
		if i%2 == 1 {
			factor = 2
		}
		p := v * factor
		sum += p/36 + p%36
	}
	return gstinCharset[(36-sum%36)%36], nil
}

// StateCodeFromGSTIN devuelve los dos primeros dígitos (código de estado) o "" si el formato no es válido.
func StateCodeFromGSTIN(gstin string) string {
	g := NormalizeGSTIN(gstin)
	if !gstinPattern.MatchString(g) {
		return ""
	}
	return g[:2]
}
