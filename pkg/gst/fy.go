// Package gst utilidades fiscales de India: GSTIN, año financiero (abril–marzo) y fechas de documento.
package gst

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout formato de fecha de los documentos (ISO, sin hora).
const DateLayout = "2006-01-02"

// ParseDate acepta "YYYY-MM-DD" o un timestamp RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("gst: fecha vacía")
	}
	if strings.Contains(s, "T") {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("gst: fecha inválida %q: %w", s, err)
		}
		return t, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("gst: fecha inválida %q: %w", s, err)
	}
	return t, nil
}

// FinancialYear año financiero indio que contiene t, en formato "2024-25".
func FinancialYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// FinancialYearBounds intervalo semiabierto [from, to) del año financiero de t: desde el 1 de abril
// hasta el 1 de abril siguiente (excluido), válido tanto para columnas DATE como TIMESTAMP.
func FinancialYearBounds(t time.Time) (from, to time.Time) {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	from = time.Date(start, time.April, 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(1, 0, 0)
	return from, to
}
