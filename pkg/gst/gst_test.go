package gst_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-desk/pkg/gst"
)

func TestValidateGSTIN(t *testing.T) {
	valid := []string{"27AAPFU0939F1ZV", "29AAGCB7383J1Z4", " 33aaach7409r1z8 "}
	for _, g := range valid {
		assert.NoError(t, gst.ValidateGSTIN(g), g)
	}

	assert.Error(t, gst.ValidateGSTIN("27AAPFU0939F1ZX"), "dígito de control incorrecto")
	assert.Error(t, gst.ValidateGSTIN("27AAPFU0939F1Z"), "longitud")
	assert.Error(t, gst.ValidateGSTIN(""), "vacío")
}

func TestGSTINCheckChar(t *testing.T) {
	c, err := gst.GSTINCheckChar("27AAPFU0939F1Z")
	require.NoError(t, err)
	assert.Equal(t, byte('V'), c)

	_, err = gst.GSTINCheckChar("corto")
	assert.Error(t, err)
}

func TestStateCodeFromGSTIN(t *testing.T) {
	assert.Equal(t, "29", gst.StateCodeFromGSTIN("29AAGCB7383J1Z4"))
	assert.Equal(t, "", gst.StateCodeFromGSTIN("no-es-gstin"))
}

func TestFinancialYear(t *testing.T) {
	cases := map[string]string{
		"2024-04-01": "2024-25",
		"2025-03-31": "2024-25",
		"2025-01-15": "2024-25",
		"1999-12-31": "1999-00",
	}
	for in, want := range cases {
		d, err := gst.ParseDate(in)
		require.NoError(t, err)
		assert.Equal(t, want, gst.FinancialYear(d), in)
	}
}

func TestFinancialYearBounds(t *testing.T) {
	from, to := gst.FinancialYearBounds(time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-04-01", from.Format(gst.DateLayout))
	assert.Equal(t, "2025-04-01", to.Format(gst.DateLayout), "límite superior excluido")

	// un documento del 31 de marzo a última hora sigue dentro del año
	late := time.Date(2025, time.March, 31, 23, 59, 0, 0, time.UTC)
	assert.True(t, !late.Before(from) && late.Before(to))
	next := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, next.Before(to))
}

func TestParseDate(t *testing.T) {
	_, err := gst.ParseDate("2024-13-01")
	assert.Error(t, err)

	d, err := gst.ParseDate("2024-06-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
}
