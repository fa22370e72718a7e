package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/pkg/gst"
)

var _ ports.NumberChecker = (*NumberRegistry)(nil)

// NumberRegistry comprueba la unicidad de números de documento dentro del año financiero.
// Facturas y DC son independientes: el mismo número puede existir en ambos.
type NumberRegistry struct {
	q Querier
}

// NewNumberRegistry construye el adaptador.
func NewNumberRegistry(q Querier) *NumberRegistry {
	return &NumberRegistry{q: q}
}

// duplicateQuery consulta por tipo de documento. Los nombres vienen de esta tabla fija, nunca del usuario.
func duplicateQuery(kind ports.DocumentKind) (string, error) {
	switch kind {
	case ports.KindInvoice:
		return `SELECT 1 FROM gst_invoices WHERE invoice_number = $1 AND invoice_date >= $2 AND invoice_date < $3 LIMIT 1`, nil
	case ports.KindDC:
		return `SELECT 1 FROM delivery_challans WHERE dc_number = $1 AND dc_date >= $2 AND dc_date < $3 LIMIT 1`, nil
	default:
		return "", fmt.Errorf("tipo de documento desconocido %q", kind)
	}
}

// CheckDuplicateNumber indica si number ya existe para kind en el año financiero de date.
func (r *NumberRegistry) CheckDuplicateNumber(ctx context.Context, kind ports.DocumentKind, number string, date time.Time) (bool, error) {
	query, err := duplicateQuery(kind)
	if err != nil {
		return false, err
	}
	from, to := gst.FinancialYearBounds(date)
	var one int
	err = r.q.QueryRow(ctx, query, number, from, to).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check duplicate %s %s (FY %s): %w", kind, number, gst.FinancialYear(date), err)
	}
	return true, nil
}
