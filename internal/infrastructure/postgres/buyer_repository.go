package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

var _ ports.BuyerDirectory = (*BuyerRepo)(nil)

// BuyerRepo directorio de compradores leído de la tabla buyers.
type BuyerRepo struct {
	q Querier
}

// NewBuyerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBuyerRepository(q Querier) *BuyerRepo {
	return &BuyerRepo{q: q}
}

// GetBuyers lista los compradores activos, los más recientes primero.
// Si la tabla aún no existe devuelve un directorio vacío.
func (r *BuyerRepo) GetBuyers(ctx context.Context) ([]entity.Buyer, error) {
	query := `
		SELECT id, name, COALESCE(gstin, ''), COALESCE(billing_address, ''), COALESCE(shipping_address, ''),
		       COALESCE(state, ''), COALESCE(state_code, ''), COALESCE(place_of_supply, ''), is_default
		FROM buyers
		WHERE is_active
		ORDER BY created_at DESC, id DESC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		if isUndefinedTable(err) {
			return []entity.Buyer{}, nil
		}
		return nil, fmt.Errorf("list buyers: %w", err)
	}
	buyers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Buyer, error) {
		var b entity.Buyer
		err := row.Scan(&b.ID, &b.Name, &b.GSTIN, &b.Address, &b.ShippingAddress,
			&b.State, &b.StateCode, &b.PlaceOfSupply, &b.IsDefault)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan buyers: %w", err)
	}
	return buyers, nil
}
