package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

var _ ports.SettingsSource = (*SettingsRepo)(nil)

// SettingsRepo lee la tabla clave/valor settings.
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepository construye el adaptador.
func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

// GetSettings devuelve la configuración de la organización; sin tabla, configuración vacía.
func (r *SettingsRepo) GetSettings(ctx context.Context) (entity.OrgSettings, error) {
	rows, err := r.q.Query(ctx, `SELECT key, COALESCE(value, '') FROM settings`)
	if err != nil {
		if isUndefinedTable(err) {
			return entity.OrgSettings{}, nil
		}
		return entity.OrgSettings{}, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return entity.OrgSettings{}, fmt.Errorf("scan setting: %w", err)
		}
		m[k] = v
	}
	if err := rows.Err(); err != nil {
		return entity.OrgSettings{}, fmt.Errorf("rows settings: %w", err)
	}
	return entity.SettingsFromMap(m), nil
}
