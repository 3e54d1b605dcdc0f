package repository

import (
	"database/sql"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
)

type FinancialsRepository struct {
	db *sql.DB
}

func NewFinancialsRepository(db *sql.DB) *FinancialsRepository {
	return &FinancialsRepository{db: db}
}

// UpsertFinancials overwrites the sector's snapshot. No history is kept.
func (r *FinancialsRepository) UpsertFinancials(f model.Financials) error {
	_, err := r.db.Exec(`
		INSERT INTO sector_financials(sector_id, etf_price, price_change_7d, price_change_30d, price_change_ytd, vs_spy_7d, vs_spy_30d, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (sector_id) DO UPDATE SET
			etf_price = EXCLUDED.etf_price,
			price_change_7d = EXCLUDED.price_change_7d,
			price_change_30d = EXCLUDED.price_change_30d,
			price_change_ytd = EXCLUDED.price_change_ytd,
			vs_spy_7d = EXCLUDED.vs_spy_7d,
			vs_spy_30d = EXCLUDED.vs_spy_30d,
			updated_at = now()
	`, f.SectorID, f.ETFPrice, f.Change7D, f.Change30D, f.ChangeYTD, f.VsSPY7D, f.VsSPY30D)
	return err
}

func (r *FinancialsRepository) GetAllFinancials() ([]model.Financials, error) {
	rows, err := r.db.Query(`
		SELECT sector_id, etf_price, price_change_7d, price_change_30d, price_change_ytd, vs_spy_7d, vs_spy_30d, updated_at
		FROM sector_financials
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var financials []model.Financials
	for rows.Next() {
		var f model.Financials
		err := rows.Scan(&f.SectorID, &f.ETFPrice, &f.Change7D, &f.Change30D, &f.ChangeYTD, &f.VsSPY7D, &f.VsSPY30D, &f.UpdatedAt)
		if err != nil {
			return nil, err
		}
		financials = append(financials, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return financials, nil
}

func (r *FinancialsRepository) GetFinancials(sectorID string) (*model.Financials, error) {
	var f model.Financials
	err := r.db.QueryRow(`
		SELECT sector_id, etf_price, price_change_7d, price_change_30d, price_change_ytd, vs_spy_7d, vs_spy_30d, updated_at
		FROM sector_financials
		WHERE sector_id = $1
	`, sectorID).Scan(&f.SectorID, &f.ETFPrice, &f.Change7D, &f.Change30D, &f.ChangeYTD, &f.VsSPY7D, &f.VsSPY30D, &f.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &f, nil
}
