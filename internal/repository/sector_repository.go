package repository

import (
	"database/sql"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
)

type SectorRepository struct {
	db *sql.DB
}

func NewSectorRepository(db *sql.DB) *SectorRepository {
	return &SectorRepository{db: db}
}

func (r *SectorRepository) GetSectors() ([]model.Sector, error) {
	rows, err := r.db.Query(`
		SELECT id, name, gics_code, etf_ticker
		FROM sectors
		ORDER BY gics_code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sectors []model.Sector
	for rows.Next() {
		var s model.Sector
		if err := rows.Scan(&s.ID, &s.Name, &s.GICSCode, &s.ETFTicker); err != nil {
			return nil, err
		}
		sectors = append(sectors, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sectors, nil
}

func (r *SectorRepository) GetSector(id string) (*model.Sector, error) {
	var s model.Sector
	err := r.db.QueryRow(`
		SELECT id, name, gics_code, etf_ticker
		FROM sectors
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.GICSCode, &s.ETFTicker)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *SectorRepository) GetSectorFeeds(sectorID string) ([]model.Feed, error) {
	rows, err := r.db.Query(`
		SELECT id, sector_id, query, active
		FROM sector_feeds
		WHERE sector_id = $1 AND active = true
	`, sectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []model.Feed
	for rows.Next() {
		var f model.Feed
		if err := rows.Scan(&f.ID, &f.SectorID, &f.Query, &f.Active); err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return feeds, nil
}
