package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
)

type NarrativeRepository struct {
	db *sql.DB
}

func NewNarrativeRepository(db *sql.DB) *NarrativeRepository {
	return &NarrativeRepository{db: db}
}

func (r *NarrativeRepository) InsertNarrative(n *model.Narrative) error {
	return r.db.QueryRow(`
		INSERT INTO sector_narratives(sector_id, summary_short, summary_full, key_themes, ir_talking_points, sentiment, signal_count)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, n.SectorID, n.SummaryShort, n.SummaryFull, pq.Array(n.KeyThemes), pq.Array(n.IRTalkingPoints),
		n.Sentiment, n.SignalCount).Scan(&n.ID, &n.CreatedAt)
}

func (r *NarrativeRepository) GetLatestNarrative(sectorID string) (*model.Narrative, error) {
	var n model.Narrative
	err := r.db.QueryRow(`
		SELECT id, sector_id, summary_short, summary_full, key_themes, ir_talking_points, sentiment, signal_count, created_at
		FROM sector_narratives
		WHERE sector_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, sectorID).Scan(&n.ID, &n.SectorID, &n.SummaryShort, &n.SummaryFull,
		pq.Array(&n.KeyThemes), pq.Array(&n.IRTalkingPoints), &n.Sentiment, &n.SignalCount, &n.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &n, nil
}

// GetAllLatestNarratives returns the most recent narrative per sector.
func (r *NarrativeRepository) GetAllLatestNarratives() (map[string]model.Narrative, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT ON (sector_id)
			id, sector_id, summary_short, summary_full, key_themes, ir_talking_points, sentiment, signal_count, created_at
		FROM sector_narratives
		ORDER BY sector_id, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[string]model.Narrative)
	for rows.Next() {
		var n model.Narrative
		err := rows.Scan(&n.ID, &n.SectorID, &n.SummaryShort, &n.SummaryFull,
			pq.Array(&n.KeyThemes), pq.Array(&n.IRTalkingPoints), &n.Sentiment, &n.SignalCount, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		latest[n.SectorID] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return latest, nil
}
