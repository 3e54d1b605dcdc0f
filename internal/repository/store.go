package repository

import (
	"database/sql"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
)

// Store aggregates the repositories behind one value so the pipeline and
// the mains wire a single dependency.
type Store struct {
	*SectorRepository
	*ArticleRepository
	*SignalRepository
	*FinancialsRepository
	*NarrativeRepository

	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		SectorRepository:     NewSectorRepository(db),
		ArticleRepository:    NewArticleRepository(db),
		SignalRepository:     NewSignalRepository(db),
		FinancialsRepository: NewFinancialsRepository(db),
		NarrativeRepository:  NewNarrativeRepository(db),
		db:                   db,
	}
}

// ClearPipelineData deletes all signals, articles, and narratives so an
// immediately repeated run regenerates from the current headline set.
// Sector and feed reference data stays.
func (s *Store) ClearPipelineData() (model.PurgeStats, error) {
	var stats model.PurgeStats

	res, err := s.db.Exec(`DELETE FROM sector_signals`)
	if err != nil {
		return stats, err
	}
	stats.SignalsDeleted, _ = res.RowsAffected()

	res, err = s.db.Exec(`DELETE FROM sector_articles`)
	if err != nil {
		return stats, err
	}
	stats.ArticlesDeleted, _ = res.RowsAffected()

	res, err = s.db.Exec(`DELETE FROM sector_narratives`)
	if err != nil {
		return stats, err
	}
	stats.NarrativesDeleted, _ = res.RowsAffected()

	return stats, nil
}
