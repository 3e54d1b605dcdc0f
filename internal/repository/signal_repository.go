package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
)

type SignalRepository struct {
	db *sql.DB
}

func NewSignalRepository(db *sql.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

func (r *SignalRepository) InsertSignals(signals []model.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO sector_signals(article_id, sector_id, summary, signal_type, sentiment, ir_relevance)
		VALUES `)

	args := make([]interface{}, 0, len(signals)*6)
	for i, s := range signals {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, s.ArticleID, s.SectorID, s.Summary, s.SignalType, s.Sentiment, s.IRRelevance)
	}

	_, err := r.db.Exec(sb.String(), args...)
	return err
}

// GetSectorSignals returns one sector's signals within the filter window,
// newest first, joined with their source headlines.
func (r *SignalRepository) GetSectorSignals(sectorID string, filter model.SignalFilter) ([]model.SignalWithArticle, error) {
	filter.SectorID = sectorID
	return r.querySignals(filter)
}

// SearchSignals is the cross-sector variant used by /api/signals.
func (r *SignalRepository) SearchSignals(filter model.SignalFilter) ([]model.SignalWithArticle, error) {
	return r.querySignals(filter)
}

func (r *SignalRepository) querySignals(filter model.SignalFilter) ([]model.SignalWithArticle, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT s.id, s.article_id, s.sector_id, s.summary, s.signal_type, s.sentiment, s.ir_relevance, s.created_at,
			a.title, a.url, COALESCE(a.source, ''), a.published_at
		FROM sector_signals s
		JOIN sector_articles a ON a.id = s.article_id
		WHERE s.created_at >= now() - ($1 * interval '1 day')
			AND s.ir_relevance >= $2
	`)

	days := filter.Days
	if days <= 0 {
		days = 7
	}
	args := []interface{}{days, filter.MinRelevance}

	if filter.SectorID != "" {
		args = append(args, filter.SectorID)
		fmt.Fprintf(&sb, " AND s.sector_id = $%d", len(args))
	}
	if filter.SignalType != "" {
		args = append(args, filter.SignalType)
		fmt.Fprintf(&sb, " AND s.signal_type = $%d", len(args))
	}
	if filter.Sentiment != "" {
		args = append(args, filter.Sentiment)
		fmt.Fprintf(&sb, " AND s.sentiment = $%d", len(args))
	}

	sb.WriteString(" ORDER BY s.created_at DESC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []model.SignalWithArticle
	for rows.Next() {
		var s model.SignalWithArticle
		var publishedAt sql.NullTime
		err := rows.Scan(&s.ID, &s.ArticleID, &s.SectorID, &s.Summary, &s.SignalType, &s.Sentiment,
			&s.IRRelevance, &s.CreatedAt, &s.ArticleTitle, &s.ArticleURL, &s.ArticleSource, &publishedAt)
		if err != nil {
			return nil, err
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			s.ArticlePublishedAt = &t
		}
		signals = append(signals, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return signals, nil
}
