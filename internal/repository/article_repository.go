package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
)

type ArticleRepository struct {
	db *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// GetExistingURLs batch-checks which of the given URLs are already stored.
func (r *ArticleRepository) GetExistingURLs(urls []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(urls) == 0 {
		return existing, nil
	}

	rows, err := r.db.Query(`
		SELECT url FROM sector_articles WHERE url = ANY($1)
	`, pq.Array(urls))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		existing[url] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return existing, nil
}

// InsertArticles inserts a batch in one statement, skipping URL duplicates
// via ON CONFLICT. Only rows actually inserted are returned, with their
// generated ids attached.
func (r *ArticleRepository) InsertArticles(articles []model.Article) ([]model.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO sector_articles(sector_id, feed_id, title, url, source, published_at)
		VALUES `)

	args := make([]interface{}, 0, len(articles)*6)
	for i, a := range articles {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6)

		var publishedAt sql.NullTime
		if a.PublishedAt != nil {
			publishedAt = sql.NullTime{Time: *a.PublishedAt, Valid: true}
		}
		args = append(args, a.SectorID, a.FeedID, a.Title, a.URL, a.Source, publishedAt)
	}

	sb.WriteString(`
		ON CONFLICT (url) DO NOTHING
		RETURNING id, url`)

	rows, err := r.db.Query(sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byURL := make(map[string]model.Article, len(articles))
	for _, a := range articles {
		byURL[a.URL] = a
	}

	var inserted []model.Article
	for rows.Next() {
		var id, url string
		if err := rows.Scan(&id, &url); err != nil {
			return nil, err
		}
		a := byURL[url]
		a.ID = id
		inserted = append(inserted, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return inserted, nil
}
