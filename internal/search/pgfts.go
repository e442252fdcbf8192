package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs full-text search over the active version's translations.
// The 'simple' configuration matches the expression index and avoids
// language-specific stemming, since the corpus is multilingual.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	const tsQuery = "plainto_tsquery('simple', $1)"
	args := []any{q.Text}
	argN := 2

	where := "to_tsvector('simple', tt.name || ' ' || tt.description) @@ " + tsQuery
	if q.FilterLanguage != "" {
		where += fmt.Sprintf(" AND tt.language_code = $%d", argN)
		args = append(args, q.FilterLanguage)
		argN++
	}
	if q.FilterCategoryID != "" {
		where += fmt.Sprintf(" AND t.category_id = $%d", argN)
		args = append(args, q.FilterCategoryID)
		argN++
	}

	base := fmt.Sprintf(`
		FROM terms t
		JOIN term_versions tv ON tv.id = t.active_version_id
		JOIN term_translations tt ON tt.version_id = tv.id
		WHERE %s`, where)

	countSQL := "SELECT count(*) " + base

	dataSQL := fmt.Sprintf(`
		SELECT term_id, identifier, language_code, name, snippet, category_id
		FROM (
			SELECT t.id AS term_id, t.identifier, tt.language_code, tt.name,
				ts_headline('simple', tt.description, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				COALESCE(t.category_id, '') AS category_id,
				ts_rank(to_tsvector('simple', tt.name || ' ' || tt.description), %s) AS rank
			%s
		) sub
		ORDER BY rank DESC, identifier, language_code
		LIMIT %d OFFSET %d`, tsQuery, tsQuery, base, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.TermID, &r.Identifier, &r.LanguageCode, &r.Name, &r.Snippet, &r.CategoryID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.ID = RecordID(r.TermID, r.LanguageCode)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all active translations for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]TermRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT t.id, t.identifier, tt.language_code, tt.name, tt.description, COALESCE(t.category_id, '')
		FROM terms t
		JOIN term_versions tv ON tv.id = t.active_version_id
		JOIN term_translations tt ON tt.version_id = tv.id
	`)
	if err != nil {
		return nil, fmt.Errorf("load term records: %w", err)
	}
	defer rows.Close()

	records := make([]TermRecord, 0)
	for rows.Next() {
		var rec TermRecord
		if err := rows.Scan(&rec.TermID, &rec.Identifier, &rec.LanguageCode, &rec.Name, &rec.Description, &rec.CategoryID); err != nil {
			return nil, fmt.Errorf("scan term record: %w", err)
		}
		rec.ID = RecordID(rec.TermID, rec.LanguageCode)
		records = append(records, rec)
	}
	return records, rows.Err()
}
