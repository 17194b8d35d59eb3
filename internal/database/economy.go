package database

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// EconomyFilter narrows ListEconomyNews. Zero values mean "no filter".
type EconomyFilter struct {
	Category string
	Source   string
	Search   string
	Limit    uint64
	Offset   uint64
}

// InsertEconomyNews inserts an economy item. Returns the ID on success,
// 0 if duplicate.
func (db *DB) InsertEconomyNews(n EconomyNews) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO economy_news (url, title, summary, full_text, source, category, published_date, keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.URL, n.Title, n.Summary, n.FullText, n.Source, n.Category,
		n.PublishedDate, encodeStrings(n.Keywords),
	)
	if err != nil {
		// Duplicate URL constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// EconomyURLExists reports whether an economy item with this URL is stored.
func (db *DB) EconomyURLExists(url string) (bool, error) {
	return db.urlExists("economy_news", url)
}

const economyColumns = "id, url, title, summary, full_text, source, category, published_date, keywords, created_at"

// ListEconomyNews returns economy items matching the filter, newest first.
func (db *DB) ListEconomyNews(f EconomyFilter) ([]EconomyNews, error) {
	q := sq.Select(strings.Split(economyColumns, ", ")...).
		From("economy_news").
		OrderBy("created_at DESC")

	if f.Category != "" {
		q = q.Where(sq.Eq{"category": f.Category})
	}
	if f.Source != "" {
		q = q.Where(sq.Eq{"source": f.Source})
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where(sq.Or{sq.Like{"title": like}, sq.Like{"summary": like}})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building economy query: %w", err)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEconomyNews(rows)
}

// GetEconomyNewsOn returns the items collected on the given date
// (YYYY-MM-DD), for report synthesis. Items from other days never
// enter that day's report.
func (db *DB) GetEconomyNewsOn(date string) ([]EconomyNews, error) {
	rows, err := db.conn.Query(
		"SELECT "+economyColumns+` FROM economy_news
		WHERE date(created_at) = ? ORDER BY category, created_at DESC`, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEconomyNews(rows)
}

// GetEconomyNewsByIDs returns the stored items among the given IDs.
func (db *DB) GetEconomyNewsByIDs(ids []int64) ([]EconomyNews, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sq.Select(strings.Split(economyColumns, ", ")...).
		From("economy_news").
		Where(sq.Eq{"id": ids}).
		OrderBy("category", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building economy lookup: %w", err)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEconomyNews(rows)
}

// GetEconomyNewsByID returns a single economy item, or nil when absent.
func (db *DB) GetEconomyNewsByID(id int64) (*EconomyNews, error) {
	row := db.conn.QueryRow(
		"SELECT "+economyColumns+" FROM economy_news WHERE id = ?", id,
	)
	var n EconomyNews
	var keywords *string
	if err := row.Scan(&n.ID, &n.URL, &n.Title, &n.Summary, &n.FullText,
		&n.Source, &n.Category, &n.PublishedDate, &keywords, &n.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	n.Keywords = decodeStrings(keywords)
	return &n, nil
}

// DeleteEconomyNewsByIDs removes the given items in one statement.
func (db *DB) DeleteEconomyNewsByIDs(ids []int64) (int64, error) {
	return db.deleteByIDs("economy_news", ids)
}

// DeleteAllEconomyNews empties the economy_news table.
func (db *DB) DeleteAllEconomyNews() (int64, error) {
	return db.deleteAll("economy_news")
}

func scanEconomyNews(rows *sql.Rows) ([]EconomyNews, error) {
	var items []EconomyNews
	for rows.Next() {
		var n EconomyNews
		var keywords *string
		if err := rows.Scan(&n.ID, &n.URL, &n.Title, &n.Summary, &n.FullText,
			&n.Source, &n.Category, &n.PublishedDate, &keywords, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Keywords = decodeStrings(keywords)
		items = append(items, n)
	}
	return items, rows.Err()
}
