package database

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// ArticleFilter narrows ListArticles. Zero values mean "no filter".
type ArticleFilter struct {
	Keyword  string
	Country  string
	Search   string // substring match on title and summary
	MinScore int
	Limit    uint64
	Offset   uint64
}

// InsertArticle inserts an article. Returns the ID on success, 0 if duplicate.
func (db *DB) InsertArticle(a Article) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO articles (url, title, summary, full_text, source, published_date, country, keyword, keywords, validity_score, validity_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.URL, a.Title, a.Summary, a.FullText, a.Source, a.PublishedDate, a.Country,
		a.Keyword, encodeStrings(a.Keywords), a.ValidityScore, a.ValidityReason,
	)
	if err != nil {
		// Duplicate URL constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// ArticleURLExists reports whether an article with this URL is stored.
func (db *DB) ArticleURLExists(url string) (bool, error) {
	return db.urlExists("articles", url)
}

const articleColumns = "id, url, title, summary, full_text, source, published_date, country, keyword, keywords, validity_score, validity_reason, created_at"

// ListArticles returns articles matching the filter, newest first then
// by validity score.
func (db *DB) ListArticles(f ArticleFilter) ([]Article, error) {
	q := sq.Select(strings.Split(articleColumns, ", ")...).
		From("articles").
		OrderBy("created_at DESC", "validity_score DESC")

	if f.Keyword != "" {
		q = q.Where(sq.Eq{"keyword": f.Keyword})
	}
	if f.Country != "" {
		q = q.Where(sq.Eq{"country": f.Country})
	}
	if f.MinScore > 0 {
		q = q.Where(sq.GtOrEq{"validity_score": f.MinScore})
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
		return nil, fmt.Errorf("building article query: %w", err)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// CountArticles returns the number of articles matching the filter.
func (db *DB) CountArticles(f ArticleFilter) (int, error) {
	q := sq.Select("COUNT(*)").From("articles")
	if f.Keyword != "" {
		q = q.Where(sq.Eq{"keyword": f.Keyword})
	}
	if f.Country != "" {
		q = q.Where(sq.Eq{"country": f.Country})
	}
	if f.MinScore > 0 {
		q = q.Where(sq.GtOrEq{"validity_score": f.MinScore})
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where(sq.Or{sq.Like{"title": like}, sq.Like{"summary": like}})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building article count: %w", err)
	}
	var count int
	if err := db.conn.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetArticleByID returns a single article, or nil when absent.
func (db *DB) GetArticleByID(id int64) (*Article, error) {
	row := db.conn.QueryRow(
		"SELECT "+articleColumns+" FROM articles WHERE id = ?", id,
	)
	var a Article
	if err := scanArticle(row, &a); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// GetArticlesByIDs returns the stored articles among the given IDs.
func (db *DB) GetArticlesByIDs(ids []int64) ([]Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sq.Select(strings.Split(articleColumns, ", ")...).
		From("articles").
		Where(sq.Eq{"id": ids}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building article lookup: %w", err)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ArticleKeywords returns distinct keywords with article counts,
// most populated first.
func (db *DB) ArticleKeywords() (map[string]int, error) {
	rows, err := db.conn.Query(
		"SELECT keyword, COUNT(*) FROM articles WHERE keyword IS NOT NULL GROUP BY keyword",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kw string
		var n int
		if err := rows.Scan(&kw, &n); err != nil {
			return nil, err
		}
		counts[kw] = n
	}
	return counts, rows.Err()
}

// DeleteArticlesByIDs removes the given articles in one statement.
func (db *DB) DeleteArticlesByIDs(ids []int64) (int64, error) {
	return db.deleteByIDs("articles", ids)
}

// DeleteAllArticles empties the articles table.
func (db *DB) DeleteAllArticles() (int64, error) {
	return db.deleteAll("articles")
}

func (db *DB) deleteByIDs(table string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sq.Delete(table).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building delete: %w", err)
	}
	result, err := db.conn.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (db *DB) deleteAll(table string) (int64, error) {
	result, err := db.conn.Exec("DELETE FROM " + table)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		var keywords *string
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.Summary, &a.FullText,
			&a.Source, &a.PublishedDate, &a.Country, &a.Keyword, &keywords,
			&a.ValidityScore, &a.ValidityReason, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Keywords = decodeStrings(keywords)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func scanArticle(row *sql.Row, a *Article) error {
	var keywords *string
	err := row.Scan(&a.ID, &a.URL, &a.Title, &a.Summary, &a.FullText,
		&a.Source, &a.PublishedDate, &a.Country, &a.Keyword, &keywords,
		&a.ValidityScore, &a.ValidityReason, &a.CreatedAt)
	if err != nil {
		return err
	}
	a.Keywords = decodeStrings(keywords)
	return nil
}
