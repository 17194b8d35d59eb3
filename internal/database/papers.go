package database

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// PaperFilter narrows ListPapers. Zero values mean "no filter".
type PaperFilter struct {
	Keyword  string
	Journal  string
	Search   string
	MinScore int
	Limit    uint64
	Offset   uint64
}

// InsertPaper inserts a paper. Returns the ID on success, 0 if duplicate.
func (db *DB) InsertPaper(p Paper) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO papers (url, title, abstract, authors, journal, published_date, keyword, keywords, validity_score, validity_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.URL, p.Title, p.Abstract, encodeStrings(p.Authors), p.Journal,
		p.PublishedDate, p.Keyword, encodeStrings(p.Keywords),
		p.ValidityScore, p.ValidityReason,
	)
	if err != nil {
		// Duplicate URL constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// PaperURLExists reports whether a paper with this URL is stored.
func (db *DB) PaperURLExists(url string) (bool, error) {
	return db.urlExists("papers", url)
}

const paperColumns = "id, url, title, abstract, authors, journal, published_date, keyword, keywords, validity_score, validity_reason, created_at"

// ListPapers returns papers matching the filter, newest first then by
// validity score.
func (db *DB) ListPapers(f PaperFilter) ([]Paper, error) {
	q := sq.Select(strings.Split(paperColumns, ", ")...).
		From("papers").
		OrderBy("created_at DESC", "validity_score DESC")

	if f.Keyword != "" {
		q = q.Where(sq.Eq{"keyword": f.Keyword})
	}
	if f.Journal != "" {
		q = q.Where(sq.Eq{"journal": f.Journal})
	}
	if f.MinScore > 0 {
		q = q.Where(sq.GtOrEq{"validity_score": f.MinScore})
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where(sq.Or{sq.Like{"title": like}, sq.Like{"abstract": like}})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building paper query: %w", err)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPapers(rows)
}

// GetPaperByID returns a single paper, or nil when absent.
func (db *DB) GetPaperByID(id int64) (*Paper, error) {
	row := db.conn.QueryRow(
		"SELECT "+paperColumns+" FROM papers WHERE id = ?", id,
	)
	p, err := scanPaperRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPapersByIDs returns the stored papers among the given IDs.
func (db *DB) GetPapersByIDs(ids []int64) ([]Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sq.Select(strings.Split(paperColumns, ", ")...).
		From("papers").
		Where(sq.Eq{"id": ids}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building paper lookup: %w", err)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPapers(rows)
}

// PaperJournals returns distinct journal names with paper counts.
func (db *DB) PaperJournals() (map[string]int, error) {
	rows, err := db.conn.Query(
		"SELECT journal, COUNT(*) FROM papers WHERE journal IS NOT NULL GROUP BY journal",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var j string
		var n int
		if err := rows.Scan(&j, &n); err != nil {
			return nil, err
		}
		counts[j] = n
	}
	return counts, rows.Err()
}

// DeletePapersByIDs removes the given papers in one statement.
func (db *DB) DeletePapersByIDs(ids []int64) (int64, error) {
	return db.deleteByIDs("papers", ids)
}

// DeleteAllPapers empties the papers table.
func (db *DB) DeleteAllPapers() (int64, error) {
	return db.deleteAll("papers")
}

func scanPapers(rows *sql.Rows) ([]Paper, error) {
	var papers []Paper
	for rows.Next() {
		var p Paper
		var authors, keywords *string
		if err := rows.Scan(&p.ID, &p.URL, &p.Title, &p.Abstract, &authors,
			&p.Journal, &p.PublishedDate, &p.Keyword, &keywords,
			&p.ValidityScore, &p.ValidityReason, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Authors = decodeStrings(authors)
		p.Keywords = decodeStrings(keywords)
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func scanPaperRow(row *sql.Row) (*Paper, error) {
	var p Paper
	var authors, keywords *string
	if err := row.Scan(&p.ID, &p.URL, &p.Title, &p.Abstract, &authors,
		&p.Journal, &p.PublishedDate, &p.Keyword, &keywords,
		&p.ValidityScore, &p.ValidityReason, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Authors = decodeStrings(authors)
	p.Keywords = decodeStrings(keywords)
	return &p, nil
}
