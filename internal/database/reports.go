package database

import "database/sql"

// UpsertEconomyReport inserts or replaces the report for a date. The
// stored used_news_ids always reflects the full set the report text
// covers, not just the delta that triggered regeneration.
func (db *DB) UpsertEconomyReport(r EconomyReport) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO economy_reports (report_date, report_text, news_count, used_news_ids)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(report_date) DO UPDATE SET
			report_text = excluded.report_text,
			news_count = excluded.news_count,
			used_news_ids = excluded.used_news_ids,
			created_at = datetime('now')`,
		r.ReportDate, r.ReportText, r.NewsCount, encodeIDs(r.UsedNewsIDs),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetEconomyReport returns the report for a date, or nil when absent.
func (db *DB) GetEconomyReport(date string) (*EconomyReport, error) {
	row := db.conn.QueryRow(
		`SELECT id, report_date, report_text, news_count, used_news_ids, created_at
		FROM economy_reports WHERE report_date = ?`, date,
	)
	var r EconomyReport
	var ids *string
	if err := row.Scan(&r.ID, &r.ReportDate, &r.ReportText, &r.NewsCount,
		&ids, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.UsedNewsIDs = decodeIDs(ids)
	return &r, nil
}

// ListEconomyReports returns reports newest first, up to limit.
func (db *DB) ListEconomyReports(limit int) ([]EconomyReport, error) {
	rows, err := db.conn.Query(
		`SELECT id, report_date, report_text, news_count, used_news_ids, created_at
		FROM economy_reports ORDER BY report_date DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []EconomyReport
	for rows.Next() {
		var r EconomyReport
		var ids *string
		if err := rows.Scan(&r.ID, &r.ReportDate, &r.ReportText, &r.NewsCount,
			&ids, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.UsedNewsIDs = decodeIDs(ids)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM articles", &s.Articles},
		{"SELECT COUNT(*) FROM papers", &s.Papers},
		{"SELECT COUNT(*) FROM economy_news", &s.EconomyNews},
		{"SELECT COUNT(*) FROM economy_reports", &s.EconomyReports},
		{"SELECT COUNT(*) FROM generated_content", &s.GeneratedContent},
		{"SELECT COUNT(*) FROM bookmarks", &s.Bookmarks},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
