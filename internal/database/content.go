package database

import "database/sql"

// InsertGeneratedContent stores a content draft.
func (db *DB) InsertGeneratedContent(c GeneratedContent) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO generated_content (content_type, topic, content_text, source_ids)
		VALUES (?, ?, ?, ?)`,
		c.ContentType, c.Topic, c.ContentText, encodeIDs(c.SourceIDs),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListGeneratedContent returns drafts newest first, optionally limited
// to one content type.
func (db *DB) ListGeneratedContent(contentType string, limit int) ([]GeneratedContent, error) {
	query := `SELECT id, content_type, topic, content_text, source_ids, created_at
		FROM generated_content`
	var args []any
	if contentType != "" {
		query += " WHERE content_type = ?"
		args = append(args, contentType)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []GeneratedContent
	for rows.Next() {
		var c GeneratedContent
		var ids *string
		if err := rows.Scan(&c.ID, &c.ContentType, &c.Topic, &c.ContentText,
			&ids, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.SourceIDs = decodeIDs(ids)
		drafts = append(drafts, c)
	}
	return drafts, rows.Err()
}

// GetGeneratedContentByID returns one draft, or nil when absent.
func (db *DB) GetGeneratedContentByID(id int64) (*GeneratedContent, error) {
	row := db.conn.QueryRow(
		`SELECT id, content_type, topic, content_text, source_ids, created_at
		FROM generated_content WHERE id = ?`, id,
	)
	var c GeneratedContent
	var ids *string
	if err := row.Scan(&c.ID, &c.ContentType, &c.Topic, &c.ContentText,
		&ids, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.SourceIDs = decodeIDs(ids)
	return &c, nil
}

// DeleteGeneratedContent removes one draft.
func (db *DB) DeleteGeneratedContent(id int64) error {
	_, err := db.conn.Exec("DELETE FROM generated_content WHERE id = ?", id)
	return err
}
