package database

// AddBookmark pins an item. Re-adding an existing bookmark is a no-op.
func (db *DB) AddBookmark(itemType string, itemID int64) error {
	_, err := db.conn.Exec(
		"INSERT OR IGNORE INTO bookmarks (item_type, item_id) VALUES (?, ?)",
		itemType, itemID,
	)
	return err
}

// RemoveBookmark unpins an item.
func (db *DB) RemoveBookmark(itemType string, itemID int64) error {
	_, err := db.conn.Exec(
		"DELETE FROM bookmarks WHERE item_type = ? AND item_id = ?",
		itemType, itemID,
	)
	return err
}

// IsBookmarked reports whether an item is pinned.
func (db *DB) IsBookmarked(itemType string, itemID int64) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM bookmarks WHERE item_type = ? AND item_id = ?",
		itemType, itemID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListBookmarks returns all bookmarks newest first.
func (db *DB) ListBookmarks() ([]Bookmark, error) {
	rows, err := db.conn.Query(
		"SELECT id, item_type, item_id, created_at FROM bookmarks ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.ItemType, &b.ItemID, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}
