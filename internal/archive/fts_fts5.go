//go:build sqlite_fts5

package archive

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
			session_id UNINDEXED,
			doc_name UNINDEXED,
			idx UNINDEXED,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsClear(tx *sql.Tx, sessionID string) error {
	if _, err := tx.Exec(`DELETE FROM chunks_fts WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("archive: clear fts: %w", err)
	}
	return nil
}

func ftsInsert(tx *sql.Tx, sessionID, docName string, idx int, content string) error {
	if _, err := tx.Exec(`INSERT INTO chunks_fts (session_id, doc_name, idx, content) VALUES (?, ?, ?, ?)`,
		sessionID, docName, idx, content); err != nil {
		return fmt.Errorf("archive: insert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search over a session's chunks.
func (db *DB) Search(sessionID, query string, limit int) ([]ChunkHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT doc_name,
		       idx,
		       snippet(chunks_fts, 3, '<b>', '</b>', '...', 64)
		FROM chunks_fts
		WHERE chunks_fts MATCH ? AND session_id = ?
		ORDER BY rank
		LIMIT ?
	`, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: search: %w", err)
	}
	defer rows.Close()

	var out []ChunkHit
	for rows.Next() {
		var h ChunkHit
		if err := rows.Scan(&h.DocName, &h.Index, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
