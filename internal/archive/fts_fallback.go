//go:build !sqlite_fts5

package archive

import (
	"database/sql"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; search uses a LIKE fallback on chunks.content.
	return nil
}

func ftsClear(_ *sql.Tx, _ string) error { return nil }

func ftsInsert(_ *sql.Tx, _, _ string, _ int, _ string) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(sessionID, query string, limit int) ([]ChunkHit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT doc_name, idx, content
		FROM chunks
		WHERE session_id = ? AND content LIKE ?
		ORDER BY doc_name, idx
		LIMIT ?
	`, sessionID, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChunkHit
	for rows.Next() {
		var h ChunkHit
		var content string
		if err := rows.Scan(&h.DocName, &h.Index, &content); err != nil {
			return nil, err
		}
		h.Snippet = snippetOf(content)
		out = append(out, h)
	}
	return out, rows.Err()
}
