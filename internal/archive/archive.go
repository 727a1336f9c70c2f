// Package archive provides a SQLite-backed store for the raw chunk text
// produced during ingestion, with optional FTS5 lexical search. The graph
// itself lives in memory; the archive only keeps chunk provenance so
// operators and tools can search the source text behind a session.
package archive

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	session_id  TEXT NOT NULL,
	name        TEXT NOT NULL,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	ingested_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(session_id, name)
);

CREATE TABLE IF NOT EXISTS chunks (
	session_id TEXT NOT NULL,
	doc_name   TEXT NOT NULL,
	idx        INTEGER NOT NULL,
	content    TEXT NOT NULL,
	UNIQUE(session_id, doc_name, idx)
);

CREATE INDEX IF NOT EXISTS idx_chunks_session ON chunks(session_id);
`

// DB wraps a sql.DB with archive-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// ReplaceSession drops every archived row for the session and records the
// given document and its chunks. Mirrors the full-replace semantics of
// graph ingestion: an archive session holds exactly the last ingested
// document.
func (db *DB) ReplaceSession(sessionID, docName string, chunks []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("archive: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM documents WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("archive: clear documents: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM chunks WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("archive: clear chunks: %w", err)
	}
	if err := ftsClear(tx, sessionID); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO documents (session_id, name, chunk_count) VALUES (?, ?, ?)`,
		sessionID, docName, len(chunks)); err != nil {
		return fmt.Errorf("archive: insert document: %w", err)
	}
	for i, content := range chunks {
		if _, err := tx.Exec(`INSERT INTO chunks (session_id, doc_name, idx, content) VALUES (?, ?, ?, ?)`,
			sessionID, docName, i, content); err != nil {
			return fmt.Errorf("archive: insert chunk %d: %w", i, err)
		}
		if err := ftsInsert(tx, sessionID, docName, i, content); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	return nil
}

// Documents returns the archived document names for a session, insertion order.
func (db *DB) Documents(sessionID string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT name FROM documents WHERE session_id = ? ORDER BY rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("archive: documents: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ChunkHit is one lexical search match.
type ChunkHit struct {
	DocName string `json:"doc_name"`
	Index   int    `json:"index"`
	Snippet string `json:"snippet"`
}

// snippetOf truncates content for fallback search results. The cut is in
// runes so a multi-byte character is never split.
func snippetOf(content string) string {
	content = strings.TrimSpace(content)
	if runes := []rune(content); len(runes) > 200 {
		return string(runes[:200])
	}
	return content
}
