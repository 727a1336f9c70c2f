// Package testutil provides shared test helpers for setting up chunk
// archives and populated sessions.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/ansuz/internal/archive"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/session"
	"github.com/starford/ansuz/internal/vectorizer"
)

// TestArchive creates a temporary chunk archive that is automatically
// cleaned up.
func TestArchive(t *testing.T) *archive.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := archive.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedSession installs a one-node graph with a fitted scoring model into
// the registry, the minimal state a query can run against.
func SeedSession(t *testing.T, registry *session.Registry, id string) *session.Session {
	t.Helper()
	sess := registry.Create(id)
	g := session.NewGraph()
	g.AddNode("Alpha", models.TypeConcept, "first concept", "doc.txt")
	model, vecs := vectorizer.Fit([]string{"alpha first concept"})
	for i, n := range g.Nodes() {
		n.Embedding = vecs[i]
	}
	sess.Replace(g, []string{"doc.txt"}, model)
	return sess
}
