package session

import (
	"sync"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/vectorizer"
)

// Session is the isolated graph, document list, and fitted embedding model
// belonging to one conversation.
//
// Rebuild isolation: an ingestion run builds a complete replacement Graph
// off to the side and installs it atomically with Replace, so readers
// always observe a complete graph, never a partially rebuilt one. The
// rebuild mutex (BeginRebuild) additionally guarantees at most one
// ingestion in flight per session.
type Session struct {
	id string

	rebuildMu sync.Mutex // held for a whole ingestion rebuild

	mu        sync.RWMutex // guards the fields below
	graph     *Graph
	documents []string
	model     *vectorizer.Vectorizer
}

func newSession(id string) *Session {
	return &Session{id: id, graph: NewGraph()}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// BeginRebuild acquires the per-session rebuild lock and returns the
// release function. Concurrent ingestion requests for the same session
// serialize here; last writer wins.
func (s *Session) BeginRebuild() func() {
	s.rebuildMu.Lock()
	return s.rebuildMu.Unlock
}

// Replace installs a rebuilt graph, document list, and fitted model,
// discarding all prior state (full-replace semantics).
func (s *Session) Replace(g *Graph, documents []string, model *vectorizer.Vectorizer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = g
	s.documents = documents
	s.model = model
}

// Retrieval returns the current graph and fitted model. The graph is
// immutable once installed, so callers may use it without further locking.
// The model is nil until the first embedding pass completes.
func (s *Session) Retrieval() (*Graph, *vectorizer.Vectorizer) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph, s.model
}

// HasNodes reports whether the session's graph is non-empty.
func (s *Session) HasNodes() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.NodeCount() > 0
}

// Snapshot returns the external view of the session's current state.
func (s *Session) Snapshot() models.GraphView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.documents
	if docs == nil {
		docs = []string{}
	}
	return models.GraphView{
		SessionID: s.id,
		Nodes:     s.graph.NodeViews(),
		Edges:     s.graph.EdgeViews(),
		Documents: docs,
	}
}
