package ingest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/chunker"
	"github.com/starford/ansuz/internal/events"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/session"
)

// recordHub captures broadcasts synchronously, in call order.
type recordHub struct {
	mu     sync.Mutex
	events []any
}

func (h *recordHub) Broadcast(_ string, event any) {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
}

func (h *recordHub) all() []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]any(nil), h.events...)
}

// scriptedExtractor returns a canned extraction for each chunk containing
// one of its marker substrings; chunks with no marker fail.
type scriptedExtractor struct {
	script map[string]*models.ChunkExtraction
	delay  func(chunk string) time.Duration
}

func (e *scriptedExtractor) ExtractChunk(_ context.Context, chunk string) (*models.ChunkExtraction, error) {
	if e.delay != nil {
		time.Sleep(e.delay(chunk))
	}
	for marker, result := range e.script {
		if strings.Contains(chunk, marker) {
			return result, nil
		}
	}
	return nil, io.ErrUnexpectedEOF
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func extractionAB() *models.ChunkExtraction {
	return &models.ChunkExtraction{
		Entities: []models.ExtractedEntity{
			{Label: "Alpha", Type: "CONCEPT", Description: "The first concept."},
			{Label: "Beta", Type: "TERM", Description: "The second concept."},
		},
		Relationships: []models.ExtractedRelationship{
			{Source: "Alpha", Target: "Beta", Label: "defines", Sentence: "Alpha defines Beta."},
		},
	}
}

func extractionBC() *models.ChunkExtraction {
	return &models.ChunkExtraction{
		Entities: []models.ExtractedEntity{
			{Label: "beta", Type: "TERM", Description: "Duplicate of Beta."},
			{Label: "Gamma", Type: "CONCEPT", Description: "The third concept."},
		},
		Relationships: []models.ExtractedRelationship{
			{Source: "beta", Target: "Gamma", Label: "uses", Sentence: "Beta uses Gamma."},
		},
	}
}

func TestFold_MergeDedup(t *testing.T) {
	svc := NewService(session.NewRegistry(), &recordHub{}, nil, nil, chunker.DefaultOptions(), testLogger())

	graph, stats := svc.fold([]*models.ChunkExtraction{extractionAB(), extractionBC()}, "doc.txt")

	if graph.NodeCount() != 3 {
		t.Fatalf("nodes = %d, want 3", graph.NodeCount())
	}
	if graph.EdgeCount() != 2 {
		t.Fatalf("edges = %d, want 2", graph.EdgeCount())
	}
	if stats.Entities != 3 || stats.Relationships != 2 {
		t.Errorf("stats = %+v", stats)
	}

	wantCounts := map[string]int{"alpha": 1, "beta": 2, "gamma": 1}
	for _, n := range graph.Nodes() {
		if got := n.ConnectionCount; got != wantCounts[session.NormalizeLabel(n.Label)] {
			t.Errorf("node %s: connection count = %d, want %d", n.Label, got, wantCounts[session.NormalizeLabel(n.Label)])
		}
	}

	// First occurrence wins: "beta" in chunk 2 must not replace Beta.
	id, _ := graph.ResolveLabel("Beta")
	node, _ := graph.Node(id)
	if node.Label != "Beta" || node.Description != "The second concept." {
		t.Errorf("beta node overwritten: %+v", node)
	}
}

func TestFold_SkipsNilAndUnresolvable(t *testing.T) {
	svc := NewService(session.NewRegistry(), &recordHub{}, nil, nil, chunker.DefaultOptions(), testLogger())

	broken := &models.ChunkExtraction{
		Entities: []models.ExtractedEntity{
			{Label: "Solo", Type: "CONCEPT", Description: "Only entity."},
			{Label: "", Type: "CONCEPT", Description: "blank label dropped"},
		},
		Relationships: []models.ExtractedRelationship{
			{Source: "Solo", Target: "Ghost", Label: "uses"},  // unresolved target
			{Source: "Solo", Target: "solo", Label: "loops"},  // resolves to itself
			{Source: "Phantom", Target: "Solo", Label: "has"}, // unresolved source
		},
	}

	graph, stats := svc.fold([]*models.ChunkExtraction{nil, broken}, "doc.txt")
	if graph.NodeCount() != 1 {
		t.Errorf("nodes = %d, want 1", graph.NodeCount())
	}
	if graph.EdgeCount() != 0 || stats.Relationships != 0 {
		t.Errorf("edges = %d, stats = %+v, want none", graph.EdgeCount(), stats)
	}
}

func TestFold_UnknownTypeFallsBackToConcept(t *testing.T) {
	svc := NewService(session.NewRegistry(), &recordHub{}, nil, nil, chunker.DefaultOptions(), testLogger())
	graph, _ := svc.fold([]*models.ChunkExtraction{{
		Entities: []models.ExtractedEntity{{Label: "Odd", Type: "WIDGET", Description: "?"}},
	}}, "doc.txt")

	id, _ := graph.ResolveLabel("Odd")
	node, _ := graph.Node(id)
	if node.Type != models.TypeConcept {
		t.Errorf("type = %s, want CONCEPT", node.Type)
	}
}

func TestRun_RebuildsSessionAndEmitsSequence(t *testing.T) {
	registry := session.NewRegistry()
	hub := &recordHub{}

	// Two chunks; the second completes first to prove the fold stays in
	// chunk order regardless of completion order.
	extractor := &scriptedExtractor{
		script: map[string]*models.ChunkExtraction{
			"FIRST":  extractionAB(),
			"SECOND": extractionBC(),
		},
		delay: func(chunk string) time.Duration {
			if strings.Contains(chunk, "FIRST") {
				return 80 * time.Millisecond
			}
			return 0
		},
	}

	opts := chunker.Options{ChunkSize: 120, Overlap: 10, MinLength: 20}
	svc := NewService(registry, hub, extractor, nil, opts, testLogger())

	text := "FIRST " + strings.Repeat("alpha beta filler text. ", 5) +
		"SECOND " + strings.Repeat("beta gamma filler text. ", 5)
	svc.Run(context.Background(), "s1", []byte(text), "doc.txt")

	sess, ok := registry.Get("s1")
	if !ok {
		t.Fatal("session not created")
	}
	graph, model := sess.Retrieval()
	if graph.NodeCount() != 3 {
		t.Fatalf("nodes = %d, want 3 (Alpha, Beta, Gamma)", graph.NodeCount())
	}
	if model == nil {
		t.Fatal("embedding model not installed")
	}
	for _, n := range graph.Nodes() {
		if len(n.Embedding) == 0 {
			t.Errorf("node %s has no embedding", n.Label)
		}
	}

	snap := sess.Snapshot()
	if len(snap.Documents) != 1 || snap.Documents[0] != "doc.txt" {
		t.Errorf("documents = %v", snap.Documents)
	}

	// Event sequence: started, progress, one chunk_processing per chunk,
	// complete.
	evs := hub.all()
	if len(evs) < 4 {
		t.Fatalf("events = %d, want at least 4", len(evs))
	}
	if _, ok := evs[0].(events.IngestionStarted); !ok {
		t.Errorf("first event = %T", evs[0])
	}
	progress, ok := evs[1].(events.IngestionProgress)
	if !ok {
		t.Fatalf("second event = %T", evs[1])
	}
	chunkEvents := 0
	for _, ev := range evs[2 : len(evs)-1] {
		cp, ok := ev.(events.ChunkProcessing)
		if !ok {
			t.Fatalf("mid event = %T", ev)
		}
		chunkEvents++
		if cp.Total != progress.TotalChunks {
			t.Errorf("chunk total = %d, want %d", cp.Total, progress.TotalChunks)
		}
	}
	if chunkEvents != progress.TotalChunks {
		t.Errorf("chunk events = %d, want %d", chunkEvents, progress.TotalChunks)
	}
	complete, ok := evs[len(evs)-1].(events.IngestionComplete)
	if !ok {
		t.Fatalf("last event = %T", evs[len(evs)-1])
	}
	if complete.Stats.Entities != 3 || complete.Stats.Relationships != 2 {
		t.Errorf("stats = %+v", complete.Stats)
	}
	if complete.Stats.ChunksProcessed != progress.TotalChunks {
		t.Errorf("chunks processed = %d, want %d", complete.Stats.ChunksProcessed, progress.TotalChunks)
	}
	if len(complete.Nodes) != 3 || len(complete.Edges) != 2 {
		t.Errorf("complete carries %d nodes %d edges", len(complete.Nodes), len(complete.Edges))
	}
}

func TestRun_FailedChunksContributeNothing(t *testing.T) {
	registry := session.NewRegistry()
	hub := &recordHub{}
	// Only the FIRST chunk extracts; everything else errors out.
	extractor := &scriptedExtractor{
		script: map[string]*models.ChunkExtraction{"FIRST": extractionAB()},
	}
	opts := chunker.Options{ChunkSize: 120, Overlap: 10, MinLength: 20}
	svc := NewService(registry, hub, extractor, nil, opts, testLogger())

	text := "FIRST " + strings.Repeat("alpha beta filler text. ", 5) +
		"SECOND " + strings.Repeat("beta gamma filler text. ", 5)
	svc.Run(context.Background(), "s1", []byte(text), "doc.txt")

	sess, _ := registry.Get("s1")
	graph, _ := sess.Retrieval()
	if graph.NodeCount() != 2 {
		t.Errorf("nodes = %d, want 2 (failed chunk skipped)", graph.NodeCount())
	}
}

func TestRun_ReplacesPriorGraph(t *testing.T) {
	registry := session.NewRegistry()
	hub := &recordHub{}
	extractor := &scriptedExtractor{
		script: map[string]*models.ChunkExtraction{"FIRST": extractionAB()},
	}
	opts := chunker.Options{ChunkSize: 200, Overlap: 10, MinLength: 20}
	svc := NewService(registry, hub, extractor, nil, opts, testLogger())

	text := "FIRST " + strings.Repeat("alpha beta filler text. ", 5)
	svc.Run(context.Background(), "s1", []byte(text), "one.txt")
	svc.Run(context.Background(), "s1", []byte(text), "two.txt")

	sess, _ := registry.Get("s1")
	snap := sess.Snapshot()
	if len(snap.Documents) != 1 || snap.Documents[0] != "two.txt" {
		t.Errorf("documents = %v, want [two.txt] (full replace)", snap.Documents)
	}
	if len(snap.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(snap.Nodes))
	}
	for _, n := range snap.Nodes {
		if n.SourceDoc != "two.txt" {
			t.Errorf("node %s source = %s, want two.txt", n.Label, n.SourceDoc)
		}
	}
}
