// Package ingest implements the ingestion merger: it chunks a document,
// extracts entities and relationships from every chunk concurrently, and
// folds the results into one deduplicated session graph.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/archive"
	"github.com/starford/ansuz/internal/chunker"
	"github.com/starford/ansuz/internal/events"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/session"
	"github.com/starford/ansuz/internal/vectorizer"
)

// Extractor is the extraction oracle boundary.
type Extractor interface {
	ExtractChunk(ctx context.Context, chunk string) (*models.ChunkExtraction, error)
}

// Broadcaster delivers events to a session's observers.
type Broadcaster interface {
	Broadcast(sessionID string, event any)
}

// Service rebuilds session graphs from ingested documents.
type Service struct {
	registry  *session.Registry
	hub       Broadcaster
	extractor Extractor
	archive   *archive.DB // nil disables chunk archiving
	opts      chunker.Options
	logger    *slog.Logger
}

// NewService creates an ingestion service. archiveDB may be nil.
func NewService(registry *session.Registry, hub Broadcaster, extractor Extractor, archiveDB *archive.DB, opts chunker.Options, logger *slog.Logger) *Service {
	return &Service{
		registry:  registry,
		hub:       hub,
		extractor: extractor,
		archive:   archiveDB,
		opts:      opts,
		logger:    logger,
	}
}

// Run performs one full ingestion for the session: chunk, extract all
// chunks in parallel, fold in chunk order, fit embeddings, and install
// the rebuilt graph. Progress and results are delivered exclusively
// through the event stream. Run blocks until the rebuild finishes;
// callers wanting fire-and-forget semantics schedule it on a goroutine.
func (s *Service) Run(ctx context.Context, sessionID string, content []byte, filename string) {
	sess := s.registry.GetOrCreate(sessionID)

	// One ingestion in flight per session; concurrent requests serialize
	// and the last writer wins.
	release := sess.BeginRebuild()
	defer release()

	s.hub.Broadcast(sessionID, events.NewIngestionStarted(filename))

	text := ExtractText(content, filename)
	chunks := chunker.Split(text, s.opts)
	total := len(chunks)

	s.hub.Broadcast(sessionID, events.NewIngestionProgress(
		fmt.Sprintf("Processing %d chunks in parallel", total), total))

	if s.archive != nil {
		if err := s.archive.ReplaceSession(sessionID, filename, chunks); err != nil {
			s.logger.Warn("chunk archive update failed",
				slog.String("session", sessionID), slog.String("error", err.Error()))
		}
	}

	results := s.extractAll(ctx, sessionID, chunks)

	graph, stats := s.fold(results, filename)
	stats.ChunksProcessed = total

	model := s.embed(graph)
	sess.Replace(graph, []string{filename}, model)

	s.logger.Info("ingestion complete",
		slog.String("session", sessionID),
		slog.String("doc", filename),
		slog.Int("chunks", total),
		slog.Int("entities", stats.Entities),
		slog.Int("relationships", stats.Relationships))

	s.hub.Broadcast(sessionID, events.NewIngestionComplete(stats, graph.NodeViews(), graph.EdgeViews()))
}

// extractAll launches every chunk extraction at once — no concurrency
// cap, no retry; upstream throttling is the oracle's problem. Results
// land at their chunk's index so the later fold is deterministic even
// though completions arrive in any order. A failed chunk stays nil.
func (s *Service) extractAll(ctx context.Context, sessionID string, chunks []string) []*models.ChunkExtraction {
	results := make([]*models.ChunkExtraction, len(chunks))
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := s.extractor.ExtractChunk(gctx, chunk)
			if err != nil {
				s.logger.Warn("chunk extraction failed",
					slog.String("session", sessionID),
					slog.Int("chunk", i),
					slog.String("error", err.Error()))
			} else {
				results[i] = res
			}
			done := int(completed.Add(1))
			s.hub.Broadcast(sessionID, events.NewChunkProcessing(done, len(chunks)))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// fold merges chunk extractions into a fresh graph, in chunk order.
func (s *Service) fold(results []*models.ChunkExtraction, filename string) (*session.Graph, events.IngestionStats) {
	graph := session.NewGraph()
	var stats events.IngestionStats

	for _, data := range results {
		if data == nil {
			continue
		}

		// Entity labels seen in this chunk, raw label -> node id.
		chunkNodeIDs := make(map[string]string)

		for _, ent := range data.Entities {
			label := strings.TrimSpace(ent.Label)
			if label == "" {
				continue
			}
			node, created := graph.AddNode(label, models.ParseEntityType(ent.Type), ent.Description, filename)
			chunkNodeIDs[label] = node.ID
			if created {
				stats.Entities++
			}
		}

		for _, rel := range data.Relationships {
			srcID := resolveEndpoint(graph, chunkNodeIDs, rel.Source)
			tgtID := resolveEndpoint(graph, chunkNodeIDs, rel.Target)
			if srcID == "" || tgtID == "" {
				continue
			}
			label := rel.Label
			if label == "" {
				label = "relates to"
			}
			if _, ok := graph.AddEdge(srcID, tgtID, label, rel.Sentence); ok {
				stats.Relationships++
			}
		}
	}
	return graph, stats
}

// resolveEndpoint maps a relationship endpoint label to a node id,
// checking the current chunk's entities before the whole-session index.
func resolveEndpoint(graph *session.Graph, chunkNodeIDs map[string]string, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	if id, ok := chunkNodeIDs[label]; ok {
		return id
	}
	if id, ok := graph.ResolveLabel(label); ok {
		return id
	}
	return ""
}

// embed runs the embedding pass over the complete node set and returns
// the fitted model. An empty graph yields no model.
func (s *Service) embed(graph *session.Graph) *vectorizer.Vectorizer {
	nodes := graph.Nodes()
	if len(nodes) == 0 {
		return nil
	}
	corpus := make([]string, len(nodes))
	for i, n := range nodes {
		corpus[i] = n.Label + " " + n.Description
	}
	model, vectors := vectorizer.Fit(corpus)
	for i, n := range nodes {
		n.Embedding = vectors[i]
	}
	return model
}
