// Package query implements the retrieval engine: it scores graph nodes
// against a question, expands outward from the best matches with a
// bounded breadth-first traversal, and streams the evidence trail plus a
// generated answer to the session's observers.
package query

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/events"
	"github.com/starford/ansuz/internal/session"
	"github.com/starford/ansuz/internal/vectorizer"
)

// Traversal bounds. The engine favors a small, explainable evidence trail
// over exhaustive recall.
const (
	maxSeeds       = 5
	fallbackSeeds  = 3
	maxHops        = 2
	maxPerFrontier = 3
	scoreThreshold = 0.05
	emitThreshold  = 0.01
	hopPacing      = 120 * time.Millisecond
)

// Generator is the answer-generation oracle boundary.
type Generator interface {
	StreamAnswer(ctx context.Context, graphContext, query string, onToken func(string) error) (string, error)
}

// Broadcaster delivers events to a session's observers.
type Broadcaster interface {
	Broadcast(sessionID string, event any)
}

// Engine answers queries against session graphs.
type Engine struct {
	registry  *session.Registry
	hub       Broadcaster
	generator Generator
	logger    *slog.Logger
	pacing    time.Duration
}

// NewEngine creates a retrieval engine.
func NewEngine(registry *session.Registry, hub Broadcaster, generator Generator, logger *slog.Logger) *Engine {
	return &Engine{
		registry:  registry,
		hub:       hub,
		generator: generator,
		logger:    logger,
		pacing:    hopPacing,
	}
}

// Result is the outcome of one completed query.
type Result struct {
	Answer           string       `json:"answer"`
	RetrievedNodeIDs []string     `json:"retrieved_node_ids"`
	TraversalPath    []events.Hop `json:"traversal_path"`
}

// Run executes one query against the session, driving the full event
// sequence. It returns the result, or nil when the sequence ended with an
// error event. Run blocks until the answer stream finishes; callers
// wanting fire-and-forget semantics schedule it on a goroutine.
func (e *Engine) Run(ctx context.Context, sessionID, query string) *Result {
	sess, ok := e.registry.Get(sessionID)
	if !ok {
		e.hub.Broadcast(sessionID, events.NewError("Session not found"))
		return nil
	}

	graph, model := sess.Retrieval()
	if graph.NodeCount() == 0 || model == nil {
		e.hub.Broadcast(sessionID, events.NewError("No graph loaded. Please upload a document first."))
		return nil
	}

	e.hub.Broadcast(sessionID, events.NewQueryReceived(query, strings.Fields(query)))

	scores := scoreNodes(graph, model, query)
	ranked := rankScores(graph, scores)

	for _, sc := range ranked {
		if sc.score > emitThreshold {
			e.hub.Broadcast(sessionID, events.NewNodeScored(sc.id, round4(sc.score)))
		}
	}

	seeds := selectSeeds(ranked)
	contextNodes, path := traverse(graph, seeds, scores)

	for _, hop := range path {
		e.hub.Broadcast(sessionID, events.NewTraversalHop(hop.From, hop.To))
		// Paced so observers can watch the trail unfold.
		time.Sleep(e.pacing)
	}

	for _, id := range contextNodes {
		if n, ok := graph.Node(id); ok {
			e.hub.Broadcast(sessionID, events.NewNodeRetrieved(id, n.Description))
		}
	}

	graphContext := buildContext(graph, contextNodes)

	e.hub.Broadcast(sessionID, events.NewAnswerStart())

	answer, err := e.generator.StreamAnswer(ctx, graphContext, query, func(token string) error {
		e.hub.Broadcast(sessionID, events.NewAnswerToken(token))
		return nil
	})
	if err != nil {
		e.logger.Warn("answer generation failed",
			slog.String("session", sessionID), slog.String("error", err.Error()))
		e.hub.Broadcast(sessionID, events.NewError("Answer generation failed: "+err.Error()))
		return nil
	}

	result := &Result{Answer: answer, RetrievedNodeIDs: contextNodes, TraversalPath: path}
	e.hub.Broadcast(sessionID, events.NewQueryComplete(answer, contextNodes, path))
	return result
}

// scoreNodes computes cosine similarity between the query and every
// node's stored vector, in the session's frozen feature space. The model
// is never refit here, so identical inputs score identically.
func scoreNodes(graph *session.Graph, model *vectorizer.Vectorizer, query string) map[string]float64 {
	queryVec := model.Transform(query)
	scores := make(map[string]float64, graph.NodeCount())
	for _, n := range graph.Nodes() {
		scores[n.ID] = vectorizer.Cosine(queryVec, n.Embedding)
	}
	return scores
}

type scored struct {
	id    string
	score float64
}

// rankScores orders node ids by descending score. Ties keep graph
// insertion order so the ranking is deterministic.
func rankScores(graph *session.Graph, scores map[string]float64) []scored {
	out := make([]scored, 0, len(scores))
	for _, id := range graph.NodeIDs() {
		out = append(out, scored{id: id, score: scores[id]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// selectSeeds picks the traversal starting frontier: up to maxSeeds above
// the threshold, else the top fallbackSeeds unconditionally.
func selectSeeds(ranked []scored) []string {
	var seeds []string
	for _, sc := range ranked {
		if len(seeds) == maxSeeds {
			break
		}
		if sc.score > scoreThreshold {
			seeds = append(seeds, sc.id)
		}
	}
	if len(seeds) > 0 {
		return seeds
	}
	for _, sc := range ranked {
		if len(seeds) == fallbackSeeds {
			break
		}
		seeds = append(seeds, sc.id)
	}
	return seeds
}

// traverse performs the bounded breadth-first expansion, treating the
// graph as undirected. Seeds are visited immediately; each frontier node
// admits at most maxPerFrontier unvisited neighbors meeting the score
// threshold, best first. Returns the retrieved node ids in discovery
// order and the admitted traversal edges.
func traverse(graph *session.Graph, seeds []string, scores map[string]float64) ([]string, []events.Hop) {
	adjacency := graph.Adjacency()

	visited := make(map[string]struct{}, len(seeds))
	for _, id := range seeds {
		visited[id] = struct{}{}
	}
	contextNodes := append([]string(nil), seeds...)
	path := []events.Hop{}
	frontier := seeds

	for hop := 0; hop < maxHops; hop++ {
		var next []string
		for _, nodeID := range frontier {
			var candidates []scored
			for _, nb := range adjacency[nodeID] {
				if _, seen := visited[nb]; !seen {
					candidates = append(candidates, scored{id: nb, score: scores[nb]})
				}
			}
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].score > candidates[j].score
			})
			admitted := 0
			for _, c := range candidates {
				if admitted == maxPerFrontier {
					break
				}
				if c.score < scoreThreshold {
					break
				}
				visited[c.id] = struct{}{}
				path = append(path, events.Hop{From: nodeID, To: c.id})
				contextNodes = append(contextNodes, c.id)
				next = append(next, c.id)
				admitted++
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}
	return contextNodes, path
}

// buildContext concatenates one "[label] (TYPE): description" block per
// retrieved node, discovery order, blank line separated.
func buildContext(graph *session.Graph, nodeIDs []string) string {
	var parts []string
	for _, id := range nodeIDs {
		if n, ok := graph.Node(id); ok {
			parts = append(parts, "["+n.Label+"] ("+string(n.Type)+"): "+n.Description)
		}
	}
	return strings.Join(parts, "\n\n")
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
