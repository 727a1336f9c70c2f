// Package session owns per-session knowledge graphs, their registry, and
// the event hub that fans session events out to live observers.
package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/models"
)

// Graph is one session's node/edge set. A Graph is mutated only while a
// single ingestion run builds it; once installed on a Session via Replace
// it is treated as immutable, so readers may hold a reference without
// locking.
//
// Invariants maintained by the mutation methods:
//   - no two nodes share a case-insensitive-normalized label
//   - no edge has identical endpoints
//   - no two edges share the same ordered (source, target) pair
//   - every node's ConnectionCount equals the number of touching edges
type Graph struct {
	nodes      map[string]*models.Node
	order      []string // node ids in insertion order
	edges      []*models.Edge
	labelIndex map[string]string // normalized label -> node id
	edgePairs  map[[2]string]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*models.Node),
		labelIndex: make(map[string]string),
		edgePairs:  make(map[[2]string]struct{}),
	}
}

// NormalizeLabel is the entity dedup key: lowercased, trimmed.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// ResolveLabel returns the id of the node holding the given label, if any.
func (g *Graph) ResolveLabel(label string) (string, bool) {
	id, ok := g.labelIndex[NormalizeLabel(label)]
	return id, ok
}

// AddNode inserts a node for the label unless one already exists. It
// returns the node owning the label and whether a new node was created;
// on a dedup hit the existing node is returned unchanged (first
// occurrence wins).
func (g *Graph) AddNode(label string, typ models.EntityType, description, sourceDoc string) (*models.Node, bool) {
	key := NormalizeLabel(label)
	if id, ok := g.labelIndex[key]; ok {
		return g.nodes[id], false
	}
	n := &models.Node{
		ID:          uuid.NewString(),
		Label:       label,
		Type:        typ,
		Description: description,
		SourceDoc:   sourceDoc,
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	g.labelIndex[key] = n.ID
	return n, true
}

// AddEdge inserts an edge between two existing nodes. It returns nil,false
// when either endpoint is unknown, the endpoints are identical, or the
// ordered pair already has an edge. An accepted edge increments both
// endpoints' connection counts.
func (g *Graph) AddEdge(sourceID, targetID, label, sourceSentence string) (*models.Edge, bool) {
	if sourceID == targetID {
		return nil, false
	}
	src, ok := g.nodes[sourceID]
	if !ok {
		return nil, false
	}
	tgt, ok := g.nodes[targetID]
	if !ok {
		return nil, false
	}
	pair := [2]string{sourceID, targetID}
	if _, dup := g.edgePairs[pair]; dup {
		return nil, false
	}
	e := &models.Edge{
		ID:             uuid.NewString(),
		SourceID:       sourceID,
		TargetID:       targetID,
		Label:          label,
		SourceSentence: sourceSentence,
	}
	g.edges = append(g.edges, e)
	g.edgePairs[pair] = struct{}{}
	src.ConnectionCount++
	tgt.ConnectionCount++
	return e, true
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*models.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*models.Node {
	out := make([]*models.Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	return append([]string(nil), g.order...)
}

// Edges returns all edges in insertion (evidentiary) order.
func (g *Graph) Edges() []*models.Edge {
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Adjacency returns the undirected neighbor lists keyed by node id.
func (g *Graph) Adjacency() map[string][]string {
	adj := make(map[string][]string, len(g.nodes))
	for _, id := range g.order {
		adj[id] = nil
	}
	for _, e := range g.edges {
		adj[e.SourceID] = append(adj[e.SourceID], e.TargetID)
		adj[e.TargetID] = append(adj[e.TargetID], e.SourceID)
	}
	return adj
}

// NodeViews returns the external representation of all nodes, insertion order.
func (g *Graph) NodeViews() []models.NodeView {
	out := make([]models.NodeView, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].View())
	}
	return out
}

// EdgeViews returns the external representation of all edges, insertion order.
func (g *Graph) EdgeViews() []models.EdgeView {
	out := make([]models.EdgeView, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e.View())
	}
	return out
}
