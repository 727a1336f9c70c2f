package session

import (
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func TestAddNode_CaseInsensitiveDedup(t *testing.T) {
	g := NewGraph()
	a, created := g.AddNode("Raft", models.TypeConcept, "first", "a.txt")
	if !created {
		t.Fatal("first insert should create")
	}
	b, created := g.AddNode("raft", models.TypePerson, "second", "b.txt")
	if created {
		t.Fatal("same normalized label must not create a second node")
	}
	if b.ID != a.ID {
		t.Errorf("dedup returned a different node")
	}
	// First occurrence wins: fields untouched.
	if b.Type != models.TypeConcept || b.Description != "first" || b.SourceDoc != "a.txt" {
		t.Errorf("dedup hit mutated node: %+v", b)
	}
	if g.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", g.NodeCount())
	}
}

func TestAddEdge_RejectsSelfLoop(t *testing.T) {
	g := NewGraph()
	a, _ := g.AddNode("A", models.TypeConcept, "", "")
	if _, ok := g.AddEdge(a.ID, a.ID, "loops", ""); ok {
		t.Fatal("self-loop accepted")
	}
	if a.ConnectionCount != 0 {
		t.Errorf("connection count = %d after rejected edge", a.ConnectionCount)
	}
}

func TestAddEdge_RejectsDuplicateOrderedPair(t *testing.T) {
	g := NewGraph()
	a, _ := g.AddNode("A", models.TypeConcept, "", "")
	b, _ := g.AddNode("B", models.TypeConcept, "", "")

	if _, ok := g.AddEdge(a.ID, b.ID, "defines", ""); !ok {
		t.Fatal("first edge rejected")
	}
	if _, ok := g.AddEdge(a.ID, b.ID, "uses", ""); ok {
		t.Fatal("duplicate ordered pair accepted despite different label")
	}
	// The reverse direction is a distinct ordered pair.
	if _, ok := g.AddEdge(b.ID, a.ID, "refines", ""); !ok {
		t.Fatal("reverse pair rejected")
	}
	if g.EdgeCount() != 2 {
		t.Errorf("edge count = %d, want 2", g.EdgeCount())
	}
}

func TestAddEdge_RejectsUnknownEndpoints(t *testing.T) {
	g := NewGraph()
	a, _ := g.AddNode("A", models.TypeConcept, "", "")
	if _, ok := g.AddEdge(a.ID, "missing", "uses", ""); ok {
		t.Fatal("edge to unknown node accepted")
	}
	if _, ok := g.AddEdge("missing", a.ID, "uses", ""); ok {
		t.Fatal("edge from unknown node accepted")
	}
}

func TestConnectionCounts_MatchEdges(t *testing.T) {
	g := NewGraph()
	a, _ := g.AddNode("A", models.TypeConcept, "", "")
	b, _ := g.AddNode("B", models.TypeConcept, "", "")
	c, _ := g.AddNode("C", models.TypeConcept, "", "")
	g.AddEdge(a.ID, b.ID, "defines", "")
	g.AddEdge(b.ID, c.ID, "uses", "")

	counts := map[string]int{}
	for _, e := range g.Edges() {
		counts[e.SourceID]++
		counts[e.TargetID]++
	}
	for _, n := range g.Nodes() {
		if n.ConnectionCount != counts[n.ID] {
			t.Errorf("node %s: connection count %d, edges touch %d", n.Label, n.ConnectionCount, counts[n.ID])
		}
	}
}

func TestNodes_InsertionOrderStable(t *testing.T) {
	g := NewGraph()
	for _, l := range []string{"zeta", "alpha", "mid"} {
		g.AddNode(l, models.TypeConcept, "", "")
	}
	nodes := g.Nodes()
	if nodes[0].Label != "zeta" || nodes[1].Label != "alpha" || nodes[2].Label != "mid" {
		t.Errorf("order not preserved: %v %v %v", nodes[0].Label, nodes[1].Label, nodes[2].Label)
	}
}

func TestAdjacency_Undirected(t *testing.T) {
	g := NewGraph()
	a, _ := g.AddNode("A", models.TypeConcept, "", "")
	b, _ := g.AddNode("B", models.TypeConcept, "", "")
	g.AddEdge(a.ID, b.ID, "uses", "")

	adj := g.Adjacency()
	if len(adj[a.ID]) != 1 || adj[a.ID][0] != b.ID {
		t.Errorf("A neighbors = %v", adj[a.ID])
	}
	if len(adj[b.ID]) != 1 || adj[b.ID][0] != a.ID {
		t.Errorf("B neighbors = %v", adj[b.ID])
	}
}
