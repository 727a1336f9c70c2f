// Package models defines the domain types for Ansuz.
package models

// EntityType is the closed set of node type tags.
type EntityType string

// Entity type tags.
const (
	TypeConcept  EntityType = "CONCEPT"
	TypePerson   EntityType = "PERSON"
	TypeOrg      EntityType = "ORG"
	TypeDate     EntityType = "DATE"
	TypeLocation EntityType = "LOCATION"
	TypeTerm     EntityType = "TERM"
	TypeEvent    EntityType = "EVENT"
)

// entityColors maps a type tag to its display color. Presentation only;
// never consulted by retrieval or merge logic.
var entityColors = map[EntityType]string{
	TypeConcept:  "#3a7bd5",
	TypePerson:   "#e8676b",
	TypeOrg:      "#f5a623",
	TypeDate:     "#7bed9f",
	TypeLocation: "#a29bfe",
	TypeTerm:     "#fd79a8",
	TypeEvent:    "#fdcb6e",
}

// ParseEntityType decodes a raw tag. Anything outside the closed set
// falls back to CONCEPT.
func ParseEntityType(raw string) EntityType {
	switch t := EntityType(raw); t {
	case TypeConcept, TypePerson, TypeOrg, TypeDate, TypeLocation, TypeTerm, TypeEvent:
		return t
	default:
		return TypeConcept
	}
}

// Color returns the display color for the type, defaulting to the
// CONCEPT color for anything unexpected.
func (t EntityType) Color() string {
	if c, ok := entityColors[t]; ok {
		return c
	}
	return entityColors[TypeConcept]
}

// Node is one entity in a session's knowledge graph.
type Node struct {
	ID              string
	Label           string
	Type            EntityType
	Description     string
	Embedding       []float64
	SourceDoc       string
	ConnectionCount int
}

// Edge is one relationship between two nodes of the same session.
type Edge struct {
	ID             string
	SourceID       string
	TargetID       string
	Label          string
	SourceSentence string
}

// NodeView is the external representation of a Node. The embedding is
// internal and never serialized.
type NodeView struct {
	ID              string     `json:"id"`
	Label           string     `json:"label"`
	Type            EntityType `json:"type"`
	Description     string     `json:"description"`
	Color           string     `json:"color"`
	SourceDoc       string     `json:"source_doc"`
	ConnectionCount int        `json:"connection_count"`
}

// View returns the external representation of the node.
func (n *Node) View() NodeView {
	return NodeView{
		ID:              n.ID,
		Label:           n.Label,
		Type:            n.Type,
		Description:     n.Description,
		Color:           n.Type.Color(),
		SourceDoc:       n.SourceDoc,
		ConnectionCount: n.ConnectionCount,
	}
}

// EdgeView is the external representation of an Edge.
type EdgeView struct {
	ID             string `json:"id"`
	Source         string `json:"source"`
	Target         string `json:"target"`
	Label          string `json:"label"`
	SourceSentence string `json:"source_sentence"`
}

// View returns the external representation of the edge.
func (e *Edge) View() EdgeView {
	return EdgeView{
		ID:             e.ID,
		Source:         e.SourceID,
		Target:         e.TargetID,
		Label:          e.Label,
		SourceSentence: e.SourceSentence,
	}
}

// GraphView is the external snapshot of one session's graph.
type GraphView struct {
	SessionID string     `json:"session_id"`
	Nodes     []NodeView `json:"nodes"`
	Edges     []EdgeView `json:"edges"`
	Documents []string   `json:"documents"`
}

// ExtractedEntity is one entity produced by the extraction oracle for a chunk.
type ExtractedEntity struct {
	Label       string `json:"label"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ExtractedRelationship is one relationship produced by the extraction oracle.
// Source and Target refer to entity labels, not node ids.
type ExtractedRelationship struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label"`
	Sentence string `json:"sentence"`
}

// ChunkExtraction is the structured result of one extraction call.
type ChunkExtraction struct {
	Entities      []ExtractedEntity       `json:"entities"`
	Relationships []ExtractedRelationship `json:"relationships"`
}
