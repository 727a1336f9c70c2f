// Package events defines the wire payloads broadcast to session observers.
// Every payload carries a discriminating "event" field; the remaining
// fields follow the shapes the frontend consumes.
package events

import "github.com/starford/ansuz/internal/models"

// Event names.
const (
	TypeIngestionStarted  = "ingestion_started"
	TypeIngestionProgress = "ingestion_progress"
	TypeChunkProcessing   = "chunk_processing"
	TypeIngestionComplete = "ingestion_complete"
	TypeGraphState        = "graph_state"
	TypeQueryReceived     = "query_received"
	TypeNodeScored        = "node_scored"
	TypeTraversalHop      = "traversal_hop"
	TypeNodeRetrieved     = "node_retrieved"
	TypeAnswerStart       = "answer_start"
	TypeAnswerToken       = "answer_token"
	TypeQueryComplete     = "query_complete"
	TypeError             = "error"
	TypeHeartbeat         = "heartbeat"
	TypePong              = "pong"
)

// IngestionStarted opens an ingestion event sequence.
type IngestionStarted struct {
	Event   string `json:"event"`
	DocName string `json:"doc_name"`
}

func NewIngestionStarted(docName string) IngestionStarted {
	return IngestionStarted{Event: TypeIngestionStarted, DocName: docName}
}

// IngestionProgress announces the total chunk count before extraction begins.
type IngestionProgress struct {
	Event       string `json:"event"`
	Message     string `json:"message"`
	TotalChunks int    `json:"total_chunks"`
}

func NewIngestionProgress(message string, totalChunks int) IngestionProgress {
	return IngestionProgress{Event: TypeIngestionProgress, Message: message, TotalChunks: totalChunks}
}

// ChunkProcessing is emitted once per completed extraction call, in
// completion order.
type ChunkProcessing struct {
	Event string `json:"event"`
	Chunk int    `json:"chunk"`
	Total int    `json:"total"`
}

func NewChunkProcessing(chunk, total int) ChunkProcessing {
	return ChunkProcessing{Event: TypeChunkProcessing, Chunk: chunk, Total: total}
}

// IngestionStats summarizes one completed ingestion run.
type IngestionStats struct {
	Entities        int `json:"entities"`
	Relationships   int `json:"relationships"`
	ChunksProcessed int `json:"chunks_processed"`
}

// IngestionComplete closes an ingestion sequence with the rebuilt graph.
type IngestionComplete struct {
	Event string            `json:"event"`
	Stats IngestionStats    `json:"stats"`
	Nodes []models.NodeView `json:"nodes"`
	Edges []models.EdgeView `json:"edges"`
}

func NewIngestionComplete(stats IngestionStats, nodes []models.NodeView, edges []models.EdgeView) IngestionComplete {
	return IngestionComplete{Event: TypeIngestionComplete, Stats: stats, Nodes: nodes, Edges: edges}
}

// GraphState is the synthetic snapshot sent to a newly connected observer
// of a non-empty session.
type GraphState struct {
	Event string           `json:"event"`
	Graph models.GraphView `json:"graph"`
}

func NewGraphState(graph models.GraphView) GraphState {
	return GraphState{Event: TypeGraphState, Graph: graph}
}

// QueryReceived opens a query event sequence.
type QueryReceived struct {
	Event  string   `json:"event"`
	Query  string   `json:"query"`
	Tokens []string `json:"tokens"`
}

func NewQueryReceived(query string, tokens []string) QueryReceived {
	return QueryReceived{Event: TypeQueryReceived, Query: query, Tokens: tokens}
}

// NodeScored reports one node's query similarity, descending order.
type NodeScored struct {
	Event  string  `json:"event"`
	NodeID string  `json:"node_id"`
	Score  float64 `json:"score"`
}

func NewNodeScored(nodeID string, score float64) NodeScored {
	return NodeScored{Event: TypeNodeScored, NodeID: nodeID, Score: score}
}

// TraversalHop reports one admitted BFS expansion edge.
type TraversalHop struct {
	Event  string `json:"event"`
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

func NewTraversalHop(fromID, toID string) TraversalHop {
	return TraversalHop{Event: TypeTraversalHop, FromID: fromID, ToID: toID}
}

// NodeRetrieved marks a node admitted to the answer context.
type NodeRetrieved struct {
	Event   string `json:"event"`
	NodeID  string `json:"node_id"`
	Context string `json:"context"`
}

func NewNodeRetrieved(nodeID, context string) NodeRetrieved {
	return NodeRetrieved{Event: TypeNodeRetrieved, NodeID: nodeID, Context: context}
}

// AnswerStart precedes the first answer token.
type AnswerStart struct {
	Event string `json:"event"`
}

func NewAnswerStart() AnswerStart {
	return AnswerStart{Event: TypeAnswerStart}
}

// AnswerToken carries one streamed answer fragment.
type AnswerToken struct {
	Event string `json:"event"`
	Token string `json:"token"`
}

func NewAnswerToken(token string) AnswerToken {
	return AnswerToken{Event: TypeAnswerToken, Token: token}
}

// Hop is one (from, to) pair of the final traversal path.
type Hop struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// QueryComplete closes a successful query sequence.
type QueryComplete struct {
	Event            string   `json:"event"`
	Answer           string   `json:"answer"`
	RetrievedNodeIDs []string `json:"retrieved_node_ids"`
	TraversalPath    []Hop    `json:"traversal_path"`
}

func NewQueryComplete(answer string, retrieved []string, path []Hop) QueryComplete {
	return QueryComplete{Event: TypeQueryComplete, Answer: answer, RetrievedNodeIDs: retrieved, TraversalPath: path}
}

// Error aborts whichever sequence was in flight.
type Error struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

func NewError(message string) Error {
	return Error{Event: TypeError, Message: message}
}

// Heartbeat is the idle keep-alive signal.
type Heartbeat struct {
	Event string `json:"event"`
}

func NewHeartbeat() Heartbeat {
	return Heartbeat{Event: TypeHeartbeat}
}

// Pong answers a client "ping".
type Pong struct {
	Event string `json:"event"`
}

func NewPong() Pong {
	return Pong{Event: TypePong}
}
