package mcpserver

// GraphFormatContract describes the JSON shape of session graph snapshots
// returned by the get_graph tool.
const GraphFormatContract = `# Ansuz Graph Snapshot Format

The ` + "`" + `get_graph` + "`" + ` tool returns one session's knowledge graph as JSON.

## Structure

` + "```" + `json
{
  "session_id": "9f1b6c2e-...",
  "nodes": [
    {
      "id": "uuid",
      "label": "Gradient Descent",
      "type": "CONCEPT",
      "description": "Iterative optimization method...",
      "source_doc": "paper.txt",
      "connection_count": 3,
      "color": "#3a7bd5"
    }
  ],
  "edges": [
    {
      "id": "uuid",
      "source": "node-uuid",
      "target": "node-uuid",
      "label": "minimizes",
      "source_sentence": "Gradient descent minimizes the loss."
    }
  ],
  "documents": ["paper.txt"]
}
` + "```" + `

## Rules

1. **Node types** are one of CONCEPT, PERSON, ORG, DATE, LOCATION, TERM,
   EVENT. Anything else the extractor produces is normalized to CONCEPT.
2. **Labels are unique per session** case-insensitively; repeated mentions
   merge into the first node and raise its ` + "`" + `connection_count` + "`" + `.
3. **Edges are undirected for retrieval** but keep the extractor's
   source/target orientation; at most one edge exists per ordered pair.
4. **` + "`" + `color` + "`" + `** is derived from the node type and is stable across sessions.
5. **Re-ingesting a document replaces the whole graph**, ids included; do
   not cache node ids across ingestions.
`
