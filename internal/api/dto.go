package api

import "github.com/starford/ansuz/internal/archive"

// CreateSessionResponse is returned after creating a session.
type CreateSessionResponse struct {
	SessionID string `json:"session_id" example:"9f1b6c2e-..." validate:"required"`
}

// QueryRequest is the request body for querying a session's graph.
type QueryRequest struct {
	Query string `json:"query" example:"What is TF-IDF?" validate:"required"`
}

// UploadResponse acknowledges a scheduled document ingestion.
type UploadResponse struct {
	Status  string `json:"status" example:"processing" validate:"required"`
	DocName string `json:"doc_name" example:"paper.txt" validate:"required"`
}

// AcceptedResponse acknowledges a scheduled query.
type AcceptedResponse struct {
	Status string `json:"status" example:"accepted" validate:"required"`
}

// ChunkSearchResponse wraps archived chunk search hits.
type ChunkSearchResponse struct {
	Results []archive.ChunkHit `json:"results" validate:"required"`
}
