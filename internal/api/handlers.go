package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/archive"
	"github.com/starford/ansuz/internal/query"
	"github.com/starford/ansuz/internal/session"
)

// Ingestor schedules document processing for a session.
type Ingestor interface {
	Run(ctx context.Context, sessionID string, content []byte, filename string)
}

// Querier runs retrieval and answer generation for a session.
type Querier interface {
	Run(ctx context.Context, sessionID, queryText string) *query.Result
}

// Handler holds API route handlers.
type Handler struct {
	registry    *session.Registry
	hub         *session.Hub
	ingestor    Ingestor
	querier     Querier
	archive     *archive.DB // nil when the archive is disabled
	oracleReady bool
}

// NewHandler creates a new Handler. archiveDB may be nil.
func NewHandler(registry *session.Registry, hub *session.Hub, ingestor Ingestor, querier Querier, archiveDB *archive.DB, oracleReady bool) *Handler {
	return &Handler{
		registry:    registry,
		hub:         hub,
		ingestor:    ingestor,
		querier:     querier,
		archive:     archiveDB,
		oracleReady: oracleReady,
	}
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	h.registry.Create(id)
	slog.Info("session created", slog.String("session_id", id))
	writeJSON(w, http.StatusCreated, CreateSessionResponse{SessionID: id})
}

// GetSession handles GET /api/sessions/{id}. Returns the current graph
// snapshot, or 404 for a session that was never created.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := h.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// UploadDocument handles POST /api/sessions/{id}/documents. The document is
// read synchronously; extraction and graph building run in the background
// and report progress over the session's event stream.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.oracleReady {
		writeJSON(w, http.StatusInternalServerError, errorBody("oracle credential not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	go h.ingestor.Run(context.Background(), id, content, header.Filename)
	writeJSON(w, http.StatusAccepted, UploadResponse{Status: "processing", DocName: header.Filename})
}

// Query handles POST /api/sessions/{id}/query. The query runs in the
// background; retrieval and answer events arrive over the session's
// event stream.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query is required"))
		return
	}
	if _, ok := h.registry.Get(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	}
	if !h.oracleReady {
		writeJSON(w, http.StatusInternalServerError, errorBody("oracle credential not configured"))
		return
	}

	go h.querier.Run(context.Background(), id, req.Query)
	writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// SearchChunks handles GET /api/sessions/{id}/chunks. It searches the
// archived chunk text of the session's documents.
func (h *Handler) SearchChunks(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("chunk archive is disabled"))
		return
	}
	id := chi.URLParam(r, "id")
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	hits, err := h.archive.Search(id, q, limit)
	if err != nil {
		slog.Error("chunk search failed", slog.String("session_id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if hits == nil {
		hits = []archive.ChunkHit{}
	}
	writeJSON(w, http.StatusOK, ChunkSearchResponse{Results: hits})
}
