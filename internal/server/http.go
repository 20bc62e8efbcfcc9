package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/store"
	"github.com/alfredjeanlab/campus/internal/uploads"
)

// Version is reported by the root banner.
const Version = "1.0.0"

// NewHTTPHandler returns an http.Handler with all routes registered and the
// recovery, logging and CORS middleware applied.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/inquiries", s.handleListInquiries)
	mux.HandleFunc("POST /api/inquiries", s.handleCreateInquiry)
	mux.HandleFunc("GET /api/inquiries/{id}", s.handleGetInquiry)

	mux.HandleFunc("GET /api/announcements", s.handleListAnnouncements)
	mux.HandleFunc("POST /api/announcements", s.handleCreateAnnouncement)
	mux.HandleFunc("GET /api/announcements/{id}", s.handleGetAnnouncement)
	mux.HandleFunc("PUT /api/announcements/{id}", s.handleUpdateAnnouncement)
	mux.HandleFunc("DELETE /api/announcements/{id}", s.handleDeleteAnnouncement)

	mux.HandleFunc("GET /api/schools", s.handleListSchools)
	mux.HandleFunc("POST /api/schools", s.handleCreateSchool)
	mux.HandleFunc("GET /api/schools/{id}", s.handleGetSchool)
	mux.HandleFunc("PUT /api/schools/{id}", s.handleUpdateSchool)
	mux.HandleFunc("DELETE /api/schools/{id}", s.handleDeleteSchool)

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/events/stream", s.handleEventStream)
	mux.HandleFunc("/api/", s.handleAPINotFound)

	mux.HandleFunc("GET /uploads/{name}", s.handleGetUpload)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	var h http.Handler = mux
	h = CORSMiddleware(s.origins, h)
	h = LoggingMiddleware(s.log, h)
	h = RecoveryMiddleware(s.log, h)
	return h
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Server is running!",
		"timestamp": time.Now().UTC(),
	})
}

// handleRoot handles GET / with a banner listing the API.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Campus Server API",
		"version": Version,
		"endpoints": map[string]string{
			"GET /api/inquiries":              "List inquiries",
			"POST /api/inquiries":             "Submit new inquiry",
			"GET /api/announcements":          "List announcements",
			"POST /api/announcements":         "Create announcement",
			"PUT /api/announcements/{id}":     "Update announcement",
			"DELETE /api/announcements/{id}":  "Delete announcement",
			"GET /api/schools":                "List schools",
			"POST /api/schools":               "Create school",
			"PUT /api/schools/{id}":           "Update school",
			"DELETE /api/schools/{id}":        "Delete school",
			"GET /api/health":                 "Server health check",
			"GET /api/events/stream":          "Realtime events (SSE)",
			"GET /ws":                         "Realtime events (WebSocket)",
		},
	})
}

// handleAPINotFound answers every unmatched /api/ path.
func (s *Server) handleAPINotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "API endpoint not found")
}

// handleGetUpload handles GET /uploads/{name}.
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !uploads.ValidName(name) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	rc, contentType, err := s.uploads.Open(r.Context(), name)
	if errors.Is(err, uploads.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		s.log.Error("failed to open upload", "image", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer rc.Close()

	if contentType == "" {
		contentType = uploads.ContentTypeFor(name)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

// writeData writes a success response carrying data.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

// writeStoreError maps a store or validation error onto an HTTP response.
// entity names the record kind in not-found messages.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, entity, action string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": ve.Error(),
			"errors":  ve.Fields(),
		})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, entity+" not found")
	default:
		s.log.Error("store operation failed", "entity", entity, "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "Error "+action+" "+entity)
	}
}
