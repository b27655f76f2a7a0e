// Package api exposes the tutor over HTTP. It is a thin caller of the
// pipeline: it owns conversation sessions and request decoding, nothing
// else.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"history-tutor/internal/models"
	"history-tutor/internal/tutor"
)

const maxUploadBytes = 20 << 20

// Asker is the pipeline entry point the server depends on.
type Asker interface {
	Run(ctx context.Context, question string, mode models.Mode, history string) (string, error)
}

// Uploader is the document ingestion entry point.
type Uploader interface {
	IngestDocument(ctx context.Context, data []byte, filename string) (bool, string)
}

// ImageDescriber is the image analysis entry point.
type ImageDescriber interface {
	Describe(ctx context.Context, data []byte) string
}

// Server holds per-session conversation logs in memory, keyed by uuid. The
// original UI kept history in browser session state; nothing here persists.
type Server struct {
	pipeline Asker
	ingestor Uploader
	analyzer ImageDescriber

	mu       sync.Mutex
	sessions map[string]*tutor.History
}

func NewServer(pipeline Asker, ingestor Uploader, analyzer ImageDescriber) *Server {
	return &Server{
		pipeline: pipeline,
		ingestor: ingestor,
		analyzer: analyzer,
		sessions: make(map[string]*tutor.History),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Post("/documents", s.handleDocument)
		r.Post("/images", s.handleImage)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question  string `json:"question"`
	Mode      string `json:"mode"`
	SessionID string `json:"session_id"`
}

type askResponse struct {
	Answer    string `json:"answer"`
	Mode      string `json:"mode"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	history := s.session(&req.SessionID)

	answer, err := s.pipeline.Run(r.Context(), req.Question, mode, history.Render(tutor.HistoryWindow))
	if err != nil {
		// history is untouched on failure, so a retry starts from the
		// same conversation state
		log.Error().Err(err).Msg("pipeline run failed")
		writeError(w, http.StatusBadGateway, "the tutor could not produce an answer, please try again")
		return
	}

	history.Append(models.RoleUser, req.Question, mode)
	history.Append(models.RoleAssistant, answer, mode)

	writeJSON(w, http.StatusOK, askResponse{Answer: answer, Mode: mode.String(), SessionID: req.SessionID})
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := readUpload(w, r)
	if !ok {
		return
	}
	success, message := s.ingestor.IngestDocument(r.Context(), data, filename)
	status := http.StatusOK
	if !success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, uploadResponse{Success: success, Message: message})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	data, _, ok := readUpload(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"description": s.analyzer.Describe(r.Context(), data)})
}

// session returns the history for id, allocating a fresh session (and id)
// when absent or unknown.
func (s *Server) session(id *string) *tutor.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *id != "" {
		if h, ok := s.sessions[*id]; ok {
			return h
		}
	}
	if *id == "" {
		*id = uuid.NewString()
	}
	h := tutor.NewHistory()
	s.sessions[*id] = h
	return h
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return nil, "", false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' field")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return nil, "", false
	}
	return data, header.Filename, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writing response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
