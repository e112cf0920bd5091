// Package gateway exposes the approval workflow over HTTP.
package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tkarvine/draftgate/pkg/api"
)

// Server is the HTTP front end over an api.Engine. It owns no workflow
// state; every request maps to one engine call.
type Server struct {
	engine api.Engine
	logger *slog.Logger
}

// New creates a Server. If logger is nil, slog.Default() is used.
func New(engine api.Engine, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("gateway: engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, logger: logger}, nil
}

// Routes returns the handler serving the gateway API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /posts/generate", s.handleGenerate)
	mux.HandleFunc("GET /posts/pending", s.handleListPending)
	mux.HandleFunc("GET /posts/{id}", s.handleGet)
	mux.HandleFunc("POST /posts/{id}/decide", s.handleDecide)
	return s.logMiddleware(mux)
}

// --- Request/response shapes ---

type generateRequest struct {
	Topic             string `json:"topic"`
	Platform          string `json:"platform"`
	Tone              string `json:"tone"`
	AdditionalContext string `json:"additional_context"`
}

type decideRequest struct {
	Action     string `json:"action"`
	EditedText string `json:"edited_text"`
	Feedback   string `json:"feedback"`
	Actor      string `json:"actor"`
}

type postResponse struct {
	ID                string   `json:"id"`
	Topic             string   `json:"topic"`
	Platform          string   `json:"platform"`
	Tone              string   `json:"tone"`
	AdditionalContext string   `json:"additional_context,omitempty"`
	Text              string   `json:"text"`
	Hashtags          []string `json:"hashtags,omitempty"`
	FormattedText     string   `json:"formatted_text"`
	CharCount         int      `json:"char_count"`
	State             string   `json:"state"`
	AttemptCount      int      `json:"attempt_count"`
	ConfirmationID    string   `json:"confirmation_id,omitempty"`
	PublishedURL      string   `json:"published_url,omitempty"`
	ErrorMessage      string   `json:"error_message,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

type errorResponse struct {
	Error string        `json:"error"`
	Post  *postResponse `json:"post,omitempty"`
}

func toPostResponse(rec *api.PostRecord) *postResponse {
	if rec == nil {
		return nil
	}
	return &postResponse{
		ID:                rec.ID,
		Topic:             rec.Topic,
		Platform:          string(rec.Platform),
		Tone:              rec.Tone,
		AdditionalContext: rec.AdditionalContext,
		Text:              rec.Text,
		Hashtags:          rec.Hashtags,
		FormattedText:     rec.FormattedText(),
		CharCount:         rec.CharCount(),
		State:             string(rec.State),
		AttemptCount:      rec.AttemptCount,
		ConfirmationID:    rec.ConfirmationID,
		PublishedURL:      rec.PublishedURL,
		ErrorMessage:      rec.LastError,
		CreatedAt:         rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "draftgate"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "topic is required"})
		return
	}
	if req.Platform == "" {
		req.Platform = string(api.PlatformTwitter)
	}
	platform := api.Platform(req.Platform)
	if !platform.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported platform: " + req.Platform})
		return
	}
	if req.Tone == "" {
		req.Tone = "professional"
	}

	rec, err := s.engine.RequestGeneration(r.Context(), api.GenerationRequest{
		Topic:             req.Topic,
		Platform:          platform,
		Tone:              req.Tone,
		AdditionalContext: req.AdditionalContext,
	})
	if err != nil {
		s.writeEngineError(w, err, rec)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(rec))
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	recs, err := s.engine.ListPending(r.Context())
	if err != nil {
		s.writeEngineError(w, err, nil)
		return
	}
	out := make([]*postResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toPostResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": out})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(rec))
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	action := api.Action(req.Action)
	if !action.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "action must be approve, reject or edit"})
		return
	}

	rec, err := s.engine.Decide(r.Context(), r.PathValue("id"), api.Decision{
		Action:     action,
		EditedText: req.EditedText,
		Feedback:   req.Feedback,
		Actor:      req.Actor,
	})
	if err != nil {
		s.writeEngineError(w, err, rec)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(rec))
}

// writeEngineError maps engine errors to HTTP statuses. Collaborator
// failures carry the record so clients can show the resulting state.
func (s *Server) writeEngineError(w http.ResponseWriter, err error, rec *api.PostRecord) {
	var genErr *api.GenerationError
	var pubErr *api.PublishError

	switch {
	case errors.Is(err, api.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, api.ErrInvalidTransition), errors.Is(err, api.ErrStateConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, api.ErrEmptyEdit), errors.Is(err, api.ErrContentTooLong):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &genErr), errors.As(err, &pubErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Post: toPostResponse(rec)})
	default:
		s.logger.Error("request failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
