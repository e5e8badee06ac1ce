// Package handler exposes the tutoring bot as a JSON HTTP API.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
	"github.com/pavelanni/lumira/internal/orchestrator"
)

const maxBodyBytes = 64 << 10

// Options configures a Handler. Zero values disable the matching feature.
type Options struct {
	// TokenHash is a bcrypt hash of the bearer token required on /api.
	TokenHash string
	// Exporter serves GET /api/export.
	Exporter Exporter
	// Gatherer serves GET /metrics.
	Gatherer prometheus.Gatherer
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	bot       *orchestrator.Orchestrator
	tokenHash []byte
	exporter  Exporter
	gatherer  prometheus.Gatherer
}

// New creates a new Handler.
func New(bot *orchestrator.Orchestrator, opts Options) *Handler {
	h := &Handler{bot: bot, exporter: opts.Exporter, gatherer: opts.Gatherer}
	if opts.TokenHash != "" {
		h.tokenHash = []byte(opts.TokenHash)
	}
	return h
}

// Router builds the full HTTP handler with logging, panic recovery and
// localisation, falling back to lang.
func (h *Handler) Router(lang string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(h.requireToken)
		api.Post("/chat", h.handleChat)
		api.Get("/sessions/{sessionID}/progress", h.handleProgress)
		api.Delete("/sessions/{sessionID}", h.handleReset)
		if h.exporter != nil {
			api.Get("/export", h.handleExport)
		}
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Done      bool   `json:"done"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := h.bot.Handle(r.Context(), req.SessionID, req.Text)
	if err != nil {
		slog.Warn("chat turn aborted", "session", req.SessionID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: req.SessionID,
		Reply:     reply.Text,
		Done:      reply.Done,
	})
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	p, ok := h.bot.Progress(sessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.bot.Reset(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"reply": appI18n.T(r.Context(), "ResetDone")})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}
