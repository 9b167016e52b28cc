package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"prompt-forge/server/internal/engine"
	"prompt-forge/server/internal/models"
)

const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeHistoryDisabled   = "HISTORY_DISABLED"
	CodeHistoryReadFailed = "HISTORY_READ_FAILED"

	maxRequestBodySize = 1 << 20
)

// HistoryReader lists recent generations
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]models.Generation, error)
}

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse reports liveness and request counters
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Generated int64  `json:"generated"`
	Failed    int64  `json:"failed"`
}

type Handlers struct {
	service *engine.PromptService
	history HistoryReader
	logger  *slog.Logger

	generated atomic.Int64
	failed    atomic.Int64
}

// NewHandlers wires the HTTP handlers. history may be nil.
func NewHandlers(service *engine.PromptService, history HistoryReader, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service: service,
		history: history,
		logger:  logger.With("component", "web"),
	}
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "prompt-forge",
		Generated: h.generated.Load(),
		Failed:    h.failed.Load(),
	})
}

// Generate handles POST /api/generate
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CheckAPIKey(); err != nil {
		h.writeGenerateError(w, err)
		return
	}

	var req engine.GenerateRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.failed.Inc()
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  CodeInvalidRequest,
		})
		return
	}

	resp, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}

	h.generated.Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeGenerateError(w http.ResponseWriter, err error) {
	h.failed.Inc()

	var gerr *engine.GenerateError
	if !errors.As(err, &gerr) {
		gerr = &engine.GenerateError{Code: engine.CodeAPIRequestFailed, Message: err.Error()}
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: gerr.Message, Code: gerr.Code})
}

// Styles handles GET /api/styles
func (h *Handlers) Styles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.StyleNames())
}

// History handles GET /api/history?limit=N
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "History is not enabled.", Code: CodeHistoryDisabled})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer", Code: CodeInvalidRequest})
			return
		}
		limit = n
	}

	rows, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read history", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeHistoryReadFailed})
		return
	}
	if rows == nil {
		rows = []models.Generation{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

// staticFallback serves GET and HEAD from files and everything else with other
func staticFallback(files http.Handler, other http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			files.ServeHTTP(w, r)
			return
		}
		other(w, r)
	}
}

// NewRouter builds the HTTP routes. Unmatched GET requests are served
// from staticDir.
func NewRouter(h *Handlers, staticDir string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))
	r.Use(corsMiddleware)

	r.Get("/health", h.HealthCheck)

	files := http.FileServer(http.Dir(staticDir))

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", h.Generate)
		r.Get("/styles", h.Styles)
		r.Get("/history", h.History)

		r.NotFound(staticFallback(files, http.NotFound))
		r.MethodNotAllowed(staticFallback(files, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}))
	})

	r.Get("/*", files.ServeHTTP)
	r.Head("/*", files.ServeHTTP)

	return r
}
