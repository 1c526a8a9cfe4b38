package handler

import (
	"bufio"
	"embed"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/young1lin/groundsearch/internal/config"
	"github.com/young1lin/groundsearch/internal/i18n"
	"github.com/young1lin/groundsearch/internal/metrics"
	"github.com/young1lin/groundsearch/internal/models"
	"github.com/young1lin/groundsearch/internal/orchestrator"
	"github.com/young1lin/groundsearch/internal/presenter"
	"github.com/young1lin/groundsearch/internal/search"
	"github.com/young1lin/groundsearch/pkg/logger"
)

const (
	wsPath     = "/ws"
	scriptPath = "/assets/app.js"
)

//go:embed assets/app.js
var assets embed.FS

// Handler serves the search page and its websocket sessions
type Handler struct {
	config   *config.Config
	provider search.Provider
	metrics  *metrics.Metrics
	opts     presenter.Options
	metricsH http.Handler
}

// NewHandler creates the HTTP handler. m may be nil.
func NewHandler(cfg *config.Config, provider search.Provider, m *metrics.Metrics) (*Handler, error) {
	tr, err := i18n.New(cfg.UI.Language)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		config:   cfg,
		provider: provider,
		metrics:  m,
		opts: presenter.Options{
			Suggestions:   cfg.UI.Suggestions,
			TitleMaxRunes: cfg.UI.TitleMaxRunes,
			Translator:    tr,
		},
	}
	if cfg.Metrics.Enabled && m != nil {
		h.metricsH = promhttp.HandlerFor(m.GetRegistry(), promhttp.HandlerOpts{})
	}
	return h, nil
}

// ServeHTTP handles all HTTP requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	traceID := extractTraceID(r)
	if traceID == "" {
		traceID = generateTraceID()
	}

	log := logger.WithTraceID(traceID)
	log.Debug("request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	)

	w.Header().Set("X-Trace-ID", traceID)
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

	route := r.URL.Path
	switch {
	case r.URL.Path == "/health":
		h.handleHealth(sw, r)
	case r.URL.Path == "/":
		h.handlePage(sw, r, log)
	case r.URL.Path == wsPath:
		h.handleSession(sw, r, log)
	case r.URL.Path == scriptPath:
		h.handleScript(sw, r)
	case h.metricsH != nil && r.URL.Path == h.config.Metrics.Path:
		h.metricsH.ServeHTTP(sw, r)
	default:
		route = "not_found"
		h.handleError(sw, http.StatusNotFound, "not_found", "Endpoint not found", log)
	}

	elapsed := time.Since(start)
	h.metrics.ObserveHTTPRequest(route, r.Method, strconv.Itoa(sw.status), elapsed.Seconds())
	log.Debug("request completed",
		zap.Int("status", sw.status),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"provider":  h.provider.Name(),
		"timestamp": time.Now().Unix(),
	})
}

// handlePage renders the page in its idle state
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.handleError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed", log)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := presenter.RenderPage(w, presenter.Page{
		View:       presenter.Build(models.IdleState(), "", h.opts),
		WSPath:     wsPath,
		ScriptPath: scriptPath,
	})
	if err != nil {
		log.Error("failed to render page", zap.Error(err))
	}
}

func (h *Handler) handleScript(w http.ResponseWriter, r *http.Request) {
	data, err := assets.ReadFile("assets/app.js")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Write(data)
}

// handleSession upgrades to a websocket and runs a page session on it
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	sessionID := uuid.New().String()
	sessLog := logger.WithSession(sessionID)

	ctrl := orchestrator.New(h.provider,
		orchestrator.WithRecorder(h.metrics),
		orchestrator.WithLogger(sessLog),
		orchestrator.WithContext(r.Context()),
	)

	h.metrics.SessionOpened()
	defer h.metrics.SessionClosed()
	sessLog.Info("session opened", zap.String("remote_addr", r.RemoteAddr))

	if err := NewSession(sessionID, conn, ctrl, h.opts, sessLog).Run(r.Context()); err != nil {
		sessLog.Info("session ended", zap.Error(err))
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
	sessLog.Info("session closed")
}

// handleError handles errors
func (h *Handler) handleError(w http.ResponseWriter, status int, errType, message string, log *zap.Logger) {
	log.Warn("request error",
		zap.String("error_type", errType),
		zap.String("message", message),
		zap.Int("status", status),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.ErrorDetail{
			Type:    errType,
			Message: message,
		},
	})
}

// extractTraceID extracts trace ID from various possible headers
func extractTraceID(r *http.Request) string {
	headers := []string{
		"X-Trace-ID",
		"X-Request-ID",
		"X-Correlation-ID",
		"Trace-ID",
		"Request-ID",
	}

	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}

	return ""
}

// generateTraceID generates a new trace ID
func generateTraceID() string {
	return uuid.New().String()[:16]
}

// statusWriter records the response status and stays hijackable for websockets
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
