// Package server exposes the valuation, cashflow and deal engines over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/exit-valuation/internal/api"
	"github.com/iwvelando/exit-valuation/internal/runs"
	"github.com/iwvelando/exit-valuation/internal/store"
	"github.com/iwvelando/exit-valuation/pkg/constants"
	"github.com/iwvelando/exit-valuation/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const maxRunListLimit = 500

// Options tunes the handler. Zero values take the package defaults.
type Options struct {
	MaxBodySize       int64
	RequestsPerMinute int
	Burst             int
	Version           string
}

type handler struct {
	service     *runs.Service
	logger      *zap.Logger
	maxBodySize int64
	limiter     *ipRateLimiter
	version     string
}

// runResponse wraps an evaluation with the ID it was stored under. RunID is
// empty when the run could not be stored.
type runResponse struct {
	RunID    string `json:"run_id,omitempty"`
	Result   any    `json:"result"`
	Duration string `json:"duration"`
}

// NewHandler constructs the HTTP handler that serves the evaluation API.
func NewHandler(service *runs.Service, logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = constants.DefaultRequestsPerMinute
	}
	if opts.Burst <= 0 {
		opts.Burst = constants.DefaultRateLimitBurst
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	h := &handler{
		service:     service,
		logger:      logger,
		maxBodySize: opts.MaxBodySize,
		limiter:     newIPRateLimiter(opts.RequestsPerMinute, opts.Burst),
		version:     version,
	}

	mux := http.NewServeMux()

	// Evaluation endpoints
	mux.HandleFunc("/api/valuation", h.limited(h.handleValuation))
	mux.HandleFunc("/api/cashflow", h.limited(h.handleCashflow))
	mux.HandleFunc("/api/deals", h.limited(h.handleDeals))
	mux.HandleFunc("/api/evaluate", h.limited(h.handleEvaluate))

	// Stored runs
	mux.HandleFunc("/api/runs", h.handleListRuns)
	mux.HandleFunc("/api/runs/{id}", h.handleGetRun)

	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/healthz", h.handleHealth)

	return mux
}

func (h *handler) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !h.limiter.allow(key) {
			h.logger.Warn("rate limit exceeded",
				zap.String("op", "server.limited"),
				zap.String("client", key),
				zap.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "60")
			h.writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}

func (h *handler) handleValuation(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValuation"
	var req api.ProfileRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	start := time.Now()
	id, resp, err := h.service.Valuation(r.Context(), req)
	h.respondRun(w, id, resp, err, start, op)
}

func (h *handler) handleCashflow(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCashflow"
	var req api.CashflowRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	start := time.Now()
	id, resp, err := h.service.Cashflow(r.Context(), req)
	h.respondRun(w, id, resp, err, start, op)
}

func (h *handler) handleDeals(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeals"
	var req api.DealRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	start := time.Now()
	id, resp, err := h.service.Deals(r.Context(), req)
	h.respondRun(w, id, resp, err, start, op)
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"
	var req api.EvaluateRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	start := time.Now()
	id, resp, err := h.service.Evaluate(r.Context(), req)
	h.respondRun(w, id, resp, err, start, op)
}

func (h *handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListRuns"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	limit := constants.DefaultRunListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		limit = min(n, maxRunListLimit)
	}

	list, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to list runs: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"runs": list})
}

func (h *handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetRun"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	run, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("run %s not found", id), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load run: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodePost reads a JSON or YAML body into dst. It writes the error response
// itself and reports whether the handler should continue.
func (h *handler) decodePost(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return false
	}

	if isYAML(r.Header.Get("Content-Type")) {
		err = yaml.Unmarshal(data, dst)
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(dst)
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func isYAML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}

func (h *handler) respondRun(w http.ResponseWriter, id string, result any, err error, start time.Time, op string) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, validation.ErrInvalid) {
			status = http.StatusBadRequest
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("evaluation computed",
		zap.String("op", op),
		zap.String("run_id", id),
		zap.Duration("duration", elapsed),
	)
	h.writeJSON(w, http.StatusOK, runResponse{RunID: id, Result: result, Duration: elapsed.String()})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
