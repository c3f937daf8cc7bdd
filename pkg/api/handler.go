// CLAUDE:SUMMARY HTTP routes of the registry API: resolve, product lookup, identification, CMR check, info, reload, health, metrics, MCP mount.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/phyto-registry/pkg/kit"
	"github.com/hazyhaar/phyto-registry/pkg/phyto"
)

// Config wires the API to its collaborators. Registry is required.
type Config struct {
	Registry *phyto.Registry
	Logger   *slog.Logger
	// Metrics is optional; nil disables /metrics.
	Metrics *Metrics
	// Imports and ProductsAdapter feed last_import / update_available in /v1/info.
	Imports         ImportTracker
	ProductsAdapter string
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.ProductsAdapter == "" {
		c.ProductsAdapter = "ephy-produits"
	}
	return c
}

// NewRouter returns an http.Handler with all registry API routes.
func NewRouter(cfg Config) http.Handler {
	cfg = cfg.withDefaults()
	mux := http.NewServeMux()
	h := &handler{ep: newEndpoints(cfg), reg: cfg.Registry}

	mux.HandleFunc("GET /v1/resolve", h.handleResolve)
	mux.HandleFunc("GET /v1/products/{code}", h.handleProduct)
	mux.HandleFunc("GET /v1/identify/label", methodNotAllowed) // label identification takes a JSON body
	mux.HandleFunc("POST /v1/identify/label", h.handleIdentifyLabel)
	mux.HandleFunc("GET /v1/identify/{token}", h.handleIdentify)
	mux.HandleFunc("GET /v1/cmr/{code}", h.handleCMR)
	mux.HandleFunc("GET /v1/info", h.handleInfo)
	mux.HandleFunc("POST /v1/reload", h.handleReload)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	if cfg.MCP != nil {
		mux.Handle("/mcp", cfg.MCP)
	}

	return kit.RequestID(kit.SecurityHeaders(cors(mux)))
}

type handler struct {
	ep  *endpoints
	reg *phyto.Registry
}

// --- resolve ---

func (h *handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing q")
		return
	}
	h.serve(w, r, h.ep.resolve, &resolveReq{Query: q})
}

// --- products ---

func (h *handler) handleProduct(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.lookupCode, &codeReq{Code: r.PathValue("code")})
}

// --- identify ---

func (h *handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	h.serve(w, r, h.ep.identify, &identifyReq{Token: token})
}

func (h *handler) handleIdentifyLabel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16*1024) // 16 KiB max
	var req phyto.LabelFields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.serve(w, r, h.ep.identifyLabel, &req)
}

// --- cmr ---

func (h *handler) handleCMR(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.checkCMR, &codeReq{Code: r.PathValue("code")})
}

// --- info / reload ---

func (h *handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.info, nil)
}

func (h *handler) handleReload(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.reload, nil)
}

// --- health ---

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Products int    `json:"products"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	s, err := h.reg.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	status := "ok"
	if s.Degraded() {
		status = "degraded"
	}
	info := s.Info()
	writeJSON(w, http.StatusOK, healthResponse{Status: status, Version: info.Version, Products: info.Total})
}

// --- helpers ---

// serve runs an endpoint and writes its response or mapped error.
func (h *handler) serve(w http.ResponseWriter, r *http.Request, e kit.Endpoint, req any) {
	resp, err := e(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, kit.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+kit.RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", kit.RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
