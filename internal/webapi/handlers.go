// Package webapi exposes the consultation history as a read-only JSON API.
package webapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/eomgitae/care-console/internal/history"
	"github.com/eomgitae/care-console/internal/report"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// maxPageSize caps the limit query parameter.
const maxPageSize = 200

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store history.Store
}

// NewHandlers creates a new Handlers with the given store.
func NewHandlers(store history.Store) *Handlers {
	return &Handlers{store: store}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleConsultations lists consultations, newest first. Supports the
// customer, limit and offset query parameters.
func (h *Handlers) HandleConsultations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := history.Filter{CustomerName: q.Get("customer")}

	var err error
	if f.Limit, err = intParam(q.Get("limit"), 50); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	list, err := h.store.ListConsultations(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]ConsultationSummary, 0, len(list))
	for _, c := range list {
		out = append(out, toSummary(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleConsultation returns one consultation with transcript and fact
// checks.
func (h *Handlers) HandleConsultation(w http.ResponseWriter, r *http.Request) {
	no, ok := consultationNo(w, r)
	if !ok {
		return
	}
	c, err := h.store.GetConsultation(r.Context(), no)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetail(c))
}

// HandleFactChecks returns the findings of one consultation. A consultation
// without findings returns an empty array.
func (h *Handlers) HandleFactChecks(w http.ResponseWriter, r *http.Request) {
	no, ok := consultationNo(w, r)
	if !ok {
		return
	}
	checks, err := h.store.ListFactChecks(r.Context(), no)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if checks == nil {
		checks = []history.FactCheck{}
	}
	writeJSON(w, http.StatusOK, checks)
}

// HandleReport returns the severity breakdown as JSON, or a rendered report
// when the format query parameter names one.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	no, ok := consultationNo(w, r)
	if !ok {
		return
	}
	c, err := h.store.GetConsultation(r.Context(), no)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	outcome := c.Outcome()

	format := r.URL.Query().Get("format")
	if format == "" || format == "json" {
		writeJSON(w, http.StatusOK, ReportResponse{
			No:              c.No,
			Breakdown:       outcome.Breakdown,
			HighestSeverity: outcome.HighestSeverity().Label(),
			Verdict:         report.InterpretBreakdown(outcome.Breakdown),
		})
		return
	}

	f, err := report.ParseFormat(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentTypes[f])
	w.WriteHeader(http.StatusOK)
	report.Write(w, f, &outcome) //nolint:errcheck
}

var contentTypes = map[report.Format]string{
	report.FormatText:     "text/plain; charset=utf-8",
	report.FormatMarkdown: "text/markdown; charset=utf-8",
	report.FormatHTML:     "text/html; charset=utf-8",
	report.FormatJUnit:    "application/xml",
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, store history.Store) {
	h := NewHandlers(store)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/consultations", h.HandleConsultations)
	mux.HandleFunc("GET /api/consultations/{no}", h.HandleConsultation)
	mux.HandleFunc("GET /api/consultations/{no}/factchecks", h.HandleFactChecks)
	mux.HandleFunc("GET /api/consultations/{no}/report", h.HandleReport)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func consultationNo(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.PathValue("no"))
	no, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || no <= 0 {
		writeError(w, http.StatusBadRequest, "invalid consultation number")
		return 0, false
	}
	return no, true
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid")
	}
	return n, nil
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "consultation not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
