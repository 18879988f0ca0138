// Package dashboard serves the penguin dashboard page and its JSON API. One
// handler owns the whole surface: session resolution via cookie, filter
// reads and writes, the summary metrics, the data grid rows, the scatter
// plot image, and export scheduling.
package dashboard

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"penguindash/internal/adapters/exports"
	"penguindash/internal/core"
	"penguindash/internal/plot"
	"penguindash/internal/web"
	"penguindash/pkg/domain"
)

// SessionCookie carries the session id between requests.
const SessionCookie = "penguin_session"

// Handler provides HTTP access to the dashboard.
type Handler struct {
	Service *core.Service
	Exports exports.Scheduler
	Log     *slog.Logger
}

// NewHandler constructs a dashboard HTTP handler.
func NewHandler(service *core.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "dashboard service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && path == "":
		h.handlePage(w, r)
		return
	case path == "/api/v1/dashboard/filters":
		h.handleFilters(w, r)
		return
	case r.Method == http.MethodGet && path == "/api/v1/dashboard/summary":
		h.handleSummary(w, r)
		return
	case r.Method == http.MethodGet && path == "/api/v1/dashboard/rows":
		h.handleRows(w, r)
		return
	case r.Method == http.MethodGet && path == "/api/v1/dashboard/plot":
		h.handlePlot(w, r)
		return
	case strings.HasPrefix(path, "/api/v1/dashboard/exports"):
		if h.Exports == nil {
			http.NotFound(w, r)
			return
		}
		h.handleExports(w, r, path)
		return
	default:
		http.NotFound(w, r)
	}
}

// session resolves the caller's session from the cookie, minting a fresh
// session and setting the cookie when none exists.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *core.Session {
	var id string
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		id = cookie.Value
	}
	session, resolved := h.Service.Session(id)
	if resolved != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    resolved,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return session
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	query := r.URL.Query()

	// Sidebar controls arrive as query parameters on page reload.
	if query.Has("max_mass") || query.Has("species") {
		filter, err := filterFromQuery(query.Get("max_mass"), query["species"], session.Filter())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		session.SetFilter(filter)
	}

	grid, gridFilters, err := gridFromQuery(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := session.View()
	rows := grid.apply(view.Rows())
	data := web.BuildPageData(session.Filter(), view, session.Summary(), rows, gridFilters)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.Render(w, data); err != nil && h.Log != nil {
		h.Log.Warn("render dashboard page", "error", err)
	}
}

type filtersPayload struct {
	MaxMass float64  `json:"max_mass"`
	Species []string `json:"species"`
}

func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, filtersResponse(session.Filter()))
	case http.MethodPut:
		var req filtersPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid filter payload")
			return
		}
		species := make([]domain.Species, 0, len(req.Species))
		for _, label := range req.Species {
			sp, err := domain.ParseSpecies(label)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			species = append(species, sp)
		}
		session.SetFilter(domain.NewFilter(req.MaxMass, species))
		writeJSON(w, http.StatusOK, filtersResponse(session.Filter()))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func filtersResponse(f domain.FilterState) map[string]any {
	labels := make([]string, 0, len(f.Species()))
	for _, sp := range f.Species() {
		labels = append(labels, string(sp))
	}
	return map[string]any{"max_mass": f.MaxMass, "species": labels}
}

type summaryResponse struct {
	Count            int      `json:"count"`
	MeanBillLengthMM *float64 `json:"mean_bill_length_mm"`
	MeanBillDepthMM  *float64 `json:"mean_bill_depth_mm"`
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	summary := session.Summary()
	resp := summaryResponse{Count: summary.Count}
	if summary.Defined {
		length := roundMean(summary.MeanBillLengthMM)
		depth := roundMean(summary.MeanBillDepthMM)
		resp.MeanBillLengthMM = &length
		resp.MeanBillDepthMM = &depth
	}
	writeJSON(w, http.StatusOK, resp)
}

// roundMean snaps a mean to the one-decimal precision the dashboard shows.
func roundMean(v float64) float64 {
	parsed, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return parsed
}

func (h *Handler) handleRows(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	grid, _, err := gridFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := session.View()
	rows := grid.apply(view.Rows())

	format := negotiateFormat(r)
	if format == "" {
		writeError(w, http.StatusNotAcceptable, "requested format not supported")
		return
	}
	switch format {
	case "csv":
		streamCSV(w, rows)
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"columns": domain.GridColumns,
			"rows":    projectRows(rows),
			"total":   view.Len(),
		})
	}
}

func (h *Handler) handlePlot(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	width := intQuery(r, "width", plot.DefaultWidth)
	height := intQuery(r, "height", plot.DefaultHeight)

	png, err := plot.RenderScatter(session.View(), width, height)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

type exportRequest struct {
	Formats []string `json:"formats"`
}

func (h *Handler) handleExports(w http.ResponseWriter, r *http.Request, path string) {
	if path == "/api/v1/dashboard/exports" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		session := h.session(w, r)

		var req exportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			writeError(w, http.StatusBadRequest, "invalid export request payload")
			return
		}
		formats := make([]exports.Format, 0, len(req.Formats))
		for _, label := range req.Formats {
			format, err := exports.ParseFormat(strings.ToLower(strings.TrimSpace(label)))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			formats = append(formats, format)
		}

		record, err := h.Exports.Enqueue(r.Context(), exports.Input{
			Filter:  session.Filter(),
			Formats: formats,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
		return
	}

	if !strings.HasPrefix(path, "/api/v1/dashboard/exports/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(path, "/api/v1/dashboard/exports/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	record, ok := h.Exports.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": record})
}

// filterFromQuery builds the session filter from sidebar form values. An
// absent max_mass keeps the current value; an absent species list means no
// species selected, matching unchecked checkboxes.
func filterFromQuery(massValue string, speciesValues []string, current domain.FilterState) (domain.FilterState, error) {
	maxMass := current.MaxMass
	if massValue != "" {
		parsed, err := strconv.ParseFloat(massValue, 64)
		if err != nil {
			return domain.FilterState{}, fmt.Errorf("invalid max_mass %q", massValue)
		}
		maxMass = parsed
	}
	species := make([]domain.Species, 0, len(speciesValues))
	for _, label := range speciesValues {
		sp, err := domain.ParseSpecies(label)
		if err != nil {
			return domain.FilterState{}, err
		}
		species = append(species, sp)
	}
	return domain.NewFilter(maxMass, species), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func negotiateFormat(r *http.Request) string {
	wanted := strings.ToLower(r.URL.Query().Get("format"))
	if wanted == "" {
		if strings.Contains(r.Header.Get("Accept"), "text/csv") {
			wanted = "csv"
		} else {
			wanted = "json"
		}
	}
	switch wanted {
	case "csv", "json":
		return wanted
	}
	return ""
}

func streamCSV(w http.ResponseWriter, rows []domain.Penguin) {
	filename := fmt.Sprintf("penguins-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(domain.GridColumns); err != nil {
		return
	}
	for _, p := range rows {
		record := []string{
			string(p.Species),
			p.Island,
			strconv.FormatFloat(p.BillLengthMM, 'g', -1, 64),
			strconv.FormatFloat(p.BillDepthMM, 'g', -1, 64),
			strconv.FormatFloat(p.BodyMassG, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return
		}
	}
}

func projectRows(rows []domain.Penguin) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, p := range rows {
		out = append(out, map[string]any{
			"species":        p.Species,
			"island":         p.Island,
			"bill_length_mm": p.BillLengthMM,
			"bill_depth_mm":  p.BillDepthMM,
			"body_mass_g":    p.BodyMassG,
		})
	}
	return out
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
