package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mmrzaf/sbgen/internal/app"
	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/registry"
	"github.com/mmrzaf/sbgen/internal/validation"
)

type Handler struct {
	runService *app.RunService
}

func NewHandler(runService *app.RunService) *Handler {
	return &Handler{runService: runService}
}

// Routes registers every API endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/tables", h.ListTables)
	mux.HandleFunc("GET /api/v1/tables/{name}/preview", h.PreviewTable)

	mux.HandleFunc("GET /api/v1/profiles", h.ListProfiles)
	mux.HandleFunc("GET /api/v1/profiles/{id}", h.GetProfile)

	mux.HandleFunc("GET /api/v1/targets", h.ListTargets)
	mux.HandleFunc("GET /api/v1/targets/{id}", h.GetTarget)
	mux.HandleFunc("POST /api/v1/targets/{id}/check", h.CheckTarget)

	mux.HandleFunc("POST /api/v1/runs", h.CreateRun)
	mux.HandleFunc("POST /api/v1/runs/plan", h.PlanRun)
	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.GetRun)
	mux.HandleFunc("GET /api/v1/runs/{id}/logs", h.GetRunLogs)

	mux.HandleFunc("GET /healthz", h.Health)
}

type tableInfo struct {
	Name       string          `json:"name"`
	Alias      string          `json:"alias"`
	AvgRowSize int64           `json:"avg_row_size"`
	RowsAtSF1  int64           `json:"rows_at_sf1"`
	Columns    []domain.Column `json:"columns"`
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	entries := h.runService.Tables().List()
	out := make([]tableInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, tableInfo{
			Name:       e.Name,
			Alias:      e.Alias,
			AvgRowSize: e.AvgRowSize,
			RowsAtSF1:  e.TotalRows(1),
			Columns:    e.Schema.Columns,
		})
	}
	writeJSON(w, out)
}

func (h *Handler) PreviewTable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, err := h.runService.Tables().Get(name); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	var sf float64
	if v := q.Get("scale_factor"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid scale_factor", http.StatusBadRequest)
			return
		}
		sf = parsed
	}
	limit := app.DefaultPreviewRows
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > app.MaxPreviewRows {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	preview, err := h.runService.PreviewTable(name, sf, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, preview)
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	list, err := h.runService.ListProfiles()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.runService.GetProfile(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p)
}

// Targets are read-only here; definitions live in the targets directory.
// DSNs are redacted on output.

func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	list, err := h.runService.ListTargets()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) GetTarget(w http.ResponseWriter, r *http.Request) {
	t, err := h.runService.GetTarget(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, t)
}

func (h *Handler) CheckTarget(w http.ResponseWriter, r *http.Request) {
	res, err := h.runService.CheckTarget(r.PathValue("id"))
	if res != nil {
		writeJSON(w, res)
		return
	}
	writeError(w, err)
}

// Runs

func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req domain.RunRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	run, err := h.runService.StartRun(&req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(run)
}

func (h *Handler) PlanRun(w http.ResponseWriter, r *http.Request) {
	var req domain.RunRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	plan, err := h.runService.PlanRun(&req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, plan)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	runs, err := h.runService.ListRuns(limit, r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runService.GetRun(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, run)
}

func (h *Handler) GetRunLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit := 200
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 2000 {
			limit = n
		}
	}
	logs, err := h.runService.GetRunLogs(id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, logs)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case app.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, validation.ErrInvalidRequest), errors.Is(err, registry.ErrUnknownTable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSONStrict(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
