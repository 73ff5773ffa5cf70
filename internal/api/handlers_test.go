package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmrzaf/sbgen/internal/app"
	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/infra/repos/profiles"
	"github.com/mmrzaf/sbgen/internal/infra/repos/runs"
	"github.com/mmrzaf/sbgen/internal/infra/repos/targets"
	"github.com/mmrzaf/sbgen/internal/logging"
	"github.com/mmrzaf/sbgen/internal/metrics"
	"github.com/mmrzaf/sbgen/internal/registry"
)

func newTestHandler(t *testing.T) (*Handler, *app.RunService, *runs.SQLiteRepository) {
	t.Helper()
	root := t.TempDir()

	runRepo := runs.NewSQLiteRepository(filepath.Join(root, "runs.db"))
	if err := runRepo.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = runRepo.Close() })

	runSvc := app.NewRunService(
		profiles.NewFileRepository(filepath.Join(root, "profiles")),
		targets.NewFileRepository(filepath.Join(root, "targets")),
		runRepo,
		registry.DefaultTableRegistry(),
		metrics.New(),
		logging.NewLogger("error"),
		app.Options{Workers: 2, BatchSize: 50},
	)
	return NewHandler(runSvc), runSvc, runRepo
}

func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Routes(mux)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestGetRun_ReturnsProgressFields(t *testing.T) {
	h, _, runRepo := newTestHandler(t)
	run := &domain.Run{
		ID:            "run-1",
		TargetKind:    domain.TargetKindFile,
		Tables:        []string{"vehicle", "trip"},
		ScaleFactor:   1,
		Parts:         4,
		ConfigHash:    "abc",
		Status:        domain.RunStatusRunning,
		StartedAt:     time.Now().UTC(),
		RowsGenerated: 12,
		RowsTotal:     50,
		CurrentTable:  "trip",
	}
	if err := runRepo.Create(run); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1", nil)
	req.SetPathValue("id", "run-1")
	rec := httptest.NewRecorder()
	h.GetRun(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var got domain.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.RowsGenerated != 12 || got.RowsTotal != 50 {
		t.Fatalf("unexpected progress rows: %#v", got)
	}
	if got.CurrentTable != "trip" || len(got.Tables) != 2 {
		t.Fatalf("unexpected progress table: %#v", got)
	}
}

func TestGetRun_UnknownIs404(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := serve(h, http.MethodGet, "/api/v1/runs/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = serve(h, http.MethodGet, "/api/v1/runs/missing/logs", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for logs, got %d", rec.Code)
	}
}

func TestGetRunLogs_ReturnsMostRecentLogs(t *testing.T) {
	h, _, runRepo := newTestHandler(t)
	run := &domain.Run{
		ID:         "run-2",
		TargetKind: domain.TargetKindFile,
		ConfigHash: "abc",
		Status:     domain.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	if err := runRepo.Create(run); err != nil {
		t.Fatal(err)
	}
	if err := runRepo.AppendRunLog("run-2", "info", "first"); err != nil {
		t.Fatal(err)
	}
	if err := runRepo.AppendRunLog("run-2", "info", "second"); err != nil {
		t.Fatal(err)
	}

	rec := serve(h, http.MethodGet, "/api/v1/runs/run-2/logs?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var logs []*domain.RunLog
	if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].Message != "second" {
		t.Fatalf("expected most recent log first, got %#v", logs[0])
	}
}

func TestListTables(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := serve(h, http.MethodGet, "/api/v1/tables", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var tables []tableInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &tables); err != nil {
		t.Fatal(err)
	}
	if len(tables) != 6 {
		t.Fatalf("expected 6 tables, got %d", len(tables))
	}
	if tables[0].Name != "vehicle" || tables[0].RowsAtSF1 != 100 || len(tables[0].Columns) == 0 {
		t.Fatalf("unexpected first table: %#v", tables[0])
	}
}

func TestPreviewTable(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := serve(h, http.MethodGet, "/api/v1/tables/customer/preview?scale_factor=0.01&limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var p app.TablePreview
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Table != "customer" || p.TotalRows != 300 || len(p.Rows) != 3 {
		t.Fatalf("unexpected preview: %#v", p)
	}
	for _, row := range p.Rows {
		if len(row) != len(p.Columns) {
			t.Fatalf("row has %d values for %d columns", len(row), len(p.Columns))
		}
	}
	// first column is the key, decoded by encoding/json as float64
	if p.Rows[0][0].(float64) != 1 {
		t.Fatalf("expected key 1, got %v", p.Rows[0][0])
	}
}

func TestPreviewTable_BadInput(t *testing.T) {
	h, _, _ := newTestHandler(t)
	cases := []struct {
		path string
		code int
	}{
		{"/api/v1/tables/nope/preview", http.StatusNotFound},
		{"/api/v1/tables/vehicle/preview?limit=0", http.StatusBadRequest},
		{"/api/v1/tables/vehicle/preview?limit=abc", http.StatusBadRequest},
		{"/api/v1/tables/vehicle/preview?scale_factor=x", http.StatusBadRequest},
		{"/api/v1/tables/vehicle/preview?scale_factor=-1", http.StatusBadRequest},
	}
	for _, c := range cases {
		rec := serve(h, http.MethodGet, c.path, "")
		if rec.Code != c.code {
			t.Fatalf("%s: expected %d, got %d", c.path, c.code, rec.Code)
		}
	}
}

func TestPlanRun(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := serve(h, http.MethodPost, "/api/v1/runs/plan", `{"tables":["customer"],"scale_factor":0.01,"parts":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var plan app.RunPlan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatal(err)
	}
	if plan.TotalRows != 300 || plan.Parts != 2 || plan.ConfigHash == "" {
		t.Fatalf("unexpected plan: %#v", plan)
	}
}

func TestPlanRun_Rejects(t *testing.T) {
	h, _, _ := newTestHandler(t)
	cases := []struct {
		body string
		code int
	}{
		{`{"tables":`, http.StatusBadRequest},
		{`{"tables":["vehicle"],"seed":1}`, http.StatusBadRequest},
		{`{"tables":["vehicle"],"scale_factor":-1}`, http.StatusBadRequest},
		{`{"tables":["nope"]}`, http.StatusBadRequest},
		{`{"profile_id":"missing"}`, http.StatusNotFound},
	}
	for _, c := range cases {
		rec := serve(h, http.MethodPost, "/api/v1/runs/plan", c.body)
		if rec.Code != c.code {
			t.Fatalf("%s: expected %d, got %d body=%s", c.body, c.code, rec.Code, rec.Body.String())
		}
	}
}

func TestCreateRun_GeneratesInBackground(t *testing.T) {
	h, svc, _ := newTestHandler(t)
	out := t.TempDir()
	body := `{"tables":["vehicle"],"scale_factor":0.1,"format":"csv","output_dir":` + jsonString(out) + `}`
	rec := serve(h, http.MethodPost, "/api/v1/runs", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var run domain.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatal(err)
	}
	if run.ID == "" || run.RowsTotal != 10 {
		t.Fatalf("unexpected run: %#v", run)
	}

	svc.Wait()
	rec = serve(h, http.MethodGet, "/api/v1/runs/"+run.ID, "")
	var done domain.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &done); err != nil {
		t.Fatal(err)
	}
	if done.Status != domain.RunStatusSuccess || done.RowsGenerated != 10 {
		t.Fatalf("unexpected finished run: %#v", done)
	}

	rec = serve(h, http.MethodGet, "/api/v1/runs?status=success", "")
	var list []*domain.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != run.ID {
		t.Fatalf("unexpected run list: %#v", list)
	}
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := serve(h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestTargetsAndProfilesEmpty(t *testing.T) {
	h, _, _ := newTestHandler(t)
	for _, path := range []string{"/api/v1/targets", "/api/v1/profiles"} {
		rec := serve(h, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d body=%s", path, rec.Code, rec.Body.String())
		}
	}
	rec := serve(h, http.MethodGet, "/api/v1/targets/none", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
