package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"penguindash/internal/adapters/exports"
	"penguindash/internal/blob"
	"penguindash/internal/core"
	"penguindash/pkg/domain"
)

func baseTable() domain.Table {
	return domain.NewTable([]domain.Penguin{
		{Species: domain.SpeciesAdelie, Island: "Torgersen", BillLengthMM: 39.1, BillDepthMM: 18.7, FlipperLengthMM: 181, BodyMassG: 3750, Sex: "male", Year: 2007},
		{Species: domain.SpeciesAdelie, Island: "Dream", BillLengthMM: 36.4, BillDepthMM: 17.0, FlipperLengthMM: 195, BodyMassG: 2850, Sex: "female", Year: 2008},
		{Species: domain.SpeciesGentoo, Island: "Biscoe", BillLengthMM: 46.1, BillDepthMM: 13.2, FlipperLengthMM: 211, BodyMassG: 4500, Sex: "female", Year: 2007},
		{Species: domain.SpeciesGentoo, Island: "Biscoe", BillLengthMM: 59.6, BillDepthMM: 17.0, FlipperLengthMM: 230, BodyMassG: 6300, Sex: "male", Year: 2009},
		{Species: domain.SpeciesChinstrap, Island: "Dream", BillLengthMM: 46.5, BillDepthMM: 17.9, FlipperLengthMM: 192, BodyMassG: 2700, Sex: "female", Year: 2008},
	})
}

type fixture struct {
	handler *Handler
	worker  *exports.Worker
	cookie  *http.Cookie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := baseTable()
	worker := exports.NewWorker(base, blob.NewMemory(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	worker.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = worker.Stop(ctx)
	})
	handler := NewHandler(core.NewService(base))
	handler.Exports = worker
	handler.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{handler: handler, worker: worker}
}

// do issues a request against the handler, carrying the session cookie
// across calls the way a browser would.
func (f *fixture) do(t *testing.T, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if f.cookie != nil {
		req.AddCookie(f.cookie)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookie {
			f.cookie = cookie
		}
	}
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSessionCookieContinuity(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/dashboard/filters", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if f.cookie == nil || f.cookie.Value == "" {
		t.Fatal("first request should mint a session cookie")
	}
	first := f.cookie.Value

	// Change the filter, then confirm a follow-up request with the cookie
	// sees the change and keeps the same session id.
	body := strings.NewReader(`{"max_mass": 4000, "species": ["Adelie"]}`)
	rec = f.do(t, http.MethodPut, "/api/v1/dashboard/filters", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("put filters status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/v1/dashboard/filters", nil, nil)
	var filters struct {
		MaxMass float64  `json:"max_mass"`
		Species []string `json:"species"`
	}
	decodeJSON(t, rec, &filters)
	if filters.MaxMass != 4000 || len(filters.Species) != 1 || filters.Species[0] != "Adelie" {
		t.Fatalf("filters after update = %+v", filters)
	}
	if f.cookie.Value != first {
		t.Fatalf("session id changed across requests: %q then %q", first, f.cookie.Value)
	}
}

func TestPutFiltersValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/v1/dashboard/filters", strings.NewReader(`{"species": ["Emperor"]}`), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown species status = %d, want 400", rec.Code)
	}

	// Out-of-range mass clamps instead of erroring.
	rec = f.do(t, http.MethodPut, "/api/v1/dashboard/filters", strings.NewReader(`{"max_mass": 9000, "species": ["Gentoo"]}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clamped mass status = %d: %s", rec.Code, rec.Body.String())
	}
	var filters struct {
		MaxMass float64 `json:"max_mass"`
	}
	decodeJSON(t, rec, &filters)
	if filters.MaxMass != domain.MassFilterMax {
		t.Fatalf("max_mass = %v, want clamp to %d", filters.MaxMass, domain.MassFilterMax)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	f := newFixture(t)

	body := strings.NewReader(`{"max_mass": 4000, "species": ["Adelie"]}`)
	if rec := f.do(t, http.MethodPut, "/api/v1/dashboard/filters", body, nil); rec.Code != http.StatusOK {
		t.Fatalf("put filters status = %d", rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil, nil)
	var summary struct {
		Count            int      `json:"count"`
		MeanBillLengthMM *float64 `json:"mean_bill_length_mm"`
		MeanBillDepthMM  *float64 `json:"mean_bill_depth_mm"`
	}
	decodeJSON(t, rec, &summary)
	if summary.Count != 2 {
		t.Fatalf("count = %d, want 2", summary.Count)
	}
	if summary.MeanBillLengthMM == nil || *summary.MeanBillLengthMM != 37.8 {
		t.Fatalf("mean bill length = %v, want 37.8", summary.MeanBillLengthMM)
	}
	if summary.MeanBillDepthMM == nil || *summary.MeanBillDepthMM != 17.9 {
		t.Fatalf("mean bill depth = %v, want 17.9", summary.MeanBillDepthMM)
	}
}

func TestSummaryEmptyViewMeansAreNull(t *testing.T) {
	f := newFixture(t)

	body := strings.NewReader(`{"max_mass": 6000, "species": []}`)
	if rec := f.do(t, http.MethodPut, "/api/v1/dashboard/filters", body, nil); rec.Code != http.StatusOK {
		t.Fatalf("put filters status = %d", rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil, nil)
	var raw map[string]json.RawMessage
	decodeJSON(t, rec, &raw)
	if string(raw["count"]) != "0" {
		t.Fatalf("count = %s, want 0", raw["count"])
	}
	for _, key := range []string{"mean_bill_length_mm", "mean_bill_depth_mm"} {
		if string(raw[key]) != "null" {
			t.Fatalf("%s = %s, want null", key, raw[key])
		}
	}
}

func TestRowsJSONAndGridFilters(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/dashboard/rows", nil, nil)
	var payload struct {
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
		Total   int              `json:"total"`
	}
	decodeJSON(t, rec, &payload)
	// Default filter drops only the 6300 g Gentoo (strict upper bound).
	if payload.Total != 4 || len(payload.Rows) != 4 {
		t.Fatalf("rows = %d total = %d, want 4/4", len(payload.Rows), payload.Total)
	}
	if len(payload.Columns) != len(domain.GridColumns) {
		t.Fatalf("columns = %v", payload.Columns)
	}

	// Grid filters narrow the rows without touching the session view.
	rec = f.do(t, http.MethodGet, "/api/v1/dashboard/rows?grid_island=dream&grid_mass_min=2800", nil, nil)
	decodeJSON(t, rec, &payload)
	if len(payload.Rows) != 1 || payload.Total != 4 {
		t.Fatalf("grid-filtered rows = %d total = %d, want 1/4", len(payload.Rows), payload.Total)
	}
	if payload.Rows[0]["island"] != "Dream" || payload.Rows[0]["species"] != "Adelie" {
		t.Fatalf("unexpected row %+v", payload.Rows[0])
	}

	rec = f.do(t, http.MethodGet, "/api/v1/dashboard/rows?grid_mass_min=abc", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid grid bound status = %d, want 400", rec.Code)
	}
}

func TestRowsCSVNegotiation(t *testing.T) {
	f := newFixture(t)

	for name, request := range map[string]func() *httptest.ResponseRecorder{
		"query": func() *httptest.ResponseRecorder {
			return f.do(t, http.MethodGet, "/api/v1/dashboard/rows?format=csv", nil, nil)
		},
		"accept": func() *httptest.ResponseRecorder {
			header := http.Header{}
			header.Set("Accept", "text/csv")
			return f.do(t, http.MethodGet, "/api/v1/dashboard/rows", nil, header)
		},
	} {
		rec := request()
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", name, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "text/csv" {
			t.Fatalf("%s: content type = %q", name, got)
		}
		records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
		if err != nil {
			t.Fatalf("%s: parse csv: %v", name, err)
		}
		if len(records) != 5 {
			t.Fatalf("%s: csv rows = %d, want header plus 4", name, len(records))
		}
		if fmt.Sprint(records[0]) != fmt.Sprint(domain.GridColumns) {
			t.Fatalf("%s: header = %v", name, records[0])
		}
	}

	rec := f.do(t, http.MethodGet, "/api/v1/dashboard/rows?format=parquet", nil, nil)
	if rec.Code != http.StatusNotAcceptable {
		t.Fatalf("unsupported format status = %d, want 406", rec.Code)
	}
}

func TestPlotEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/dashboard/plot?width=320&height=200", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("content type = %q", got)
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if bounds := img.Bounds(); bounds.Dx() != 320 || bounds.Dy() != 200 {
		t.Fatalf("image size = %dx%d, want 320x200", bounds.Dx(), bounds.Dy())
	}
}

func TestDashboardPage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/?max_mass=4000&species=Adelie&grid_island=dream", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	html := rec.Body.String()
	for _, want := range []string{"Penguins dashboard", `value="4000"`, "Dream", "36.4"} {
		if !strings.Contains(html, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if strings.Contains(html, "Torgersen") {
		t.Fatal("grid filter should hide the Torgersen row")
	}

	// The sidebar state persisted into the session.
	rec = f.do(t, http.MethodGet, "/api/v1/dashboard/filters", nil, nil)
	var filters struct {
		MaxMass float64  `json:"max_mass"`
		Species []string `json:"species"`
	}
	decodeJSON(t, rec, &filters)
	if filters.MaxMass != 4000 || len(filters.Species) != 1 {
		t.Fatalf("session filter = %+v", filters)
	}
}

func TestExportLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)

	body := strings.NewReader(`{"formats": ["csv"]}`)
	rec := f.do(t, http.MethodPost, "/api/v1/dashboard/exports", body, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Export exports.Record `json:"export"`
	}
	decodeJSON(t, rec, &created)
	if created.Export.ID == "" {
		t.Fatal("export id missing")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = f.do(t, http.MethodGet, "/api/v1/dashboard/exports/"+created.Export.ID, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("get export status = %d", rec.Code)
		}
		var got struct {
			Export exports.Record `json:"export"`
		}
		decodeJSON(t, rec, &got)
		if got.Export.Status == exports.StatusSucceeded {
			if len(got.Export.Artifacts) != 1 || got.Export.Artifacts[0].Format != exports.FormatCSV {
				t.Fatalf("artifacts = %+v", got.Export.Artifacts)
			}
			break
		}
		if got.Export.Status == exports.StatusFailed {
			t.Fatalf("export failed: %s", got.Export.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("export stuck in status %s", got.Export.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/dashboard/exports/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown export status = %d, want 404", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/v1/dashboard/exports", strings.NewReader(`{"formats": ["parquet"]}`), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported format status = %d, want 400", rec.Code)
	}
}

func TestMethodAndRouteFallthrough(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/v1/dashboard/filters", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("delete filters status = %d, want 405", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/v1/dashboard/unknown", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route status = %d, want 404", rec.Code)
	}
}
