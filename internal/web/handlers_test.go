package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/intake/internal/journal"
	"github.com/hpungsan/intake/internal/metrics"
	"github.com/hpungsan/intake/internal/persona"
	"github.com/hpungsan/intake/internal/record"
)

type fixedCount int

func (c fixedCount) Count() int { return int(c) }

type testEnv struct {
	handler  http.Handler
	journal  *journal.File
	registry *persona.Registry
	metrics  *metrics.Collector
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	j, err := journal.NewFile(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("journal.NewFile: %v", err)
	}
	t.Cleanup(func() { j.Close() })

	env := &testEnv{
		journal:  j,
		registry: persona.NewRegistry(persona.Options{}),
		metrics:  metrics.NewCollector("intake"),
	}
	handler, err := NewHandler(Options{
		Journal:  j,
		Registry: env.registry,
		Metrics:  env.metrics,
		Sessions: fixedCount(2),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	env.handler = handler
	return env
}

// seedEntry appends an entry to the journal.
func seedEntry(t *testing.T, env *testEnv, name, session string, fields map[string]record.Value, at time.Time) journal.Entry {
	t.Helper()
	e := journal.NewEntry(name, session, fields, at)
	if err := env.journal.Append(context.Background(), e); err != nil {
		t.Fatalf("seed entry %s/%s: %v", name, session, err)
	}
	return e
}

func seedOrder(t *testing.T, env *testEnv, name string, at time.Time) journal.Entry {
	t.Helper()
	return seedEntry(t, env, "order", "s-"+name, map[string]record.Value{
		"name":       record.TextValue(name),
		"drink_type": record.TextValue("latte"),
		"size":       record.TextValue("medium"),
		"milk":       record.TextValue("oat"),
		"extras":     record.ListValue("vanilla"),
	}, at)
}

func get(t *testing.T, env *testEnv, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	return w
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// --- routing ---

func TestRoot_RedirectsToRecords(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/records" {
		t.Errorf("expected redirect to /records, got %q", loc)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/records", nil)
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'self'") {
		t.Errorf("Content-Security-Policy = %q", got)
	}
}

func TestStatic_ServesStylesheet(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/static/style.css", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "table.records") {
		t.Error("stylesheet body missing")
	}
}

// --- HandleRecords ---

func TestRecords_Empty(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/records", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No records yet.") {
		t.Error("expected empty state")
	}
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("expected full layout")
	}
}

func TestRecords_ListsAllPersonasNewestFirst(t *testing.T) {
	env := setupTest(t)
	seedOrder(t, env, "Alex", base)
	seedEntry(t, env, "wellness", "s-w", map[string]record.Value{
		"mood":       record.TextValue("good"),
		"energy":     record.TextValue("4"),
		"objectives": record.ListValue("walk"),
	}, base.Add(time.Hour))

	w := get(t, env, "/records", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	alex := strings.Index(body, "Alex")
	walk := strings.Index(body, "walk")
	if alex < 0 || walk < 0 {
		t.Fatalf("expected both entries in body")
	}
	if walk > alex {
		t.Error("expected the newer wellness entry before the order")
	}
	if !strings.Contains(body, "2026-03-01 09:00") {
		t.Error("expected formatted timestamp")
	}
}

func TestRecords_FieldsFollowSchemaOrder(t *testing.T) {
	env := setupTest(t)
	seedOrder(t, env, "Alex", base)

	w := get(t, env, "/records/order", nil)
	body := w.Body.String()
	order := []string{"<dt>name</dt>", "<dt>drink_type</dt>", "<dt>size</dt>", "<dt>milk</dt>", "<dt>extras</dt>"}
	last := -1
	for _, s := range order {
		i := strings.Index(body, s)
		if i < 0 {
			t.Fatalf("missing %s", s)
		}
		if i < last {
			t.Errorf("%s out of schema order", s)
		}
		last = i
	}
}

func TestRecords_HTMXReturnsContentOnly(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/records", map[string]string{"HX-Request": "true"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("HTMX response should not include layout")
	}
}

func TestRecords_JSONViaAccept(t *testing.T) {
	env := setupTest(t)
	seedOrder(t, env, "Alex", base)
	seedOrder(t, env, "Sam", base.Add(time.Minute))

	w := get(t, env, "/records", map[string]string{"Accept": "application/json"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out struct {
		Count   int              `json:"count"`
		Entries []map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 || len(out.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", out.Count)
	}
	if out.Entries[0]["name"] != "Alex" {
		t.Errorf("expected append order, first = %v", out.Entries[0]["name"])
	}
	if out.Entries[1]["persona"] != "order" {
		t.Errorf("persona = %v", out.Entries[1]["persona"])
	}
}

func TestRecords_JSONSuffix(t *testing.T) {
	env := setupTest(t)
	seedOrder(t, env, "Alex", base)
	seedEntry(t, env, "lead", "s-l", map[string]record.Value{
		"Name": record.TextValue("Jo"),
	}, base)

	w := get(t, env, "/records/order.json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var out struct {
		Persona string           `json:"persona"`
		Entries []map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Persona != "order" || len(out.Entries) != 1 {
		t.Fatalf("expected one order entry, got %+v", out)
	}
	if out.Entries[0]["extras"] == nil {
		t.Error("expected extras list in entry")
	}
}

func TestRecords_EmptyJSONIsArray(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/records/lead.json", nil)
	if !strings.Contains(w.Body.String(), `"entries":[]`) {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

func TestRecords_Limit(t *testing.T) {
	env := setupTest(t)
	for i, name := range []string{"A", "B", "C"} {
		seedOrder(t, env, name, base.Add(time.Duration(i)*time.Minute))
	}

	w := get(t, env, "/records/order.json?limit=2", nil)
	var out struct {
		Entries []map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out.Entries))
	}
	if out.Entries[0]["name"] != "B" || out.Entries[1]["name"] != "C" {
		t.Errorf("expected most recent two, got %v %v", out.Entries[0]["name"], out.Entries[1]["name"])
	}
}

func TestRecords_InvalidLimit(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/records?limit=-1", map[string]string{"Accept": "application/json"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "INVALID_REQUEST") {
		t.Errorf("expected error code, got %s", w.Body.String())
	}
}

func TestRecords_UnknownPersona(t *testing.T) {
	env := setupTest(t)

	w := get(t, env, "/records/pirate", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Error 404") {
		t.Error("expected HTML error page")
	}

	w = get(t, env, "/records/pirate", map[string]string{"HX-Request": "true"})
	if !strings.Contains(w.Body.String(), `class="error-message"`) {
		t.Error("expected HTMX error fragment")
	}
}

func TestRecords_PersonaQueryParam(t *testing.T) {
	env := setupTest(t)
	seedOrder(t, env, "Alex", base)
	seedEntry(t, env, "lead", "s-l", map[string]record.Value{"Name": record.TextValue("Jo")}, base)

	w := get(t, env, "/records?persona=lead&format=json", nil)
	var out struct {
		Persona string           `json:"persona"`
		Entries []map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Persona != "lead" || len(out.Entries) != 1 || out.Entries[0]["Name"] != "Jo" {
		t.Errorf("expected only the lead entry, got %+v", out)
	}

	w = get(t, env, "/records?persona=pirate", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown persona, got %d", w.Code)
	}
}

func TestRecords_PersonaFilterMarksActive(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/records/wellness", nil)
	body := w.Body.String()
	if !strings.Contains(body, "<h1>Check-ins</h1>") {
		t.Error("expected persona heading")
	}
	if !strings.Contains(body, `href="/records/wellness" class="active"`) {
		t.Error("expected active filter link")
	}
}

// --- HandleConcepts ---

func TestConcepts_RendersMarkdown(t *testing.T) {
	catalog, err := persona.NewCatalog([]persona.Concept{
		{ID: "maps", Title: "Maps", Summary: "A **map** stores key/value pairs.", SampleQuestion: "How do you delete a key?"},
		{ID: "raw", Title: "Raw", Summary: "<script>alert(1)</script> plain"},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	j, err := journal.NewFile(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("journal.NewFile: %v", err)
	}
	handler, err := NewHandler(Options{
		Journal:  j,
		Registry: persona.NewRegistry(persona.Options{Concepts: catalog}),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/concepts", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<strong>map</strong>") {
		t.Error("expected markdown emphasis to render")
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("raw HTML in summary must not be rendered")
	}
	if !strings.Contains(body, "How do you delete a key?") {
		t.Error("expected sample question")
	}
	if !strings.Contains(body, "<code>teach_back</code>") {
		t.Error("expected modes listed")
	}
}

func TestConcepts_JSON(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/concepts", map[string]string{"Accept": "application/json"})
	var out struct {
		Concepts []persona.Concept `json:"concepts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Concepts) != env.registry.Concepts.Len() {
		t.Errorf("expected %d concepts, got %d", env.registry.Concepts.Len(), len(out.Concepts))
	}
}

// --- HandleHealth / metrics ---

func TestHealth(t *testing.T) {
	env := setupTest(t)
	w := get(t, env, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["status"] != "ok" {
		t.Errorf("status = %v", out["status"])
	}
	if out["sessions"] != float64(2) {
		t.Errorf("sessions = %v", out["sessions"])
	}
}

func TestMetrics_Exposed(t *testing.T) {
	env := setupTest(t)
	env.metrics.RecordFinalized("order", false)

	w := get(t, env, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "intake_records_finalized_total") {
		t.Error("expected finalized counter in exposition")
	}
}

func TestMetrics_AbsentWithoutCollector(t *testing.T) {
	j, err := journal.NewFile(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("journal.NewFile: %v", err)
	}
	handler, err := NewHandler(Options{Journal: j, Registry: persona.NewRegistry(persona.Options{})})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// --- helpers ---

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", defaultLimit, false},
		{"limit=10", 10, false},
		{"limit=0", maxLimit, false},
		{"limit=100000", maxLimit, false},
		{"limit=abc", 0, true},
		{"limit=-5", 0, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/records?"+tt.query, nil)
		got, err := parseLimit(req)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLimit(%q) err = %v", tt.query, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestToRow_UnknownFieldsSortedAfterSchema(t *testing.T) {
	reg := persona.NewRegistry(persona.Options{})
	p, _ := reg.Lookup("order")
	e := journal.Entry{
		ID:      "x",
		Persona: "order",
		Fields: map[string]record.Value{
			"zeta":  record.TextValue("z"),
			"name":  record.TextValue("Alex"),
			"alpha": record.TextValue("a"),
		},
	}
	row := toRow(e, p.Schema)
	var names []string
	for _, f := range row.Fields {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "name,alpha,zeta" {
		t.Errorf("field order = %v", names)
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Time{}); got != "-" {
		t.Errorf("zero time = %q", got)
	}
	if got := formatTime(base); got != "2026-03-01 09:00" {
		t.Errorf("formatTime = %q", got)
	}
}
