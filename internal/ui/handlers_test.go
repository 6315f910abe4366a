package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/schedlab/internal/backend"
	"github.com/me/schedlab/internal/form"
	"github.com/me/schedlab/internal/store"
	"github.com/me/schedlab/internal/submit"
	"github.com/me/schedlab/pkg/model"
)

type fakeProvider struct {
	defs map[string]*model.AlgorithmDefinition
	err  error
}

func (p *fakeProvider) ListAlgorithms(ctx context.Context) ([]model.AlgorithmSummary, error) {
	if p.err != nil {
		return nil, p.err
	}
	var out []model.AlgorithmSummary
	for _, d := range p.defs {
		out = append(out, d.Summary())
	}
	return out, nil
}

func (p *fakeProvider) GetAlgorithm(ctx context.Context, name string) (*model.AlgorithmDefinition, error) {
	if p.err != nil {
		return nil, p.err
	}
	d, ok := p.defs[name]
	if !ok {
		return nil, backend.ErrAlgorithmNotFound
	}
	return d, nil
}

type fakeExecutor struct {
	result *model.Result
	err    error
	got    map[string]any
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, values map[string]any) (*model.Result, error) {
	f.got = values
	return f.result, f.err
}

type testEnv struct {
	ui     *UI
	router chi.Router
	exec   *fakeExecutor
	runs   store.Store
	forms  *form.Manager
}

func newTestEnv(t *testing.T, withHistory bool) *testEnv {
	t.Helper()
	provider := &fakeProvider{defs: map[string]*model.AlgorithmDefinition{"spt": sptDef()}}
	exec := &fakeExecutor{result: &model.Result{Outputs: map[string]json.RawMessage{
		"order":    json.RawMessage(`[1,0,2]`),
		"makespan": json.RawMessage(`9`),
	}}}

	var runs store.Store
	if withHistory {
		st, err := store.NewSQLiteStore(":memory:", testLogger())
		if err != nil {
			t.Fatal(err)
		}
		if err := st.Migrate(context.Background()); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { st.Close() })
		runs = st
	}

	forms := form.NewManager(form.DefaultOptions(), testLogger())
	svc := submit.NewService(exec, runs, time.Second, testLogger())
	ui := New(provider, forms, svc, runs, testLogger(), Config{SessionTTL: time.Hour})
	r := chi.NewRouter()
	ui.RegisterRoutes(r)
	return &testEnv{ui: ui, router: r, exec: exec, runs: runs, forms: forms}
}

// browser replays the session cookie like a real client.
type browser struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			b.cookie = c
		}
	}
	return rec
}

func TestHandleIndex(t *testing.T) {
	env := newTestEnv(t, true)
	b := &browser{t: t, h: env.router}

	rec := b.do(http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/algorithms/spt"`) || !strings.Contains(body, "Shortest Processing Time") {
		t.Errorf("algorithm missing from index:\n%s", body)
	}
	if b.cookie == nil {
		t.Error("expected a session cookie")
	}
}

func TestHandleIndex_ProviderFailure(t *testing.T) {
	env := newTestEnv(t, false)
	env.ui.schemas = &fakeProvider{err: &backend.StatusError{StatusCode: 503}}
	b := &browser{t: t, h: env.router}

	rec := b.do(http.MethodGet, "/", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to load algorithms") {
		t.Errorf("missing error message:\n%s", rec.Body.String())
	}
}

func TestHandleAlgorithm(t *testing.T) {
	env := newTestEnv(t, true)
	b := &browser{t: t, h: env.router}

	rec := b.do(http.MethodGet, "/algorithms/spt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		`name="v:num_jobs"`,
		`name="c:job_times:2:1"`,
		`name="c:dependencies:2:2"`,
		"Stage 1",
		"Depends on 3",
		"Job 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "c:job_times:3:0") {
		t.Error("matrix has more rows than the controller")
	}

	if rec := b.do(http.MethodGet, "/algorithms/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown algorithm status = %d, want 404", rec.Code)
	}
}

func TestHandleAlgorithmPost_UpdateReshapes(t *testing.T) {
	env := newTestEnv(t, true)
	b := &browser{t: t, h: env.router}
	b.do(http.MethodGet, "/algorithms/spt", nil)

	rec := b.do(http.MethodPost, "/algorithms/spt", url.Values{
		"action":             {"update"},
		"v:num_jobs":         {"4"},
		"c:job_times:0:0":    {"5"},
		"c:job_times:3:1":    {"8"},
		"c:dependencies:1:0": {"0", "1"},
		"c:job_times:9:9":    {"1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}

	st, ok := env.forms.Get(b.cookie.Value)
	if !ok {
		t.Fatal("session form not found")
	}
	v, _ := st.Get("job_times")
	m := v.(model.Matrix)
	if rows, cols := m.Shape(); rows != 4 || cols != 2 {
		t.Fatalf("shape = %dx%d, want 4x2", rows, cols)
	}
	if m[0][0] != int64(5) || m[3][1] != int64(8) {
		t.Errorf("cells = %v", m)
	}
	deps, _ := st.Get("dependencies")
	if deps.(model.Matrix)[1][0] != int64(1) {
		t.Errorf("checkbox cell not applied: %v", deps)
	}
	if !strings.Contains(rec.Body.String(), `name="c:job_times:3:1" value="8"`) {
		t.Error("re-rendered form missing new row value")
	}
}

func TestHandleAlgorithmPost_Submit(t *testing.T) {
	env := newTestEnv(t, true)
	b := &browser{t: t, h: env.router}
	b.do(http.MethodGet, "/algorithms/spt", nil)

	rec := b.do(http.MethodPost, "/algorithms/spt", url.Values{
		"action":          {"submit"},
		"v:num_jobs":      {"3"},
		"c:job_times:1:1": {"6"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Job order") || !strings.Contains(body, "1 0 2") {
		t.Errorf("results missing:\n%s", body)
	}
	if m := env.exec.got["job_times"].(model.Matrix); m[1][1] != int64(6) {
		t.Errorf("executor got %v", env.exec.got)
	}

	runs, total, err := env.runs.ListRuns(context.Background(), model.DefaultListOptions())
	if err != nil || total != 1 || runs[0].State != model.RunStateCompleted {
		t.Fatalf("runs = %+v total=%d err=%v", runs, total, err)
	}

	list := b.do(http.MethodGet, "/runs", nil)
	if !strings.Contains(list.Body.String(), "/runs/"+runs[0].ID) {
		t.Errorf("run list missing run:\n%s", list.Body.String())
	}
	if !strings.Contains(list.Body.String(), "This page: 1 completed, 0 failed") {
		t.Errorf("run list missing summary:\n%s", list.Body.String())
	}
	detail := b.do(http.MethodGet, "/runs/"+runs[0].ID, nil)
	if detail.Code != http.StatusOK || !strings.Contains(detail.Body.String(), "Processing times") {
		t.Errorf("run detail status=%d\n%s", detail.Code, detail.Body.String())
	}
	if rec := b.do(http.MethodGet, "/runs/run_missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d", rec.Code)
	}
}

func TestHandleAlgorithmPost_ExecutionFailureKeepsValues(t *testing.T) {
	env := newTestEnv(t, true)
	env.exec.err = &backend.ExecutionError{Algorithm: "spt", Message: "infeasible instance"}
	b := &browser{t: t, h: env.router}
	b.do(http.MethodGet, "/algorithms/spt", nil)

	rec := b.do(http.MethodPost, "/algorithms/spt", url.Values{
		"action":          {"submit"},
		"v:num_jobs":      {"2"},
		"c:job_times:1:0": {"4"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "infeasible instance") {
		t.Errorf("error message missing:\n%s", body)
	}
	if !strings.Contains(body, `name="c:job_times:1:0" value="4"`) {
		t.Error("values were not kept after the failure")
	}
	if !strings.Contains(body, "SUBMISSION_FAILED") {
		t.Error("state badge missing")
	}
}

func TestHandleAlgorithmPost_ValidationError(t *testing.T) {
	env := newTestEnv(t, false)
	b := &browser{t: t, h: env.router}
	b.do(http.MethodGet, "/algorithms/spt", nil)

	rec := b.do(http.MethodPost, "/algorithms/spt", url.Values{
		"action":     {"submit"},
		"v:num_jobs": {"0"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "must be between 1 and 20") {
		t.Errorf("field error missing:\n%s", rec.Body.String())
	}
	if env.exec.got != nil {
		t.Error("executor called for an invalid form")
	}
}

func TestHandleAlgorithmPost_LoadsWhenFormIsElsewhere(t *testing.T) {
	env := newTestEnv(t, false)
	b := &browser{t: t, h: env.router}

	// No prior GET: the session has no form yet.
	rec := b.do(http.MethodPost, "/algorithms/spt", url.Values{"action": {"update"}, "v:num_jobs": {"5"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	st, _ := env.forms.Get(b.cookie.Value)
	if rows, _ := st.Shape("job_times"); rows != 5 {
		t.Errorf("rows = %d, want 5", rows)
	}
}

func TestHandleRunList_Disabled(t *testing.T) {
	env := newTestEnv(t, false)
	b := &browser{t: t, h: env.router}

	rec := b.do(http.MethodGet, "/runs", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Run history is disabled") {
		t.Errorf("status=%d body:\n%s", rec.Code, rec.Body.String())
	}
	if rec := b.do(http.MethodGet, "/runs/run_1", nil); rec.Code != http.StatusNotFound {
		t.Errorf("detail status = %d, want 404", rec.Code)
	}
}

func TestSweepSessions(t *testing.T) {
	env := newTestEnv(t, false)
	b := &browser{t: t, h: env.router}
	b.do(http.MethodGet, "/algorithms/spt", nil)
	if env.forms.Len() != 1 {
		t.Fatalf("forms = %d", env.forms.Len())
	}

	env.ui.sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if n := env.ui.SweepSessions(); n != 1 {
		t.Errorf("swept %d, want 1", n)
	}
	if env.forms.Len() != 0 {
		t.Errorf("form outlived its session")
	}
}

func TestRenderTemplate_AllPages(t *testing.T) {
	for name := range templates {
		if name == "layout" || strings.HasPrefix(name, "components/") {
			continue
		}
		t.Run(name, func(t *testing.T) {
			var sb strings.Builder
			err := renderTemplate(&sb, name, map[string]any{
				"Title":      "t",
				"Message":    "m",
				"Form":       &formView{},
				"Pagination": map[string]any{},
				"Filter":     model.DefaultListOptions(),
			})
			if err != nil {
				t.Errorf("render %s: %v", name, err)
			}
		})
	}
}
