package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/schedlab/internal/backend"
	"github.com/me/schedlab/internal/form"
	"github.com/me/schedlab/internal/store"
	"github.com/me/schedlab/internal/submit"
	"github.com/me/schedlab/pkg/model"
)

const appName = "schedlab"

// UI handles the web user interface.
type UI struct {
	schemas   backend.SchemaProvider
	forms     *form.Manager
	submitter *submit.Service
	runs      store.Store // nil when run history is disabled
	sessions  *SessionManager
	logger    *slog.Logger
	secure    bool // Use secure cookies (HTTPS)
}

// Config holds UI configuration.
type Config struct {
	Secure     bool          // Use secure cookies for HTTPS
	SessionTTL time.Duration // Idle lifetime of a browser session
}

// New creates a new UI handler. runs may be nil.
func New(schemas backend.SchemaProvider, forms *form.Manager, submitter *submit.Service, runs store.Store, logger *slog.Logger, cfg Config) *UI {
	return &UI{
		schemas:   schemas,
		forms:     forms,
		submitter: submitter,
		runs:      runs,
		sessions:  NewSessionManager(cfg.SessionTTL),
		logger:    logger.With("component", "ui"),
		secure:    cfg.Secure,
	}
}

// SweepSessions drops expired sessions together with their forms.
func (ui *UI) SweepSessions() int {
	expired := ui.sessions.CleanupExpiredSessions()
	for _, id := range expired {
		ui.forms.Delete(id)
	}
	if len(expired) > 0 {
		ui.logger.Info("expired sessions removed", "count", len(expired))
	}
	return len(expired)
}

// HandleIndex lists the available algorithms.
func (ui *UI) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title": "Algorithms - " + appName,
	}
	algos, err := ui.schemas.ListAlgorithms(r.Context())
	if err != nil {
		ui.logger.Warn("list algorithms failed", "error", err)
		data["Error"] = "Failed to load algorithms. " + backend.UserMessage(err)
		ui.render(w, http.StatusBadGateway, "index", data)
		return
	}
	data["Algorithms"] = algos
	ui.render(w, http.StatusOK, "index", data)
}

// HandleAlgorithm loads the algorithm into the session's form, resetting
// every value to its default.
func (ui *UI) HandleAlgorithm(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	name := chi.URLParam(r, "name")
	st := ui.forms.GetOrCreate(sess.ID)

	if !ui.loadAlgorithm(w, r, st, name) {
		return
	}
	ui.renderForm(w, http.StatusOK, st, "")
}

// HandleAlgorithmPost applies the posted values and, for action=submit,
// runs the algorithm.
func (ui *UI) HandleAlgorithmPost(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	name := chi.URLParam(r, "name")
	st := ui.forms.GetOrCreate(sess.ID)

	if snap := st.Snapshot(); snap.Algorithm() != name {
		// Another tab switched the session's form; start this algorithm over.
		if !ui.loadAlgorithm(w, r, st, name) {
			return
		}
	}

	if err := r.ParseForm(); err != nil {
		ui.renderForm(w, http.StatusBadRequest, st, "Invalid form data.")
		return
	}
	applyForm(st, r.PostForm, ui.logger)

	if r.PostFormValue("action") != "submit" {
		ui.renderForm(w, http.StatusOK, st, "")
		return
	}

	out, err := ui.submitter.Submit(r.Context(), st)
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		ui.renderForm(w, http.StatusUnprocessableEntity, st, "Fix the highlighted fields before running.")
	case errors.Is(err, form.ErrSubmissionInFlight):
		ui.renderForm(w, http.StatusConflict, st, "A run is already in progress for this form.")
	case err != nil:
		ui.renderError(w, "Failed to run the algorithm", err)
	default:
		ui.logger.Info("run finished", "session", sess.ID, "algorithm", name, "run_id", out.Run.ID, "state", out.Run.State)
		ui.renderForm(w, http.StatusOK, st, "")
	}
}

// HandleRunList renders the run history.
func (ui *UI) HandleRunList(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title": "Runs - " + appName,
	}
	if ui.runs == nil {
		data["Disabled"] = true
		ui.render(w, http.StatusOK, "runs/list", data)
		return
	}

	opts := ui.parseListOptions(r)
	runs, total, err := ui.runs.ListRuns(r.Context(), opts)
	if err != nil {
		ui.renderError(w, "Failed to load runs", err)
		return
	}
	data["Runs"] = runs
	data["Summary"] = model.ComputeRunSummary(runs)
	data["Filter"] = opts
	data["Pagination"] = ui.buildPagination(opts, total)
	ui.render(w, http.StatusOK, "runs/list", data)
}

// HandleRunDetail renders one recorded run with its inputs and result.
func (ui *UI) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	if ui.runs == nil {
		ui.renderNotFound(w, "Run history is disabled")
		return
	}
	id := chi.URLParam(r, "id")
	run, err := ui.runs.GetRun(r.Context(), id)
	if err != nil {
		ui.renderError(w, "Failed to load run", err)
		return
	}
	if run == nil {
		ui.renderNotFound(w, "Run not found")
		return
	}

	def := ui.definitionFor(r.Context(), run.Algorithm)
	data := map[string]any{
		"Title":  "Run " + run.ID + " - " + appName,
		"Run":    run,
		"Inputs": buildInputViews(def, run.Inputs),
	}
	if run.Result != nil {
		data["Outputs"] = buildOutputViews(def, run.Result)
		data["Gantt"] = buildGantt(run.Result.Gantt)
	}
	ui.render(w, http.StatusOK, "runs/detail", data)
}

// loadAlgorithm fetches the definition and resets st onto it. It renders the
// failure page and returns false when the definition cannot be used.
func (ui *UI) loadAlgorithm(w http.ResponseWriter, r *http.Request, st *form.Store, name string) bool {
	def, err := ui.schemas.GetAlgorithm(r.Context(), name)
	if errors.Is(err, backend.ErrAlgorithmNotFound) {
		ui.renderNotFound(w, "Algorithm not found")
		return false
	}
	if err != nil {
		ui.logger.Warn("load algorithm failed", "algorithm", name, "error", err)
		ui.render(w, http.StatusBadGateway, "error", map[string]any{
			"Title":   "Error - " + appName,
			"Message": "Failed to load the algorithm. " + backend.UserMessage(err),
		})
		return false
	}
	if err := st.Load(def); err != nil {
		ui.renderError(w, "The algorithm definition is invalid", err)
		return false
	}
	return true
}

// definitionFor returns the current definition of name, or a bare one when
// it is no longer available.
func (ui *UI) definitionFor(ctx context.Context, name string) *model.AlgorithmDefinition {
	def, err := ui.schemas.GetAlgorithm(ctx, name)
	if err != nil {
		ui.logger.Debug("definition unavailable", "algorithm", name, "error", err)
		return &model.AlgorithmDefinition{Name: name, Title: name}
	}
	return def
}

func (ui *UI) renderForm(w http.ResponseWriter, status int, st *form.Store, notice string) {
	view := buildFormView(st.Snapshot())
	title := appName
	if view.Algorithm != nil {
		title = titleOf(view.Algorithm.Title, view.Algorithm.Name) + " - " + appName
	}
	ui.render(w, status, "algorithm", map[string]any{
		"Title":  title,
		"Form":   view,
		"Notice": notice,
	})
}

// applyForm writes posted scalar fields ("v:<name>") in definition order,
// then matrix cells ("c:<name>:<row>:<col>"). Scalars go first so cells land
// in the reshaped matrices. For repeated keys the last value wins, which lets
// a hidden "0" precede a checkbox.
func applyForm(st *form.Store, values url.Values, logger *slog.Logger) {
	schema := st.Schema()
	if schema == nil {
		return
	}
	def := schema.Definition()
	for i := range def.Parameters {
		p := &def.Parameters[i]
		vals, ok := values["v:"+p.Name]
		if !ok || len(vals) == 0 {
			continue
		}
		if err := st.Set(p.Name, vals[len(vals)-1]); err != nil {
			logger.Debug("field rejected", "field", p.Name, "error", err)
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.HasPrefix(k, "c:") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		name, row, col, ok := parseCellKey(k)
		if !ok {
			continue
		}
		vals := values[k]
		err := st.SetCell(name, row, col, vals[len(vals)-1])
		if err != nil && !errors.Is(err, form.ErrCellOutOfRange) {
			logger.Debug("cell rejected", "field", name, "row", row, "col", col, "error", err)
		}
	}
}

// parseCellKey splits "c:<name>:<row>:<col>". The name may itself contain colons.
func parseCellKey(key string) (name string, row, col int, ok bool) {
	rest := strings.TrimPrefix(key, "c:")
	j := strings.LastIndexByte(rest, ':')
	if j < 0 {
		return "", 0, 0, false
	}
	i := strings.LastIndexByte(rest[:j], ':')
	if i <= 0 {
		return "", 0, 0, false
	}
	row, err1 := strconv.Atoi(rest[i+1 : j])
	col, err2 := strconv.Atoi(rest[j+1:])
	if err1 != nil || err2 != nil || row < 0 || col < 0 {
		return "", 0, 0, false
	}
	return rest[:i], row, col, true
}

// buildInputViews renders recorded run inputs with the output formatter,
// in definition order where the definition is known.
func buildInputViews(def *model.AlgorithmDefinition, inputs map[string]any) []outputView {
	names := make([]string, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, p := range def.Parameters {
		if _, ok := inputs[p.Name]; ok {
			names = append(names, p.Name)
			seen[p.Name] = true
		}
	}
	var extra []string
	for name := range inputs {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	views := make([]outputView, 0, len(names))
	for _, name := range names {
		raw, err := json.Marshal(inputs[name])
		if err != nil {
			continue
		}
		title := name
		if p := def.Parameter(name); p != nil {
			title = titleOf(p.Title, name)
		}
		views = append(views, renderOutput(name, title, "", raw))
	}
	return views
}

func (ui *UI) parseListOptions(r *http.Request) model.ListOptions {
	opts := model.DefaultListOptions()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 && n <= 100 {
			opts.Limit = n
		}
	}

	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	if state := r.URL.Query().Get("state"); state != "" {
		opts.State = strings.ToUpper(state)
	}
	opts.Algorithm = r.URL.Query().Get("algorithm")

	return opts
}

func (ui *UI) buildPagination(opts model.ListOptions, total int) map[string]any {
	return map[string]any{
		"Total":      total,
		"Limit":      opts.Limit,
		"Offset":     opts.Offset,
		"HasMore":    opts.Offset+opts.Limit < total,
		"HasPrev":    opts.Offset > 0,
		"NextOffset": opts.Offset + opts.Limit,
		"PrevOffset": max(0, opts.Offset-opts.Limit),
	}
}

func (ui *UI) render(w http.ResponseWriter, status int, template string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, message string, err error) {
	ui.logger.Error(message, "error", err)
	ui.render(w, http.StatusInternalServerError, "error", map[string]any{
		"Title":   "Error - " + appName,
		"Message": message,
	})
}

func (ui *UI) renderNotFound(w http.ResponseWriter, message string) {
	ui.render(w, http.StatusNotFound, "error", map[string]any{
		"Title":   "Not Found - " + appName,
		"Message": message,
	})
}
