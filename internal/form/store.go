package form

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/me/schedlab/internal/metrics"
	"github.com/me/schedlab/pkg/model"
)

// DefaultControllerMax is the upper bound applied to controllers that declare no maximum.
const DefaultControllerMax = 20

// DefaultMaxDimension caps any resolved matrix dimension held in memory.
const DefaultMaxDimension = 500

// Options tunes a Store.
type Options struct {
	// ControllerMax bounds controller values during validation when the schema
	// declares no maximum.
	ControllerMax int
	// MaxDimension caps the rows and columns a store will allocate. The
	// resolver itself has no upper bound; values past the controller range are
	// reported by Validate.
	MaxDimension int
}

// DefaultOptions returns the standard limits.
func DefaultOptions() Options {
	return Options{ControllerMax: DefaultControllerMax, MaxDimension: DefaultMaxDimension}
}

func (o Options) withDefaults() Options {
	if o.ControllerMax <= 0 {
		o.ControllerMax = DefaultControllerMax
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	return o
}

// Submission is the snapshot handed to the execution service. Token identifies
// the form generation the request belongs to.
type Submission struct {
	Token     uint64
	FormID    string
	Algorithm string
	Schema    *Schema
	Values    map[string]any
}

// Snapshot is a consistent, deep-copied view of a form.
type Snapshot struct {
	ID        string
	Schema    *Schema
	State     model.FormState
	Values    map[string]any
	Errors    []model.FieldError
	LastError string
	Result    *model.Result
}

// Algorithm returns the loaded algorithm name, or "".
func (s Snapshot) Algorithm() string {
	if s.Schema == nil {
		return ""
	}
	return s.Schema.Name()
}

// Store is the single source of truth for one form instance. All reads and
// writes are serialized, so a resolve, reconcile and write sequence is never
// observed half-done.
type Store struct {
	mu     sync.Mutex
	id     string
	opts   Options
	logger *slog.Logger

	schema  *Schema
	values  map[string]any
	state   model.FormState
	token   uint64
	lastErr string
	result  *model.Result
}

// NewStore creates an uninitialized form store.
func NewStore(id string, opts Options, logger *slog.Logger) *Store {
	return &Store{
		id:     id,
		opts:   opts.withDefaults(),
		logger: logger.With("component", "form", "form_id", id),
		state:  model.FormStateUninitialized,
	}
}

// ID returns the form identifier.
func (s *Store) ID() string {
	return s.id
}

// Load compiles def and resets the store to its defaults. Any submission still
// in flight for the previous generation becomes stale.
func (s *Store) Load(def *model.AlgorithmDefinition) error {
	schema, err := Compile(def)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := ""
	if s.schema != nil {
		prev = s.schema.Name()
	}
	s.schema = schema
	s.values = make(map[string]any, len(schema.def.Parameters))
	s.token++
	s.lastErr = ""
	s.result = nil

	for i := range schema.def.Parameters {
		p := &schema.def.Parameters[i]
		s.values[p.Name] = s.defaultValue(p, schema.kinds[p.Name])
	}
	for i := range schema.def.Parameters {
		p := &schema.def.Parameters[i]
		if schema.kinds[p.Name] == model.KindDynamicMatrix {
			s.reshape(p)
		}
	}
	s.state = model.FormStateInitialized
	s.logger.Debug("form loaded", "algorithm", schema.Name(), "previous", prev, "token", s.token)
	return nil
}

// Unload discards the schema and values, as when the form is unmounted.
func (s *Store) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = nil
	s.values = nil
	s.token++
	s.lastErr = ""
	s.result = nil
	s.state = model.FormStateUninitialized
}

// Get returns the current value of a field.
func (s *Store) Get(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return model.CloneValue(v), ok
}

// GetAll returns a deep copy of every field value.
func (s *Store) GetAll() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyValues()
}

// Set coerces raw for the named field and stores it. Writing a scalar that
// matrix dimensions depend on reshapes exactly those matrices.
func (s *Store) Set(name string, raw any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, kind, err := s.editable(name)
	if err != nil {
		return err
	}
	if err := s.set(p, kind, raw); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// SetValues writes several fields as one edit. Scalars and lists are applied
// in definition order before matrices, so matrix values land in their final
// shape. Nothing is written when a name is unknown or a value is malformed.
func (s *Store) SetValues(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schema == nil {
		return ErrNotLoaded
	}
	if !s.state.IsEditable() {
		return ErrNotEditable
	}
	for name := range values {
		if _, _, err := s.editable(name); err != nil {
			return err
		}
	}
	prev := s.values
	s.values = s.copyValues()

	for _, matrices := range []bool{false, true} {
		for i := range s.schema.def.Parameters {
			p := &s.schema.def.Parameters[i]
			raw, ok := values[p.Name]
			kind := s.schema.kinds[p.Name]
			if !ok || (kind == model.KindDynamicMatrix) != matrices {
				continue
			}
			if err := s.set(p, kind, raw); err != nil {
				s.values = prev
				return err
			}
		}
	}
	if len(values) > 0 {
		s.markDirty()
	}
	return nil
}

func (s *Store) set(p *model.Parameter, kind model.Kind, raw any) error {
	v, err := CoerceValue(raw, p, kind)
	if err != nil {
		return err
	}
	s.values[p.Name] = v

	if kind == model.KindDynamicMatrix {
		s.reshape(p)
	}
	for _, dep := range s.schema.Dependents(p.Name) {
		mp, _, _ := s.schema.Parameter(dep)
		s.reshape(mp)
	}
	return nil
}

// SetCell coerces raw and writes it into one matrix cell.
func (s *Store) SetCell(name string, row, col int, raw any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, kind, err := s.editable(name)
	if err != nil {
		return err
	}
	if kind != model.KindDynamicMatrix {
		return fmt.Errorf("%s: not a matrix", name)
	}
	m, _ := s.values[name].(model.Matrix)
	if row < 0 || row >= len(m) || col < 0 || col >= len(m[row]) {
		return fmt.Errorf("%s[%d][%d]: %w", name, row, col, ErrCellOutOfRange)
	}
	next := m.Clone()
	next[row][col] = Coerce(raw, p)
	s.values[name] = next
	s.markDirty()
	return nil
}

// Shape returns the current shape of a matrix field.
func (s *Store) Shape(name string) (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, _ := s.values[name].(model.Matrix)
	return m.Shape()
}

// State returns the lifecycle state.
func (s *Store) State() model.FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Schema returns the loaded schema, or nil.
func (s *Store) Schema() *Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Validate reports field errors that block submission.
func (s *Store) Validate() []model.FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate()
}

// Snapshot returns a consistent copy of the whole form.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:        s.id,
		Schema:    s.schema,
		State:     s.state,
		Values:    s.copyValues(),
		LastError: s.lastErr,
		Result:    s.result,
	}
	if s.schema != nil {
		snap.Errors = s.validate()
	}
	return snap
}

// BeginSubmit moves the form to SUBMITTING and returns the values to send.
// It fails while another submission is in flight or when validation fails.
func (s *Store) BeginSubmit() (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schema == nil {
		return nil, ErrNotLoaded
	}
	if s.state == model.FormStateSubmitting {
		return nil, ErrSubmissionInFlight
	}
	if errs := s.validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	if err := s.transition(model.FormStateSubmitting); err != nil {
		return nil, err
	}
	s.token++
	s.lastErr = ""
	s.result = nil
	return &Submission{
		Token:     s.token,
		FormID:    s.id,
		Algorithm: s.schema.Name(),
		Schema:    s.schema,
		Values:    s.copyValues(),
	}, nil
}

// CompleteSubmit records a result. Responses for an older generation are
// dropped with ErrStaleResponse.
func (s *Store) CompleteSubmit(token uint64, res *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkToken(token); err != nil {
		return err
	}
	s.result = res
	return s.transition(model.FormStateResultAvailable)
}

// FailSubmit records a failed submission. Values are left untouched.
func (s *Store) FailSubmit(token uint64, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkToken(token); err != nil {
		return err
	}
	s.lastErr = message
	return s.transition(model.FormStateSubmissionFailed)
}

func (s *Store) checkToken(token uint64) error {
	if token != s.token || s.state != model.FormStateSubmitting {
		s.logger.Debug("dropping stale response", "token", token, "current", s.token, "state", s.state)
		return ErrStaleResponse
	}
	return nil
}

func (s *Store) editable(name string) (*model.Parameter, model.Kind, error) {
	if s.schema == nil {
		return nil, "", ErrNotLoaded
	}
	if !s.state.IsEditable() {
		return nil, "", ErrNotEditable
	}
	p, kind, ok := s.schema.Parameter(name)
	if !ok {
		return nil, "", fmt.Errorf("%s: %w", name, ErrUnknownField)
	}
	return p, kind, nil
}

func (s *Store) markDirty() {
	if s.state != model.FormStateDirty {
		_ = s.transition(model.FormStateDirty)
	}
}

func (s *Store) transition(next model.FormState) error {
	if !s.state.CanTransitionTo(next) {
		return &model.InvalidTransitionError{Entity: "form", ID: s.id, From: s.state.String(), To: next.String()}
	}
	s.state = next
	return nil
}

// reshape resolves p's dimensions against the live values and reconciles the
// stored matrix when its shape differs.
func (s *Store) reshape(p *model.Parameter) {
	rows, cols := ResolveShape(*p.Dimensions, Values(s.values))
	rows = min(rows, s.opts.MaxDimension)
	cols = min(cols, s.opts.MaxDimension)

	m, _ := s.values[p.Name].(model.Matrix)
	if !NeedsReshape(m, rows, cols) {
		return
	}
	s.values[p.Name] = Reconcile(m, rows, cols, FillValue(p))
	metrics.Reconciliations.WithLabelValues(s.schema.Name()).Inc()
	s.logger.Debug("matrix reshaped", "parameter", p.Name, "rows", rows, "cols", cols)
}

func (s *Store) defaultValue(p *model.Parameter, kind model.Kind) any {
	if kind == model.KindDynamicMatrix {
		if p.DefaultValue != nil {
			if v, err := CoerceValue(p.DefaultValue, p, kind); err == nil {
				return v
			}
			s.logger.Warn("ignoring malformed matrix default", "parameter", p.Name)
		}
		return model.Matrix{}
	}
	if p.MatrixController && isZeroDefault(p.DefaultValue) {
		return Coerce(3, p)
	}
	v, err := CoerceValue(p.DefaultValue, p, kind)
	if err != nil {
		return FillValue(p)
	}
	return v
}

// isZeroDefault mirrors the legacy "default || 3" rule for controllers.
func isZeroDefault(v any) bool {
	if v == nil {
		return true
	}
	if n, ok := numeric(v); ok {
		return n == 0
	}
	return false
}

func (s *Store) validate() []model.FieldError {
	var errs []model.FieldError
	for i := range s.schema.def.Parameters {
		p := &s.schema.def.Parameters[i]
		if !s.schema.kinds[p.Name].IsScalar() {
			continue
		}
		n, ok := numeric(s.values[p.Name])
		if !ok {
			continue
		}
		lo, hi := math.Inf(-1), math.Inf(1)
		if p.MatrixController {
			lo, hi = 1, float64(s.opts.ControllerMax)
		}
		if p.Minimum != nil {
			lo = *p.Minimum
		}
		if p.Maximum != nil {
			hi = *p.Maximum
		}
		if n < lo || n > hi {
			errs = append(errs, model.FieldError{Field: p.Name, Message: rangeMessage(lo, hi)})
		}
	}
	return errs
}

func rangeMessage(lo, hi float64) string {
	switch {
	case math.IsInf(lo, -1):
		return fmt.Sprintf("must be at most %g", hi)
	case math.IsInf(hi, 1):
		return fmt.Sprintf("must be at least %g", lo)
	}
	return fmt.Sprintf("must be between %g and %g", lo, hi)
}

func (s *Store) copyValues() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = model.CloneValue(v)
	}
	return out
}
