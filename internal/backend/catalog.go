package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/me/schedlab/internal/form"
	"github.com/me/schedlab/internal/metrics"
	"github.com/me/schedlab/pkg/model"
)

// catalogDebounce batches bursts of editor writes into one reload.
const catalogDebounce = 100 * time.Millisecond

// ChangeFunc is notified when a catalog definition changes. def is nil when
// the algorithm was removed.
type ChangeFunc func(name string, def *model.AlgorithmDefinition)

// Catalog serves algorithm definitions from YAML (or JSON) files in a
// directory, one algorithm per file.
type Catalog struct {
	dir    string
	logger *slog.Logger

	mu       sync.RWMutex
	defs     map[string]*model.AlgorithmDefinition
	files    map[string]string // path -> algorithm name
	handlers []ChangeFunc
}

// NewCatalog loads every definition file in dir.
func NewCatalog(dir string, logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		dir:    dir,
		logger: logger.With("component", "catalog", "dir", dir),
		defs:   make(map[string]*model.AlgorithmDefinition),
		files:  make(map[string]string),
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isDefinitionFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		def, err := loadDefinition(path)
		if err != nil {
			return nil, err
		}
		if _, dup := c.defs[def.Name]; dup {
			return nil, fmt.Errorf("%s: algorithm %q already defined", path, def.Name)
		}
		c.defs[def.Name] = def
		c.files[path] = def.Name
	}
	c.logger.Info("catalog loaded", "algorithms", len(c.defs))
	return c, nil
}

// OnChange registers fn for reloads observed by Watch.
func (c *Catalog) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

// ListAlgorithms returns the catalog entries sorted by name.
func (c *Catalog) ListAlgorithms(_ context.Context) ([]model.AlgorithmSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.AlgorithmSummary, 0, len(c.defs))
	for _, def := range c.defs {
		out = append(out, def.Summary())
	}
	slices.SortFunc(out, func(a, b model.AlgorithmSummary) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// GetAlgorithm returns a copy of the named definition.
func (c *Catalog) GetAlgorithm(_ context.Context, name string) (*model.AlgorithmDefinition, error) {
	start := time.Now()
	defer func() { metrics.SchemaFetchDuration.WithLabelValues("catalog").Observe(time.Since(start).Seconds()) }()

	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.defs[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrAlgorithmNotFound)
	}
	cp := *def
	return &cp, nil
}

// Watch reloads definition files as they change until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(c.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}

	go func() {
		defer w.Close()
		pending := map[string]bool{}
		timer := time.NewTimer(catalogDebounce)
		timer.Stop()
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isDefinitionFile(ev.Name) {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					pending[ev.Name] = true
					timer.Reset(catalogDebounce)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				c.logger.Warn("catalog watcher error", "error", err)
			case <-timer.C:
				for path := range pending {
					c.reloadFile(path)
				}
				clear(pending)
			}
		}
	}()
	return nil
}

// reloadFile re-reads one file and notifies handlers. Invalid files keep the
// previous definition.
func (c *Catalog) reloadFile(path string) {
	def, err := loadDefinition(path)
	if os.IsNotExist(err) {
		c.mu.Lock()
		name, ok := c.files[path]
		if ok {
			delete(c.files, path)
			delete(c.defs, name)
		}
		handlers := slices.Clone(c.handlers)
		c.mu.Unlock()
		if ok {
			c.logger.Info("algorithm removed", "algorithm", name, "path", path)
			for _, fn := range handlers {
				fn(name, nil)
			}
		}
		return
	}
	if err != nil {
		c.logger.Warn("ignoring invalid definition", "path", path, "error", err)
		return
	}

	c.mu.Lock()
	if old, ok := c.files[path]; ok && old != def.Name {
		delete(c.defs, old)
	}
	c.files[path] = def.Name
	c.defs[def.Name] = def
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()

	c.logger.Info("algorithm reloaded", "algorithm", def.Name, "path", path)
	for _, fn := range handlers {
		cp := *def
		fn(def.Name, &cp)
	}
}

func loadDefinition(path string) (*model.AlgorithmDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def model.AlgorithmDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if _, err := form.Compile(&def); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &def, nil
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
