package analyzer

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/errs"
	"github.com/fenwick-net/dpdcore/internal/pkg/logger"
	"github.com/fenwick-net/dpdcore/internal/pkg/reporter"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// Registry is the catalog of analyzer kinds (spec.md §4.1). It is
// read-heavy after startup: registration happens once per analyzer
// kind, then Enable/Disable/Instantiate run on the hot per-connection
// path, so lookups favor plain map reads under an RWMutex the way the
// teacher's detector.Detector guards its signature list.
type Registry struct {
	mu        sync.RWMutex
	byTag     map[int]*Component
	byName    map[string]*Component
	nextID    int
	reporter  reporter.Reporter
	wellKnown map[string]tag.Tag
}

// NewRegistry creates an empty Registry reporting through r. Passing a
// nil reporter installs the default slog-backed one.
func NewRegistry(r reporter.Reporter) *Registry {
	if r == nil {
		r = reporter.New()
	}
	return &Registry{
		byTag:     make(map[int]*Component),
		byName:    make(map[string]*Component),
		reporter:  r,
		wellKnown: make(map[string]tag.Tag),
	}
}

// CacheWellKnown resolves each name to its Tag once and remembers the
// result, standing in for the original's Manager::InitPreScript caching
// analyzer_connsize/analyzer_stepping/analyzer_tcpstats at startup so
// later lookups by name (e.g. from a config file naming an analyzer to
// enable) skip the map lookup. Unknown names are silently skipped; they
// simply never appear in the cache.
func (r *Registry) CacheWellKnown(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if c, ok := r.byName[name]; ok {
			r.wellKnown[name] = c.Tag
		}
	}
}

// WellKnown returns a tag previously cached by CacheWellKnown, and
// whether it was found.
func (r *Registry) WellKnown(name string) (tag.Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.wellKnown[name]
	return t, ok
}

// Register adds a new analyzer kind, allocating its Tag. The returned
// error wraps errs.ErrDuplicateTag if name is already registered.
func (r *Registry) Register(name string, factory Factory, enabled bool) (tag.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return tag.Tag{}, fmt.Errorf("%w: %s", errs.ErrDuplicateTag, name)
	}

	r.nextID++
	t := tag.New(r.nextID, name)
	c := &Component{Tag: t, Name: name, Factory: factory, enabled: enabled}
	r.byTag[t.ID()] = c
	r.byName[name] = c

	logger.Debug("registered analyzer", "name", name, "enabled", enabled)
	return t, nil
}

// LookupByTag returns the component for tag, or nil if unknown.
func (r *Registry) LookupByTag(t tag.Tag) *Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byTag[t.ID()]
}

// LookupByName returns the component for name, or nil if unknown.
func (r *Registry) LookupByName(name string) *Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Enable flips a component to enabled. Returns whether the tag exists;
// it never errors, per spec.md §4.1 ("enable/disable is a hot, cheap
// flag flip").
func (r *Registry) Enable(t tag.Tag) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byTag[t.ID()]
	if !ok {
		return false
	}
	c.enabled = true
	return true
}

// Disable flips a component to disabled. Returns whether the tag
// exists.
func (r *Registry) Disable(t tag.Tag) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byTag[t.ID()]
	if !ok {
		return false
	}
	c.enabled = false
	return true
}

// DisableAll disables every registered component.
func (r *Registry) DisableAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byTag {
		c.enabled = false
	}
}

// IsEnabled reports whether tag is both known and enabled.
func (r *Registry) IsEnabled(t tag.Tag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byTag[t.ID()]
	return ok && c.enabled
}

// Instantiate builds a new Analyzer for tag on conn. It returns nil —
// never an error — for every one of the well-defined "don't construct"
// cases spec.md §4.1 enumerates: unknown tag, disabled component, or a
// component with no factory. Unknown-tag and no-factory are logged as
// internal warnings, as is a factory that returns nil; a disabled
// component is skipped silently.
func (r *Registry) Instantiate(t tag.Tag, c *conn.Connection) conn.Analyzer {
	r.mu.RLock()
	comp, ok := r.byTag[t.ID()]
	r.mu.RUnlock()

	if !ok {
		r.reporter.InternalWarning("request to instantiate unknown analyzer")
		return nil
	}
	if !comp.enabled {
		return nil
	}
	if comp.Factory == nil {
		r.reporter.InternalWarning(fmt.Sprintf("analyzer %s cannot be instantiated dynamically", comp.Name))
		return nil
	}

	a := comp.Factory(c)
	if a == nil {
		r.reporter.InternalWarning("analyzer instantiation failed")
		return nil
	}
	if setter, ok := a.(interface{ SetTag(tag.Tag) }); ok {
		setter.SetTag(comp.Tag)
	}
	return a
}

// InstantiateByName resolves name to a tag first, returning nil if the
// name is unknown.
func (r *Registry) InstantiateByName(name string, c *conn.Connection) conn.Analyzer {
	comp := r.LookupByName(name)
	if comp == nil {
		return nil
	}
	return r.Instantiate(comp.Tag, c)
}

// DebugDump writes every component's name and enabled state to w,
// sorted by name for stable output — the Go-idiomatic replacement for
// the original's #ifdef DEBUG dump, gated by the caller checking
// logger.DebugEnabled() rather than a build tag.
func (r *Registry) DebugDump(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := r.byName[name]
		state := "disabled"
		if c.enabled {
			state = "enabled"
		}
		fmt.Fprintf(w, "%s (%s)\n", name, state)
	}
}
