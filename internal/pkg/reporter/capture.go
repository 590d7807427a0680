package reporter

import "sync"

// Entry is one recorded call against a Capture reporter.
type Entry struct {
	Kind string // "warning", "internal_warning", "fatal"
	Msg  string
}

// Capture is a Reporter that records every call instead of logging it,
// for tests that assert on exactly which diagnostics fired (spec.md §7
// distinguishes warning/internal-warning/fatal — tests need to tell
// them apart).
type Capture struct {
	mu      sync.Mutex
	entries []Entry
	fatal   bool
}

func NewCapture() *Capture { return &Capture{} }

func (c *Capture) Warning(msg string, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Kind: "warning", Msg: msg})
}

func (c *Capture) InternalWarning(msg string, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Kind: "internal_warning", Msg: msg})
}

func (c *Capture) Fatal(msg string, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Kind: "fatal", Msg: msg})
	c.fatal = true
}

// Entries returns a copy of everything recorded so far.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// FatalCalled reports whether Fatal was ever invoked.
func (c *Capture) FatalCalled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fatal
}

// Has reports whether any entry of the given kind matches msg exactly.
func (c *Capture) Has(kind, msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Kind == kind && e.Msg == msg {
			return true
		}
	}
	return false
}
