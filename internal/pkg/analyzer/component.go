// Package analyzer implements the catalog of analyzer kinds
// (AnalyzerRegistry), the port table, the scheduled-analyzer
// expectation table, and the tree builder — spec.md §4.1 through §4.6.
package analyzer

import (
	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// Factory builds a new Analyzer instance for a connection. Returning
// nil means no analyzer is attached: Registry.Instantiate then returns
// nil (never an error) and logs an internal warning, the same way it
// handles a component that has no factory at all.
type Factory func(c *conn.Connection) conn.Analyzer

// Component is one catalog entry (spec.md §3: AnalyzerComponent).
// Created at registration time and mutated only by Enable/Disable.
type Component struct {
	Tag     tag.Tag
	Name    string
	Factory Factory
	enabled bool
}

// Enabled reports the component's current enable state.
func (c *Component) Enabled() bool { return c.enabled }
