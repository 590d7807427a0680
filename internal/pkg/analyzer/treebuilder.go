package analyzer

import (
	"github.com/fenwick-net/dpdcore/internal/pkg/config"
	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/events"
	"github.com/fenwick-net/dpdcore/internal/pkg/portcache"
	"github.com/fenwick-net/dpdcore/internal/pkg/reporter"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// responder ports that get a stepping-stone analyzer, per spec.md §4.5
// step 5 (exemption is by originator address, via stpSkip).
var steppingStonePorts = map[uint16]bool{22: true, 23: true, 513: true}

// ExtraAnalyzers is the supplemented AddExtraAnalyzers hook from the
// original's Analyzer::Manager: a caller-supplied function run at the
// end of Build, after the fixed composition order, to attach
// additional normal children the fixed steps don't know about.
type ExtraAnalyzers func(c *conn.Connection) []conn.Analyzer

// TreeBuilder assembles a connection's analyzer tree in the fixed,
// observable order of spec.md §4.5. It owns the built-in tags (roots,
// PIA, and the three optional per-packet/packet-level analyzers) so
// they participate in the same enable/disable machinery as any other
// registered component.
type TreeBuilder struct {
	registry  *Registry
	ports     *PortTable
	scheduled *ScheduledTable
	cfg       *config.Config
	events    events.Sink
	reporter  reporter.Reporter

	tcpRootTag       tag.Tag
	nonTCPRootTag    tag.Tag
	piaTag           tag.Tag
	steppingStoneTag tag.Tag
	tcpStatsTag      tag.Tag
	connSizeTag      tag.Tag

	// stpSkip bloom-prefilters the stepping-stone exemption addresses
	// (spec.md §9's "lazily-populated read-through caches"), consulted
	// once per TCP connection build instead of the raw map directly.
	stpSkip *portcache.AddrSet

	Extra ExtraAnalyzers
}

// NewTreeBuilder wires a TreeBuilder to its collaborators and
// registers the built-in analyzer kinds into registry, each with no
// factory since they are constructed directly by Build, not
// dynamically by tag (spec.md §4.1's "not constructible dynamically"
// case, used here deliberately rather than as an error path).
func NewTreeBuilder(registry *Registry, ports *PortTable, scheduled *ScheduledTable, cfg *config.Config, sink events.Sink, r reporter.Reporter) *TreeBuilder {
	if r == nil {
		r = reporter.New()
	}
	tb := &TreeBuilder{registry: registry, ports: ports, scheduled: scheduled, cfg: cfg, events: sink, reporter: r}
	tb.stpSkip = portcache.NewAddrSet(func() []string {
		addrs := make([]string, 0, len(tb.cfg.StpSkipSrc))
		for a := range tb.cfg.StpSkipSrc {
			addrs = append(addrs, a)
		}
		return addrs
	})

	tb.tcpRootTag, _ = registry.Register("tcp_root", nil, true)
	tb.nonTCPRootTag, _ = registry.Register("nontcp_root", nil, true)
	tb.piaTag, _ = registry.Register("pia", nil, true)
	// Stepping-stone, tcp-stats, and conn-size are opt-in per spec.md
	// §4.5 ("if the X analyzer is enabled"), unlike the root and PIA
	// which every connection gets unconditionally.
	tb.steppingStoneTag, _ = registry.Register("stepping_stone", nil, false)
	tb.tcpStatsTag, _ = registry.Register("tcp_stats", nil, false)
	tb.connSizeTag, _ = registry.Register("conn_size", nil, false)

	registry.CacheWellKnown("tcp_root", "nontcp_root", "pia", "stepping_stone", "tcp_stats", "conn_size")

	return tb
}

// Build assembles conn's analyzer tree, in the fixed order spec.md
// §4.5 requires. Returns false (and leaves conn untouched) only on an
// unknown transport.
func (tb *TreeBuilder) Build(c *conn.Connection) bool {
	// Step 1: transport root, PIA, and per-transport check_port.
	var root conn.Root
	var checkPort bool

	switch c.Transport {
	case conn.TransportTCP:
		root = NewTCPRoot(tb.tcpRootTag, c)
		checkPort = true
	case conn.TransportUDP:
		root = NewNonTCPRoot(tb.nonTCPRootTag, c)
		checkPort = true
	case conn.TransportICMP:
		root = NewNonTCPRoot(tb.nonTCPRootTag, c)
		checkPort = false
	default:
		tb.reporter.InternalWarning("unknown transport in tree build")
		return false
	}

	pia := NewPIA(tb.piaTag, c, root)

	// Step 2: scheduled analyzers take priority over port lookup.
	hadScheduled := tb.ApplyScheduled(c, false, root)

	// Step 3: port-based activation, only if nothing was scheduled.
	if !hadScheduled && checkPort && !tb.cfg.DPDIgnorePorts {
		for t := range tb.ports.Lookup(c.Transport, c.RespPort) {
			a := tb.registry.Instantiate(t, c)
			if a == nil {
				continue
			}
			root.AddChild(a, false)
		}
	}

	// Step 4: TCP reassembly heuristic.
	if c.Transport == conn.TransportTCP {
		tcpRoot := root.(*TCPRoot)
		switch {
		case root.ChildCount() > 0,
			tb.cfg.DPDReassembleFirstPackets,
			tb.cfg.TCPContentDeliverAllOrig,
			tb.cfg.TCPContentDeliverAllResp:
			tcpRoot.EnableReassembly()
		case tb.cfg.TCPContents &&
			(tb.cfg.TCPContentDeliveryPortsOrig[c.RespPort] || tb.cfg.TCPContentDeliveryPortsResp[c.RespPort]):
			tcpRoot.EnableReassembly()
		}
	}

	// Step 5: stepping-stone, TCP only, exemption by originator address.
	if c.Transport == conn.TransportTCP &&
		tb.registry.IsEnabled(tb.steppingStoneTag) &&
		steppingStonePorts[c.RespPort] &&
		!tb.stpSkip.Contains(c.OrigAddr) {
		root.AddChild(NewSteppingStone(tb.steppingStoneTag, c), false)
	}

	// Step 6: tcp-stats, packet-level, TCP only.
	if c.Transport == conn.TransportTCP && tb.registry.IsEnabled(tb.tcpStatsTag) {
		root.AddPacketChild(NewTCPStats(tb.tcpStatsTag, c))
	}

	// Step 7: conn-size, packet-level on TCP, normal child elsewhere.
	if tb.registry.IsEnabled(tb.connSizeTag) {
		cs := NewConnSize(tb.connSizeTag, c)
		if c.Transport == conn.TransportTCP {
			root.AddPacketChild(cs)
		} else {
			root.AddChild(cs, false)
		}
	}

	// Step 8: PIA, always a normal child.
	root.AddChild(pia, false)

	// Supplemented: caller-provided extra analyzers, appended after the
	// fixed composition order so they never shift the position of a
	// built-in step.
	if tb.Extra != nil {
		for _, a := range tb.Extra(c) {
			if a != nil {
				root.AddChild(a, false)
			}
		}
	}

	// Step 9: install, init.
	c.SetSessionAdapter(root, pia)
	root.Init()
	root.InitChildren()

	// Step 10: notify.
	tb.enqueueEvent(c, "setup_analyzer_tree")

	return true
}

// ApplyScheduled attaches every analyzer expected under conn's
// ConnIndex to parent (spec.md §4.6). If parent is nil it falls back
// to conn's current session adapter. Returns true iff at least one
// analyzer was expected, even if none of them could be instantiated.
func (tb *TreeBuilder) ApplyScheduled(c *conn.Connection, init bool, parent conn.Root) bool {
	if parent == nil {
		parent = c.SessionAdapter()
	}
	if parent == nil {
		return false
	}

	expected := tb.scheduled.GetScheduled(c.ConnIndex())
	if len(expected) == 0 {
		return false
	}

	for t := range expected {
		a := tb.registry.Instantiate(t, c)
		if a == nil {
			continue
		}
		parent.AddChild(a, init)
		tb.enqueueEventWithTag(c, "scheduled_analyzer_applied", t)
	}

	return true
}

func (tb *TreeBuilder) enqueueEvent(c *conn.Connection, name string) {
	if tb.events == nil {
		return
	}
	tb.events.Enqueue(events.Event{Name: name, ConnKey: c.Key.String()})
}

func (tb *TreeBuilder) enqueueEventWithTag(c *conn.Connection, name string, t tag.Tag) {
	if tb.events == nil {
		return
	}
	tb.events.Enqueue(events.Event{Name: name, ConnKey: c.Key.String(), Args: []any{t}})
}
