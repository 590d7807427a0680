package analyzer

import (
	"sync"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/reporter"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// PortTable maps (transport, port) to the set of analyzer tags that
// should activate for a connection on that port (spec.md §4.2). It
// holds two independent maps, one per supported transport, matching
// the original's analyzers_by_port_tcp / analyzers_by_port_udp split.
type PortTable struct {
	mu       sync.RWMutex
	tcp      map[uint16]map[tag.Tag]struct{}
	udp      map[uint16]map[tag.Tag]struct{}
	reporter reporter.Reporter
}

// NewPortTable creates an empty PortTable.
func NewPortTable(r reporter.Reporter) *PortTable {
	if r == nil {
		r = reporter.New()
	}
	return &PortTable{
		tcp:      make(map[uint16]map[tag.Tag]struct{}),
		udp:      make(map[uint16]map[tag.Tag]struct{}),
		reporter: r,
	}
}

func (p *PortTable) tableFor(proto conn.Transport) map[uint16]map[tag.Tag]struct{} {
	switch proto {
	case conn.TransportTCP:
		return p.tcp
	case conn.TransportUDP:
		return p.udp
	default:
		return nil
	}
}

// Register idempotently adds tag t to the set for (proto, port).
func (p *PortTable) Register(t tag.Tag, proto conn.Transport, port uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := p.tableFor(proto)
	if m == nil {
		p.reporter.Warning("unsupported transport protocol registering analyzer for port")
		return
	}

	set, ok := m[port]
	if !ok {
		set = make(map[tag.Tag]struct{})
		m[port] = set
	}
	set[t] = struct{}{}
}

// Unregister idempotently removes tag t from the set for (proto,
// port). Removing from a port with no such entry succeeds silently
// (spec.md §4.2; see DESIGN.md for the open question about whether an
// unknown-port unregister should instead be flagged).
func (p *PortTable) Unregister(t tag.Tag, proto conn.Transport, port uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := p.tableFor(proto)
	if m == nil {
		p.reporter.Warning("unsupported transport protocol unregistering analyzer for port")
		return
	}

	if set, ok := m[port]; ok {
		delete(set, t)
	}
}

// Lookup returns the set of tags registered for (proto, port), or nil
// if none exist. It never creates an entry as a side effect.
func (p *PortTable) Lookup(proto conn.Transport, port uint16) map[tag.Tag]struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m := p.tableFor(proto)
	if m == nil {
		p.reporter.Warning("unsupported transport protocol looking up port")
		return nil
	}

	set, ok := m[port]
	if !ok || len(set) == 0 {
		return nil
	}
	out := make(map[tag.Tag]struct{}, len(set))
	for t := range set {
		out[t] = struct{}{}
	}
	return out
}
