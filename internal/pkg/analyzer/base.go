package analyzer

import (
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/events"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// base holds the plumbing spec.md §4.8/§9 asks every tree node to
// share: a tag, a weak (non-owning) back-reference to the connection
// it belongs to, and child management. Concrete analyzers embed it and
// override DeliverPacket/DeliverStream.
type base struct {
	tag      tag.Tag
	owner    *conn.Connection
	children []conn.Analyzer
	pktKids  []conn.Analyzer
}

func newBase(t tag.Tag, owner *conn.Connection) base {
	return base{tag: t, owner: owner}
}

func (b *base) Tag() tag.Tag { return b.tag }

// SetTag lets the registry stamp a dynamically constructed analyzer
// with its originating tag after the factory runs (spec.md §4.1: "the
// newly constructed analyzer is tagged with its originating
// AnalyzerTag"), since a Factory only receives the connection, not the
// tag that selected it.
func (b *base) SetTag(t tag.Tag) { b.tag = t }

func (b *base) Init() {}

func (b *base) InitChildren() {
	for _, c := range b.children {
		c.Init()
		c.InitChildren()
	}
	for _, c := range b.pktKids {
		c.Init()
		c.InitChildren()
	}
}

// AddChild attaches a normal (stream-facing) child, initializing it
// immediately if init is true (spec.md §4.8).
func (b *base) AddChild(child conn.Analyzer, init bool) {
	b.children = append(b.children, child)
	if init {
		child.Init()
	}
}

// AddPacketChild attaches a packet-level child: one that only ever
// sees DeliverPacket, never the reassembled stream (spec.md §4.5 steps
// 6-7).
func (b *base) AddPacketChild(child conn.Analyzer) {
	b.pktKids = append(b.pktKids, child)
}

func (b *base) ChildCount() int { return len(b.children) + len(b.pktKids) }

// Done recursively tears down every child before releasing them; the
// tree is owned top-down (spec.md §3, §5).
func (b *base) Done() {
	for _, c := range b.children {
		c.Done()
	}
	for _, c := range b.pktKids {
		c.Done()
	}
	b.children = nil
	b.pktKids = nil
}

// deliverPacketToChildren fans a raw packet out to every packet-level
// child, then every normal child.
func (b *base) deliverPacketToChildren(ts time.Duration, isOrig bool, capLen int, data []byte) {
	for _, c := range b.pktKids {
		c.DeliverPacket(ts, isOrig, capLen, data)
	}
	for _, c := range b.children {
		c.DeliverPacket(ts, isOrig, capLen, data)
	}
}

func (b *base) deliverStreamToChildren(isOrig bool, length int, data []byte) {
	for _, c := range b.children {
		c.DeliverStream(isOrig, length, data)
	}
}

// enqueue publishes ev to the connection's event sink, if one is
// installed, the way every analyzer reports upstream (spec.md §4.8:
// "signals upstream by enqueuing events").
func (b *base) enqueue(sink events.Sink, name string) {
	if sink == nil || b.owner == nil {
		return
	}
	sink.Enqueue(events.Event{Name: name, ConnKey: b.owner.Key.String()})
}
