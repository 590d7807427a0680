// Package dispatch implements the per-packet entry point of spec.md
// §4.7: PacketDispatcher.Dispatch and NewConnection. It is the one
// place that wires wire.BuildTuple, conn.Table, analyzer.TreeBuilder,
// analyzer.ScheduledTable, and the events/weird sinks together.
package dispatch

import (
	"time"

	"github.com/google/gopacket"

	"github.com/fenwick-net/dpdcore/internal/pkg/analyzer"
	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/events"
	"github.com/fenwick-net/dpdcore/internal/pkg/runstate"
	"github.com/fenwick-net/dpdcore/internal/pkg/weird"
	"github.com/fenwick-net/dpdcore/internal/pkg/wire"
)

// expireScheduledCadence is how many dispatched packets elapse between
// ScheduledTable.Expire sweeps, the "per N packets" cadence spec.md
// §4.3 leaves up to the dispatcher. Schedule itself also expires
// lazily, so this only matters for connections that never schedule
// anything but still want stale records reclaimed.
const expireScheduledCadence = 256

// Dispatcher is the single-threaded, cooperative packet loop of
// spec.md §5: one Dispatch call fully processes one packet before the
// next begins.
type Dispatcher struct {
	table     conn.Table
	clock     *runstate.Clock
	builder   *analyzer.TreeBuilder
	scheduled *analyzer.ScheduledTable
	want      conn.WantConnectionFunc
	reuse     conn.ReuseChecker
	events    events.Sink
	weirds    weird.Sink
	dumper    Dumper

	packetsSinceExpire int
}

// Dumper receives packets the dispatcher decides are worth handing to
// an external pcap writer (spec.md §4.7 step 10). A nil Dumper is
// valid everywhere, the same way a nil events.Sink is: actually
// persisting a dump file is outside this module's scope (spec.md §1:
// no persistent on-disk state), so only the decision of whether/how
// much to dump is implemented here.
type Dumper interface {
	Dump(c *conn.Connection, data []byte, headerOnly bool)
}

// SetDumper installs (or clears, with nil) the optional packet-dump
// sink.
func (d *Dispatcher) SetDumper(dp Dumper) { d.dumper = dp }

// New wires a Dispatcher to its collaborators. want and reuse may be
// nil, falling back to conn.AcceptAll(nil) and conn.NeverReuse.
func New(table conn.Table, clock *runstate.Clock, builder *analyzer.TreeBuilder, scheduled *analyzer.ScheduledTable, want conn.WantConnectionFunc, reuse conn.ReuseChecker, eventSink events.Sink, weirdSink weird.Sink) *Dispatcher {
	if want == nil {
		want = conn.AcceptAll(func(uint16, conn.Transport) bool { return false })
	}
	if reuse == nil {
		reuse = conn.NeverReuse
	}
	return &Dispatcher{
		table:     table,
		clock:     clock,
		builder:   builder,
		scheduled: scheduled,
		want:      want,
		reuse:     reuse,
		events:    eventSink,
		weirds:    weirdSink,
	}
}

// Dispatch decodes and delivers one packet, returning false for every
// well-defined reject case: malformed input, WantConnection declining
// the connection, or an unknown transport in tree build (spec.md
// §4.7). now is the packet's own timestamp, advancing the simulated
// clock before any timeout comparison happens.
func (d *Dispatcher) Dispatch(pkt gopacket.Packet, now time.Duration) bool {
	decoded, ok := wire.BuildTuple(pkt, now, d.weirds)
	if !ok {
		return false
	}
	d.clock.Advance(decoded.Timestamp)

	key := conn.NewKey(decoded.Tuple)
	c, found := d.table.Find(key)

	switch {
	case found && c.IsReuse(d.clock.NetworkTime(), decoded.Payload):
		d.enqueueEvent(c, "connection_reused")
		d.table.Remove(c)
		c.Done()
		c = d.newConnection(key, decoded)
		if c == nil {
			return false
		}
		d.table.Insert(c)
	case found:
		c.CheckEncapsulation(nil)
	default:
		c = d.newConnection(key, decoded)
		if c == nil {
			return false
		}
		d.table.Insert(c)
	}

	isOrig := decoded.Tuple.SrcAddr == c.OrigAddr && decoded.Tuple.SrcPort == c.OrigPort
	c.CheckFlowLabel(isOrig, decoded.FlowLabel)

	if decoded.HasIPv6ExtHdrs {
		d.enqueueEvent(c, "ipv6_ext_headers")
	}
	d.enqueueEvent(c, "new_packet")

	c.Touch(d.clock.NetworkTime())

	if d.dumper != nil {
		headerLen := decoded.CapLen - len(decoded.Payload)
		if decision := computeDumpDecision(c, headerLen, decoded.Reassembled); decision.ShouldDump {
			data := pkt.Data()
			if decision.TruncateToHeader && headerLen <= len(data) {
				data = data[:headerLen]
			}
			d.dumper.Dump(c, data, decision.TruncateToHeader)
		}
	}

	if root := c.SessionAdapter(); root != nil && !c.Skipping {
		root.DeliverPacket(d.clock.NetworkTime(), isOrig, decoded.CapLen, decoded.Payload)
	}

	d.tickExpiry()
	return true
}

// newConnection implements spec.md §4.7's NewConnection: ask
// WantConnection whether to proceed (and whether to flip roles), build
// the connection record and its analyzer tree, and fire
// new_connection. Returns nil on any rejection, leaving no trace in
// the table.
func (d *Dispatcher) newConnection(key conn.Key, decoded wire.Decoded) *conn.Connection {
	accept, flip := d.want(decoded.Tuple.SrcPort, decoded.Tuple.DstPort, decoded.Tuple.Proto, decoded.Payload)
	if !accept {
		return nil
	}

	c := conn.New(key, decoded.Tuple, decoded.Timestamp, decoded.FlowLabel, flip, d.reuse)

	if !d.builder.Build(c) {
		c.Done()
		return nil
	}

	d.enqueueEvent(c, "new_connection")
	return c
}

func (d *Dispatcher) tickExpiry() {
	d.packetsSinceExpire++
	if d.packetsSinceExpire >= expireScheduledCadence {
		d.packetsSinceExpire = 0
		d.scheduled.Expire(d.clock.NetworkTime())
	}
}

func (d *Dispatcher) enqueueEvent(c *conn.Connection, name string) {
	if d.events == nil {
		return
	}
	d.events.Enqueue(events.Event{Name: name, ConnKey: c.Key.String()})
}
