package analyzer

import (
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// TCPRoot is the session adapter for TCP connections (spec.md §4.5
// step 1, glossary "session adapter"). Reassembly is a switch the
// TreeBuilder or a PIA flips; the reassembler itself lives outside
// this module's scope, so DeliverStream here is the hook an external
// reassembler calls once it decides the switch is on.
type TCPRoot struct {
	base
	reassembling bool
}

// NewTCPRoot constructs a bare TCP root. t is the registry tag the
// TreeBuilder reserves for "TCP root" so DebugDump and event payloads
// can name it like any other analyzer.
func NewTCPRoot(t tag.Tag, owner *conn.Connection) *TCPRoot {
	return &TCPRoot{base: newBase(t, owner)}
}

func (r *TCPRoot) EnableReassembly() { r.reassembling = true }

func (r *TCPRoot) Reassembling() bool { return r.reassembling }

func (r *TCPRoot) DeliverPacket(ts time.Duration, isOrig bool, capLen int, data []byte) {
	r.deliverPacketToChildren(ts, isOrig, capLen, data)
}

func (r *TCPRoot) DeliverStream(isOrig bool, length int, data []byte) {
	r.deliverStreamToChildren(isOrig, length, data)
}

// NonTCPRoot is the session adapter shared by UDP, ICMP, and any other
// transport that has no reassembly concept: EnableReassembly is a
// documented no-op rather than an error, since the open question in
// spec.md §9 leaves per-transport PIA/connsize eligibility to the
// tree builder, not the root itself.
type NonTCPRoot struct {
	base
}

func NewNonTCPRoot(t tag.Tag, owner *conn.Connection) *NonTCPRoot {
	return &NonTCPRoot{base: newBase(t, owner)}
}

func (r *NonTCPRoot) EnableReassembly() {}

func (r *NonTCPRoot) DeliverPacket(ts time.Duration, isOrig bool, capLen int, data []byte) {
	r.deliverPacketToChildren(ts, isOrig, capLen, data)
}

func (r *NonTCPRoot) DeliverStream(isOrig bool, length int, data []byte) {
	r.deliverStreamToChildren(isOrig, length, data)
}
