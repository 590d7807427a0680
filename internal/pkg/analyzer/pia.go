package analyzer

import (
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// PIA is the protocol-identification analyzer (glossary: "probe that
// inspects initial bytes to decide which app-layer analyzer to
// activate; may enable TCP reassembly"). It is deliberately a thin
// heuristic, not a full signature engine — identifying individual
// application protocols is the job of the analyzers it activates, not
// this probe (spec.md budgets PIA at a small share of the core).
type PIA struct {
	base
	parent    conn.Root
	maxProbe  int
	probed    int
	activated bool
}

// NewPIA constructs a PIA attached to root, which it may flip into
// reassembly once it has seen enough of the stream to decide.
func NewPIA(t tag.Tag, owner *conn.Connection, root conn.Root) *PIA {
	return &PIA{base: newBase(t, owner), parent: root, maxProbe: 64}
}

// DeliverPacket counts the payload bytes of the first packets in either
// direction. Once maxProbe bytes have been seen it enables reassembly
// on the root, whether or not another analyzer is attached; after that
// it no longer forwards packets to its own children.
func (p *PIA) DeliverPacket(ts time.Duration, isOrig bool, capLen int, data []byte) {
	if p.activated || len(data) == 0 {
		return
	}
	p.probed += len(data)
	if p.probed >= p.maxProbe {
		p.activated = true
		p.parent.EnableReassembly()
	}
	p.deliverPacketToChildren(ts, isOrig, capLen, data)
}

func (p *PIA) DeliverStream(isOrig bool, length int, data []byte) {
	p.deliverStreamToChildren(isOrig, length, data)
}
