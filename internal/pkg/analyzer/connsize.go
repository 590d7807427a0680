package analyzer

import (
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// ConnSize tracks per-direction packet/byte totals for the life of a
// connection (spec.md §4.5 step 7). It attaches as a packet-level
// child on TCP roots (alongside TCPStats) and as a normal child on
// every other transport, since non-TCP roots have no packet/stream
// split to exploit.
type ConnSize struct {
	base
	OrigPackets, RespPackets uint64
	OrigBytes, RespBytes     uint64
}

func NewConnSize(t tag.Tag, owner *conn.Connection) *ConnSize {
	return &ConnSize{base: newBase(t, owner)}
}

func (c *ConnSize) DeliverPacket(ts time.Duration, isOrig bool, capLen int, data []byte) {
	if isOrig {
		c.OrigPackets++
		c.OrigBytes += uint64(capLen)
	} else {
		c.RespPackets++
		c.RespBytes += uint64(capLen)
	}
}

func (c *ConnSize) DeliverStream(isOrig bool, length int, data []byte) {
	if isOrig {
		c.OrigBytes += uint64(length)
	} else {
		c.RespBytes += uint64(length)
	}
}
