package analyzer

import (
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// TCPStats is a packet-level child (spec.md §4.5 step 6: "sees raw
// packets, not the reassembled stream") that tallies basic per-segment
// counters, grounded on the teacher's GetStats()-shaped snapshot
// pattern rather than emitting events per packet.
type TCPStats struct {
	base
	OrigPackets, RespPackets int
	OrigBytes, RespBytes     int64
}

func NewTCPStats(t tag.Tag, owner *conn.Connection) *TCPStats {
	return &TCPStats{base: newBase(t, owner)}
}

func (s *TCPStats) DeliverPacket(ts time.Duration, isOrig bool, capLen int, data []byte) {
	if isOrig {
		s.OrigPackets++
		s.OrigBytes += int64(capLen)
	} else {
		s.RespPackets++
		s.RespBytes += int64(capLen)
	}
}

func (s *TCPStats) DeliverStream(isOrig bool, length int, data []byte) {}

// TCPStatsSnapshot is an immutable snapshot for tests and telemetry.
type TCPStatsSnapshot struct {
	OrigPackets, RespPackets int
	OrigBytes, RespBytes     int64
}

func (s *TCPStats) GetStats() TCPStatsSnapshot {
	return TCPStatsSnapshot{
		OrigPackets: s.OrigPackets,
		RespPackets: s.RespPackets,
		OrigBytes:   s.OrigBytes,
		RespBytes:   s.RespBytes,
	}
}
