package analyzer

import (
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// SteppingStone is the interactive-session-chaining heuristic
// (glossary: "heuristic for interactive-session chaining across
// hosts"). It counts consecutive small originator packets — the
// classic telnet/rlogin keystroke pattern; packet timestamps play no
// part in the decision — without trying to
// correlate across connections itself; correlation is explicitly out
// of scope (spec.md §1 Non-goals: "cross-host correlation").
type SteppingStone struct {
	base
	lastOrigPacket time.Duration
	smallPacketRun int
}

// smallPacketThreshold is the payload size at or below which a packet looks
// like a single keystroke rather than bulk data.
const smallPacketThreshold = 4

func NewSteppingStone(t tag.Tag, owner *conn.Connection) *SteppingStone {
	return &SteppingStone{base: newBase(t, owner)}
}

func (s *SteppingStone) DeliverPacket(ts time.Duration, isOrig bool, capLen int, data []byte) {
	if isOrig && len(data) > 0 && len(data) <= smallPacketThreshold {
		s.smallPacketRun++
	} else if isOrig {
		s.smallPacketRun = 0
	}
	s.lastOrigPacket = ts
	s.deliverPacketToChildren(ts, isOrig, capLen, data)
}

func (s *SteppingStone) DeliverStream(isOrig bool, length int, data []byte) {
	s.deliverStreamToChildren(isOrig, length, data)
}

// Suspected reports whether the run of small originator packets looks
// like interactive keystroke traffic.
func (s *SteppingStone) Suspected() bool { return s.smallPacketRun >= 3 }
