package dispatch

import "github.com/fenwick-net/dpdcore/internal/pkg/conn"

// DumpDecision is the outcome of spec.md §4.7 step 10's dump/truncate
// rule, kept separate from Dumper so it can be unit tested without a
// packet or a writer.
type DumpDecision struct {
	ShouldDump       bool
	TruncateToHeader bool
}

// computeDumpDecision decides whether the current packet should reach
// the dump sink, and whether it should be cut down to headerLen bytes
// first. A fragment of a larger IP datagram is never dumped on its own
// (grounded on IPBasedAnalyzer.cc:101-131's `if (ip_hdr->reassembled)
// pkt->dump_packet = false`, since the dump's pointer arithmetic
// assumes a single, whole captured packet); a connection that hasn't
// asked for recording is never dumped; a connection that wants packets
// but not contents gets the header-only cut.
func computeDumpDecision(c *conn.Connection, headerLen int, reassembled bool) DumpDecision {
	if reassembled || !c.RecordPackets {
		return DumpDecision{}
	}
	return DumpDecision{ShouldDump: true, TruncateToHeader: !c.RecordContents && headerLen > 0}
}
