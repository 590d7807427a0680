package conn

import (
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// Analyzer is the capability-set contract spec.md §4.8 assigns to
// every node in a connection's analyzer tree. It lives in this package
// (rather than in the analyzer package that builds trees) because
// Connection must hold a reference to its root without creating an
// import cycle — the analyzer package depends on conn, not the other
// way around.
type Analyzer interface {
	// Tag identifies the analyzer kind that produced this node.
	Tag() tag.Tag

	Init()
	InitChildren()

	// DeliverPacket hands a raw packet to the analyzer. ts is the
	// simulated timestamp, isOrig is true if the packet travelled
	// originator->responder, capLen is the captured length of the whole
	// packet, data is the transport payload (headers excluded).
	DeliverPacket(ts time.Duration, isOrig bool, capLen int, data []byte)

	// DeliverStream hands a reassembled stream chunk to the analyzer.
	DeliverStream(isOrig bool, length int, data []byte)

	AddChild(child Analyzer, init bool)
	AddPacketChild(child Analyzer)

	Done()
}

// Root is the transport-level tree root spec.md's glossary calls the
// "session adapter": the same Analyzer contract, plus the reassembly
// switch that only a transport root understands and the ability to
// report how many children it has, which TreeBuilder's step 4 heuristic
// needs.
type Root interface {
	Analyzer

	EnableReassembly()
	ChildCount() int
}
