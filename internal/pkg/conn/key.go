package conn

import (
	"fmt"
	"net/netip"
)

// Key is the canonical, direction-agnostic form of a 5-tuple used to
// look up a live Connection in a ConnectionTable (spec.md §3: "ConnKey
// = canonical form of the 5-tuple"). Two packets belonging to the same
// conversation — regardless of which host sent which packet — must
// produce the same Key, which is why it's built from an ordered pair
// rather than from src/dst directly: the table must find the existing
// connection even when the responder replies before the dispatcher has
// decided which side is the originator.
type Key struct {
	AddrA netip.Addr
	PortA uint16
	AddrB netip.Addr
	PortB uint16
	Proto Transport
}

// NewKey builds the canonical Key for a raw tuple.
func NewKey(t Tuple) Key {
	src, dst := t.SrcAddr.Unmap(), t.DstAddr.Unmap()
	if lessEndpoint(src, t.SrcPort, dst, t.DstPort) {
		return Key{AddrA: src, PortA: t.SrcPort, AddrB: dst, PortB: t.DstPort, Proto: t.Proto}
	}
	return Key{AddrA: dst, PortA: t.DstPort, AddrB: src, PortB: t.SrcPort, Proto: t.Proto}
}

// String renders Key as an opaque identifier suitable for packages
// like events/weird, which carry connection identity as a string
// rather than depending on conn.
func (k Key) String() string {
	return fmt.Sprintf("%s:%d<->%s:%d/%s", k.AddrA, k.PortA, k.AddrB, k.PortB, k.Proto)
}

func lessEndpoint(a netip.Addr, pa uint16, b netip.Addr, pb uint16) bool {
	if c := a.Compare(b); c != 0 {
		return c < 0
	}
	return pa < pb
}
