package conn

import "net/netip"

// WildcardAddr is the unspecified address used to mean "any
// originator" when scheduling an analyzer (spec.md §3, §9: "Wildcard
// originator: represented as the unspecified IPv6 address"). Both IPv4
// and IPv6 unspecified inputs normalize to this single value so lookups
// match regardless of which family the caller happened to spell the
// wildcard in.
var WildcardAddr = netip.IPv6Unspecified()

// Index is the scheduling key (spec.md §3: ConnIndex), independent of
// Key because scheduling happens before a connection exists and is
// keyed by the *expected* originator/responder roles, not by an
// unordered pair.
type Index struct {
	Orig     netip.Addr
	Resp     netip.Addr
	RespPort uint16
	Proto    Transport
}

// NewIndex builds an Index, normalizing an unspecified orig (in either
// IPv4 or IPv6 form) to the canonical wildcard representation.
func NewIndex(orig, resp netip.Addr, respPort uint16, proto Transport) Index {
	orig = orig.Unmap()
	if isUnspecified(orig) {
		orig = WildcardAddr
	}
	return Index{Orig: orig, Resp: resp.Unmap(), RespPort: respPort, Proto: proto}
}

func isUnspecified(a netip.Addr) bool {
	return !a.IsValid() || a.IsUnspecified()
}

// Wildcard returns the same Index with the originator replaced by the
// wildcard address, used by ScheduledTable.GetScheduled's second lookup
// pass.
func (i Index) Wildcard() Index {
	i.Orig = WildcardAddr
	return i
}

// ConnIndex builds the Index a live Connection would be scheduled
// under.
func (c *Connection) ConnIndex() Index {
	return NewIndex(c.OrigAddr, c.RespAddr, c.RespPort, c.Transport)
}
