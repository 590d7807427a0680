// Package conn implements the connection demultiplexer: ConnKey/ConnIndex
// canonicalization, the Connection record, reuse detection, and the
// ConnectionTable contract from spec.md §3/§4.4.
package conn

import "net/netip"

// Transport identifies the transport-layer protocol of a connection.
// spec.md §4.5 treats TCP specially and leaves other transports
// (UDP, ICMP, ...) generic.
type Transport int

const (
	TransportUnknown Transport = iota
	TransportTCP
	TransportUDP
	TransportICMP
)

func (t Transport) String() string {
	switch t {
	case TransportTCP:
		return "tcp"
	case TransportUDP:
		return "udp"
	case TransportICMP:
		return "icmp"
	default:
		return "unknown"
	}
}

// ServerPortMask distinguishes transports that otherwise share the same
// numeric port space when combined with a port before a
// likely-server-port lookup, the way the original's
// IPBasedAnalyzer::server_port_mask does (e.g. ICMP ports aren't real
// ports but query identifiers, and must never collide with TCP/UDP
// port 80).
func (t Transport) ServerPortMask() uint32 {
	switch t {
	case TransportTCP:
		return 0
	case TransportUDP:
		return 1 << 16
	case TransportICMP:
		return 2 << 16
	default:
		return 3 << 16
	}
}

// Tuple is the raw 5-tuple extracted from a single packet's IP and
// transport headers, before originator/responder roles are assigned.
type Tuple struct {
	SrcAddr netip.Addr
	DstAddr netip.Addr
	SrcPort uint16
	DstPort uint16
	Proto   Transport
}
