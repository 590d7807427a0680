// Package wire decodes raw captured packets into the conn.Tuple the
// dispatcher demultiplexes on, using google/gopacket the way the
// teacher's internal/pkg/capture.ExtractPacketFields walks layers —
// minus every field this engine doesn't need (no ARP/SLL/VRRP
// handling, since spec.md scopes this module to IP-based transports).
package wire

import (
	"net/netip"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/weird"
)

// Decoded is the result of successfully decoding one packet: the
// tuple the dispatcher keys on, plus the bits of IP-layer state
// spec.md's PacketDispatcher consults directly (flow label, extension
// headers, fragmentation) rather than re-deriving from gopacket itself.
type Decoded struct {
	Tuple          conn.Tuple
	Timestamp      time.Duration
	FlowLabel      uint32
	HasIPv6ExtHdrs bool
	// Reassembled is true when pkt is itself one fragment of a larger
	// IP datagram (spec.md §4.7 step 10, grounded on
	// IPBasedAnalyzer.cc's `ip_hdr->reassembled`: the original flags a
	// packet this way once IP-level defragmentation has touched it,
	// since the pointer arithmetic a dump would need no longer lines
	// up with a single captured buffer). This module does not
	// reassemble fragments itself; it only detects that a packet is a
	// fragment so the dump decision can be made correctly.
	Reassembled bool
	Payload     []byte
	CapLen      int
}

// BuildTuple decodes pkt into a conn.Tuple plus the supporting fields
// PacketDispatcher needs (spec.md §4.7 step 1). It returns ok=false on
// malformed input: no network layer, unsupported network layer, or a
// transport this module doesn't demultiplex on (anything but
// TCP/UDP/ICMP collapses to ok=false rather than a guessed Transport).
func BuildTuple(pkt gopacket.Packet, now time.Duration, sink weird.Sink) (Decoded, bool) {
	netLayer := pkt.NetworkLayer()
	if netLayer == nil {
		return Decoded{}, false
	}

	var src, dst netip.Addr
	var flowLabel uint32
	var hasExtHdrs, reassembled bool

	switch nl := netLayer.(type) {
	case *layers.IPv4:
		src, dst = addrFromIPv4(nl)
		reassembled = isIPv4Fragment(nl)
	case *layers.IPv6:
		src, dst = addrFromIPv6(nl)
		flowLabel = nl.FlowLabel
		hasExtHdrs = hasIPv6ExtensionHeaders(pkt)
		reassembled = pkt.Layer(layers.LayerTypeIPv6Fragment) != nil
	default:
		return Decoded{}, false
	}

	if !src.IsValid() || !dst.IsValid() {
		return Decoded{}, false
	}

	if CheckHeaderTrunc(pkt, sink) {
		return Decoded{}, false
	}

	tuple := conn.Tuple{SrcAddr: src, DstAddr: dst}
	var payload []byte

	switch tl := pkt.TransportLayer().(type) {
	case *layers.TCP:
		tuple.Proto = conn.TransportTCP
		tuple.SrcPort = uint16(tl.SrcPort)
		tuple.DstPort = uint16(tl.DstPort)
		payload = tl.Payload
	case *layers.UDP:
		tuple.Proto = conn.TransportUDP
		tuple.SrcPort = uint16(tl.SrcPort)
		tuple.DstPort = uint16(tl.DstPort)
		payload = tl.Payload
	default:
		if icmp := icmpLayer(pkt); icmp != nil {
			tuple.Proto = conn.TransportICMP
			payload = icmp
		} else {
			return Decoded{}, false
		}
	}

	return Decoded{
		Tuple:          tuple,
		Timestamp:      now,
		FlowLabel:      flowLabel,
		HasIPv6ExtHdrs: hasExtHdrs,
		Reassembled:    reassembled,
		Payload:        payload,
		CapLen:         len(pkt.Data()),
	}, true
}

// isIPv4Fragment reports whether ip is part of a fragmented datagram:
// either it carries a non-zero fragment offset, or it sets the
// more-fragments flag announcing that further fragments follow.
func isIPv4Fragment(ip *layers.IPv4) bool {
	return ip.FragOffset != 0 || ip.Flags&layers.IPv4MoreFragments != 0
}

func addrFromIPv4(ip *layers.IPv4) (src, dst netip.Addr) {
	s, ok1 := netip.AddrFromSlice(ip.SrcIP.To4())
	d, ok2 := netip.AddrFromSlice(ip.DstIP.To4())
	if !ok1 || !ok2 {
		return netip.Addr{}, netip.Addr{}
	}
	return s, d
}

func addrFromIPv6(ip *layers.IPv6) (src, dst netip.Addr) {
	s, ok1 := netip.AddrFromSlice(ip.SrcIP.To16())
	d, ok2 := netip.AddrFromSlice(ip.DstIP.To16())
	if !ok1 || !ok2 {
		return netip.Addr{}, netip.Addr{}
	}
	return s, d
}

// ipv6ExtensionHeaderTypes are the layers gopacket decodes each IPv6
// extension header into, rather than as fields on layers.IPv6 itself.
var ipv6ExtensionHeaderTypes = []gopacket.LayerType{
	layers.LayerTypeIPv6HopByHop,
	layers.LayerTypeIPv6Routing,
	layers.LayerTypeIPv6Fragment,
	layers.LayerTypeIPv6Destination,
}

func hasIPv6ExtensionHeaders(pkt gopacket.Packet) bool {
	for _, lt := range ipv6ExtensionHeaderTypes {
		if pkt.Layer(lt) != nil {
			return true
		}
	}
	return false
}

func icmpLayer(pkt gopacket.Packet) []byte {
	if l := pkt.Layer(layers.LayerTypeICMPv4); l != nil {
		if icmp, ok := l.(*layers.ICMPv4); ok {
			return icmp.Payload
		}
	}
	if l := pkt.Layer(layers.LayerTypeICMPv6); l != nil {
		if icmp, ok := l.(*layers.ICMPv6); ok {
			return icmp.Payload
		}
	}
	return nil
}

// CheckHeaderTrunc reports whether pkt's captured length is shorter
// than gopacket believes the on-wire headers should be, reporting a
// weird notice either way it can happen (spec.md §7, supplemented from
// the original's IPBasedAnalyzer::CheckHeaderTrunc): a short capture
// snaplen truncates the whole packet ("truncated_header"), while a
// malformed length field inside the packet itself truncates a header
// internally ("internally_truncated_header").
func CheckHeaderTrunc(pkt gopacket.Packet, sink weird.Sink) bool {
	if errLayer := pkt.ErrorLayer(); errLayer != nil {
		report(sink, "internally_truncated_header")
		return true
	}

	if md := pkt.Metadata(); md != nil && md.Truncated {
		report(sink, "truncated_header")
		return true
	}

	return false
}

func report(sink weird.Sink, name string) {
	if sink == nil {
		return
	}
	sink.Report(weird.Notice{Name: name})
}
