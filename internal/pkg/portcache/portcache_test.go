package portcache_test

import (
	"net/netip"
	"testing"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/portcache"
	"github.com/stretchr/testify/assert"
)

func TestPortSet_ExactMatch(t *testing.T) {
	ps := portcache.NewPortSet(func() []uint16 { return []uint16{80, 443, 8080} }, conn.TransportTCP.ServerPortMask())

	assert.True(t, ps.Contains(80))
	assert.True(t, ps.Contains(443))
	assert.False(t, ps.Contains(22))
}

func TestPortSet_InvalidateRebuildsFromSource(t *testing.T) {
	ports := []uint16{80}
	ps := portcache.NewPortSet(func() []uint16 { return ports }, conn.TransportTCP.ServerPortMask())

	assert.True(t, ps.Contains(80))
	assert.False(t, ps.Contains(443))

	ports = []uint16{443}
	ps.Invalidate()

	assert.True(t, ps.Contains(443))
	assert.False(t, ps.Contains(80))
}

func TestIsLikelyServerPort_MaskDistinguishesTransports(t *testing.T) {
	tcp := portcache.NewPortSet(func() []uint16 { return []uint16{53} }, conn.TransportTCP.ServerPortMask())
	udp := portcache.NewPortSet(func() []uint16 { return []uint16{53} }, conn.TransportUDP.ServerPortMask())
	icmp := portcache.NewPortSet(func() []uint16 { return []uint16{53} }, conn.TransportICMP.ServerPortMask())

	// Port 53 registered under TCP's mask is a hit against the TCP
	// cache...
	assert.True(t, portcache.IsLikelyServerPort(tcp, 53))
	// ...and the very same numeric port registered under UDP's or
	// ICMP's own mask is correctly a hit against those caches too, since
	// each cache applies its mask consistently at both insertion and
	// lookup.
	assert.True(t, portcache.IsLikelyServerPort(udp, 53))
	assert.True(t, portcache.IsLikelyServerPort(icmp, 53))

	// But a cache must not report a hit for a port it was never built
	// with, even though other caches hold that port.
	other := portcache.NewPortSet(func() []uint16 { return []uint16{80} }, conn.TransportTCP.ServerPortMask())
	assert.False(t, portcache.IsLikelyServerPort(other, 53))
}

func TestAddrSet_ExactMatchAcrossFamilies(t *testing.T) {
	as := portcache.NewAddrSet(func() []string { return []string{"192.0.2.5", "::1"} })

	assert.True(t, as.Contains(netip.MustParseAddr("192.0.2.5")))
	assert.True(t, as.Contains(netip.MustParseAddr("::1")))
	assert.False(t, as.Contains(netip.MustParseAddr("192.0.2.6")))
}

func TestAddrSet_InvalidEntriesInSourceAreSkipped(t *testing.T) {
	as := portcache.NewAddrSet(func() []string { return []string{"not-an-address", "10.0.0.1"} })

	assert.True(t, as.Contains(netip.MustParseAddr("10.0.0.1")))
}
