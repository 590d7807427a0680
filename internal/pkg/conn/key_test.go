package conn

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKey_DirectionAgnostic(t *testing.T) {
	a := netip.MustParseAddr("10.0.0.1")
	b := netip.MustParseAddr("10.0.0.2")

	forward := Tuple{SrcAddr: a, SrcPort: 1111, DstAddr: b, DstPort: 80, Proto: TransportTCP}
	reverse := Tuple{SrcAddr: b, SrcPort: 80, DstAddr: a, DstPort: 1111, Proto: TransportTCP}

	assert.Equal(t, NewKey(forward), NewKey(reverse))
}

func TestNewKey_DistinctConnectionsDiffer(t *testing.T) {
	a := netip.MustParseAddr("10.0.0.1")
	b := netip.MustParseAddr("10.0.0.2")
	c := netip.MustParseAddr("10.0.0.3")

	k1 := NewKey(Tuple{SrcAddr: a, SrcPort: 1111, DstAddr: b, DstPort: 80, Proto: TransportTCP})
	k2 := NewKey(Tuple{SrcAddr: a, SrcPort: 1111, DstAddr: c, DstPort: 80, Proto: TransportTCP})
	k3 := NewKey(Tuple{SrcAddr: a, SrcPort: 1111, DstAddr: b, DstPort: 80, Proto: TransportUDP})

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
