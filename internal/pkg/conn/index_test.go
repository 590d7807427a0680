package conn

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIndex_NormalizesUnspecifiedToWildcard(t *testing.T) {
	resp := netip.MustParseAddr("10.0.0.2")

	v4 := NewIndex(netip.IPv4Unspecified(), resp, 9999, TransportTCP)
	v6 := NewIndex(netip.IPv6Unspecified(), resp, 9999, TransportTCP)

	assert.Equal(t, WildcardAddr, v4.Orig)
	assert.Equal(t, WildcardAddr, v6.Orig)
	assert.Equal(t, v4, v6)
}

func TestIndex_Wildcard(t *testing.T) {
	orig := netip.MustParseAddr("10.0.0.1")
	resp := netip.MustParseAddr("10.0.0.2")

	idx := NewIndex(orig, resp, 80, TransportTCP)
	wc := idx.Wildcard()

	assert.Equal(t, orig, idx.Orig)
	assert.Equal(t, WildcardAddr, wc.Orig)
	assert.Equal(t, idx.Resp, wc.Resp)
	assert.Equal(t, idx.RespPort, wc.RespPort)
}

func TestConnection_ConnIndex(t *testing.T) {
	orig := netip.MustParseAddr("10.0.0.1")
	resp := netip.MustParseAddr("10.0.0.2")
	tuple := Tuple{SrcAddr: orig, SrcPort: 1234, DstAddr: resp, DstPort: 20000, Proto: TransportTCP}
	c := New(NewKey(tuple), tuple, 0, 0, false, nil)

	idx := c.ConnIndex()
	assert.Equal(t, orig, idx.Orig)
	assert.Equal(t, resp, idx.Resp)
	assert.Equal(t, uint16(20000), idx.RespPort)
	assert.Equal(t, TransportTCP, idx.Proto)
}
