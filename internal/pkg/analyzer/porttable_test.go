package analyzer

import (
	"testing"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/reporter"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
	"github.com/stretchr/testify/assert"
)

func TestPortTable_RegisterLookup(t *testing.T) {
	pt := NewPortTable(nil)
	httpTag := tag.New(1, "http")

	assert.Nil(t, pt.Lookup(conn.TransportTCP, 80))

	pt.Register(httpTag, conn.TransportTCP, 80)
	got := pt.Lookup(conn.TransportTCP, 80)
	assert.Contains(t, got, httpTag)
	assert.Len(t, got, 1)

	// TCP and UDP tables are independent.
	assert.Nil(t, pt.Lookup(conn.TransportUDP, 80))
}

func TestPortTable_RegisterIdempotent(t *testing.T) {
	pt := NewPortTable(nil)
	httpTag := tag.New(1, "http")

	pt.Register(httpTag, conn.TransportTCP, 80)
	pt.Register(httpTag, conn.TransportTCP, 80)

	got := pt.Lookup(conn.TransportTCP, 80)
	assert.Len(t, got, 1)
}

func TestPortTable_UnregisterRoundTrip(t *testing.T) {
	pt := NewPortTable(nil)
	httpTag := tag.New(1, "http")

	pt.Register(httpTag, conn.TransportTCP, 80)
	pt.Register(httpTag, conn.TransportTCP, 80)
	pt.Unregister(httpTag, conn.TransportTCP, 80)

	got := pt.Lookup(conn.TransportTCP, 80)
	assert.NotContains(t, got, httpTag)
}

func TestPortTable_UnregisterUnknownPortSucceedsSilently(t *testing.T) {
	capt := reporter.NewCapture()
	pt := NewPortTable(capt)
	httpTag := tag.New(1, "http")

	pt.Unregister(httpTag, conn.TransportTCP, 9999)
	assert.Empty(t, capt.Entries())
}

func TestPortTable_UnsupportedTransportWarns(t *testing.T) {
	capt := reporter.NewCapture()
	pt := NewPortTable(capt)
	httpTag := tag.New(1, "http")

	pt.Register(httpTag, conn.TransportICMP, 0)
	assert.True(t, capt.Has("warning", "unsupported transport protocol registering analyzer for port"))

	got := pt.Lookup(conn.TransportICMP, 0)
	assert.Nil(t, got)
}

func TestPortTable_LookupReturnsDefensiveCopy(t *testing.T) {
	pt := NewPortTable(nil)
	httpTag := tag.New(1, "http")
	pt.Register(httpTag, conn.TransportTCP, 80)

	got := pt.Lookup(conn.TransportTCP, 80)
	got[tag.New(2, "mutated")] = struct{}{}

	fresh := pt.Lookup(conn.TransportTCP, 80)
	assert.Len(t, fresh, 1)
}
