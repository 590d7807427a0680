package analyzer

import (
	"net/netip"
	"testing"
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/reporter"
	"github.com/fenwick-net/dpdcore/internal/pkg/runstate"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() conn.Index {
	return conn.NewIndex(
		netip.MustParseAddr("10.0.0.1"),
		netip.MustParseAddr("10.0.0.2"),
		53,
		conn.TransportUDP,
	)
}

func TestScheduledTable_RejectsBeforeProcessingStarts(t *testing.T) {
	capt := reporter.NewCapture()
	clock := runstate.NewClock()
	st := NewScheduledTable(clock, capt)

	st.Schedule(testIndex(), tag.New(1, "dns"), 5*time.Second)

	assert.Equal(t, 0, st.Len())
	assert.True(t, capt.Has("warning", "cannot schedule analyzers before processing begins; ignored"))
}

func TestScheduledTable_RejectsNonPositiveTimeout(t *testing.T) {
	capt := reporter.NewCapture()
	clock := runstate.NewClock()
	clock.Advance(0)
	st := NewScheduledTable(clock, capt)

	st.Schedule(testIndex(), tag.New(1, "dns"), 0)
	st.Schedule(testIndex(), tag.New(1, "dns"), -time.Second)

	assert.Equal(t, 0, st.Len())
}

func TestScheduledTable_ExactMatchFound(t *testing.T) {
	clock := runstate.NewClock()
	clock.Advance(time.Second)
	st := NewScheduledTable(clock, nil)

	idx := testIndex()
	dns := tag.New(1, "dns")
	st.Schedule(idx, dns, 10*time.Second)

	got := st.GetScheduled(idx)
	require.Contains(t, got, dns)
	assert.Len(t, got, 1)
}

func TestScheduledTable_WildcardMatchesAnyOriginator(t *testing.T) {
	clock := runstate.NewClock()
	clock.Advance(time.Second)
	st := NewScheduledTable(clock, nil)

	wildIdx := conn.NewIndex(netip.IPv4Unspecified(), netip.MustParseAddr("10.0.0.2"), 53, conn.TransportUDP)
	dns := tag.New(1, "dns")
	st.Schedule(wildIdx, dns, 10*time.Second)

	// Any originator talking to 10.0.0.2:53/udp should match.
	specific := conn.NewIndex(netip.MustParseAddr("192.168.1.5"), netip.MustParseAddr("10.0.0.2"), 53, conn.TransportUDP)
	got := st.GetScheduled(specific)
	assert.Contains(t, got, dns)
}

func TestScheduledTable_ExpiredWildcardExcluded(t *testing.T) {
	clock := runstate.NewClock()
	clock.Advance(time.Second)
	st := NewScheduledTable(clock, nil)

	wildIdx := conn.NewIndex(netip.IPv4Unspecified(), netip.MustParseAddr("10.0.0.2"), 53, conn.TransportUDP)
	dns := tag.New(1, "dns")
	st.Schedule(wildIdx, dns, 2*time.Second)

	clock.Advance(10 * time.Second)

	specific := conn.NewIndex(netip.MustParseAddr("192.168.1.5"), netip.MustParseAddr("10.0.0.2"), 53, conn.TransportUDP)
	got := st.GetScheduled(specific)
	assert.NotContains(t, got, dns)
}

func TestScheduledTable_ExpireRemovesFromBothViews(t *testing.T) {
	clock := runstate.NewClock()
	clock.Advance(0)
	st := NewScheduledTable(clock, nil)

	idx := testIndex()
	dns := tag.New(1, "dns")
	st.Schedule(idx, dns, time.Second)
	require.Equal(t, 1, st.Len())

	st.Expire(5 * time.Second)
	assert.Equal(t, 0, st.Len())
	assert.Empty(t, st.GetScheduled(idx))
}

func TestScheduledTable_MultipleRecordsSameIndex(t *testing.T) {
	clock := runstate.NewClock()
	clock.Advance(0)
	st := NewScheduledTable(clock, nil)

	idx := testIndex()
	dns := tag.New(1, "dns")
	other := tag.New(2, "other")
	st.Schedule(idx, dns, time.Second)
	st.Schedule(idx, other, 10*time.Second)

	// Lazy expiry on the second Schedule call must not evict the first
	// record, since it hasn't expired yet.
	got := st.GetScheduled(idx)
	assert.Contains(t, got, dns)
	assert.Contains(t, got, other)

	st.Expire(2 * time.Second)
	got = st.GetScheduled(idx)
	assert.NotContains(t, got, dns)
	assert.Contains(t, got, other)
}
