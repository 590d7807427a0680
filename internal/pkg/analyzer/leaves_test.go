package analyzer

import (
	"testing"
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
	"github.com/stretchr/testify/assert"
)

func TestTCPRoot_DeliverPacketFansOutToPacketAndNormalChildren(t *testing.T) {
	root := NewTCPRoot(tag.New(1, "tcp"), nil)
	pktChild := &App{Name: "pkt"}
	normalChild := &App{Name: "normal"}
	root.AddPacketChild(pktChild)
	root.AddChild(normalChild, false)

	root.DeliverPacket(0, true, 10, []byte("hello"))

	assert.Equal(t, 1, pktChild.PacketsSeen)
	assert.Equal(t, 1, normalChild.PacketsSeen)
}

func TestTCPRoot_EnableReassembly(t *testing.T) {
	root := NewTCPRoot(tag.New(1, "tcp"), nil)
	assert.False(t, root.Reassembling())
	root.EnableReassembly()
	assert.True(t, root.Reassembling())
}

func TestPIA_ActivatesReassemblyAfterProbing(t *testing.T) {
	root := NewTCPRoot(tag.New(1, "tcp"), nil)
	pia := NewPIA(tag.New(2, "pia"), nil, root)
	pia.maxProbe = 8

	pia.DeliverPacket(0, true, 4, []byte("ab"))
	assert.False(t, root.Reassembling())

	pia.DeliverPacket(1*time.Second, true, 8, []byte("abcdefgh"))
	assert.True(t, root.Reassembling())
}

func TestSteppingStone_SuspectsRunOfSmallOriginatorPackets(t *testing.T) {
	ss := NewSteppingStone(tag.New(1, "stp"), nil)
	assert.False(t, ss.Suspected())

	for i := 0; i < 3; i++ {
		ss.DeliverPacket(time.Duration(i)*time.Second, true, 1, []byte("a"))
	}
	assert.True(t, ss.Suspected())
}

func TestSteppingStone_ResetsOnLargeOriginatorPacket(t *testing.T) {
	ss := NewSteppingStone(tag.New(1, "stp"), nil)
	ss.DeliverPacket(0, true, 1, []byte("a"))
	ss.DeliverPacket(0, true, 1, []byte("a"))
	ss.DeliverPacket(0, true, 200, make([]byte, 200))
	assert.False(t, ss.Suspected())
}

func TestTCPStats_TalliesByDirection(t *testing.T) {
	s := NewTCPStats(tag.New(1, "stats"), nil)
	s.DeliverPacket(0, true, 100, nil)
	s.DeliverPacket(0, false, 50, nil)
	s.DeliverPacket(0, true, 10, nil)

	snap := s.GetStats()
	assert.Equal(t, TCPStatsSnapshot{OrigPackets: 2, RespPackets: 1, OrigBytes: 110, RespBytes: 50}, snap)
}

func TestConnSize_TalliesPacketsAndStream(t *testing.T) {
	c := NewConnSize(tag.New(1, "size"), nil)
	c.DeliverPacket(0, true, 64, nil)
	c.DeliverStream(false, 128, nil)

	assert.Equal(t, uint64(1), c.OrigPackets)
	assert.Equal(t, uint64(64), c.OrigBytes)
	assert.Equal(t, uint64(128), c.RespBytes)
}

func TestApp_RecordsPacketsAndTagging(t *testing.T) {
	factory := NewAppFactory("http")
	a := factory(nil).(*App)
	a.SetTag(tag.New(5, "http"))

	a.DeliverPacket(0, true, 4, []byte("GET "))
	assert.Equal(t, 1, a.PacketsSeen)
	assert.Equal(t, tag.New(5, "http"), a.Tag())
}
