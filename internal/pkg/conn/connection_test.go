package conn

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

func testTuple() Tuple {
	return Tuple{
		SrcAddr: netip.MustParseAddr("10.0.0.1"),
		SrcPort: 1111,
		DstAddr: netip.MustParseAddr("10.0.0.2"),
		DstPort: 80,
		Proto:   TransportTCP,
	}
}

func TestNew_NoFlip(t *testing.T) {
	tuple := testTuple()
	c := New(NewKey(tuple), tuple, 5*time.Second, 0, false, nil)

	assert.Equal(t, tuple.SrcAddr, c.OrigAddr)
	assert.Equal(t, tuple.DstAddr, c.RespAddr)
	assert.Equal(t, tuple.SrcPort, c.OrigPort)
	assert.Equal(t, tuple.DstPort, c.RespPort)
}

func TestNew_Flip(t *testing.T) {
	tuple := testTuple()
	c := New(NewKey(tuple), tuple, 0, 0, true, nil)

	assert.Equal(t, tuple.DstAddr, c.OrigAddr)
	assert.Equal(t, tuple.SrcAddr, c.RespAddr)
}

func TestConnection_FlipRoles(t *testing.T) {
	tuple := testTuple()
	c := New(NewKey(tuple), tuple, 0, 0, false, nil)
	orig, resp := c.OrigAddr, c.RespAddr

	c.FlipRoles()

	assert.Equal(t, resp, c.OrigAddr)
	assert.Equal(t, orig, c.RespAddr)
}

type fakeRoot struct {
	done     bool
	children int
}

func (f *fakeRoot) Tag() tag.Tag { return tag.Tag{} }
func (f *fakeRoot) Init()                                          {}
func (f *fakeRoot) InitChildren()                                  {}
func (f *fakeRoot) DeliverPacket(time.Duration, bool, int, []byte) {}
func (f *fakeRoot) DeliverStream(bool, int, []byte)                {}
func (f *fakeRoot) AddChild(Analyzer, bool)                        { f.children++ }
func (f *fakeRoot) AddPacketChild(Analyzer)                        { f.children++ }
func (f *fakeRoot) Done()                                          { f.done = true }
func (f *fakeRoot) EnableReassembly()                              {}
func (f *fakeRoot) ChildCount() int                                { return f.children }

func TestConnection_DoneTearsDownRoot(t *testing.T) {
	tuple := testTuple()
	c := New(NewKey(tuple), tuple, 0, 0, false, nil)
	root := &fakeRoot{}
	c.SetSessionAdapter(root, nil)

	require.NotNil(t, c.SessionAdapter())
	c.Done()

	assert.True(t, root.done)
	assert.Nil(t, c.SessionAdapter())
	assert.Nil(t, c.PIA())
}

func TestConnection_CheckFlowLabel_KeepsFirstOriginatorLabel(t *testing.T) {
	tuple := testTuple()
	c := New(NewKey(tuple), tuple, 0, 0, false, nil)

	c.CheckFlowLabel(true, 42)
	c.CheckFlowLabel(true, 99)

	assert.Equal(t, uint32(42), c.FlowLabel)
}

func TestConnection_IsReuse_DefaultsToFalse(t *testing.T) {
	tuple := testTuple()
	c := New(NewKey(tuple), tuple, 0, 0, false, nil)

	assert.False(t, c.IsReuse(time.Minute, nil))
}

func TestConnection_IsReuse_CustomChecker(t *testing.T) {
	tuple := testTuple()
	called := false
	c := New(NewKey(tuple), tuple, 0, 0, false, func(conn *Connection, now time.Duration, payload []byte) bool {
		called = true
		return now > 10*time.Second
	})

	assert.False(t, c.IsReuse(5*time.Second, nil))
	assert.True(t, c.IsReuse(20*time.Second, nil))
	assert.True(t, called)
}
