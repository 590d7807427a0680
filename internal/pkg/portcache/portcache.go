// Package portcache implements the "cached script-table mirrors" design
// note from spec.md §9 for likely_server_ports and stp_skip_src, which
// are read on the hot per-packet path but only change when the
// surrounding runtime reconfigures. The two TCP content-delivery port
// tables are not cached here; the tree builder reads them as plain
// config.Config maps.
// Each cache is a read-through, lazily-built bloom-filter-backed set,
// grounded on the teacher's internal/pkg/phonematcher.Matcher: a bloom
// filter rejects the overwhelming majority of misses in O(1) without
// ever touching the exact set, which is consulted only to confirm a
// bloom hit.
package portcache

import (
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
)

const bloomFalsePositiveRate = 0.001

// PortSet is a lazily-populated, bloom-prefiltered set of ports, all
// sharing one transport mask applied uniformly at both insertion and
// lookup time. Keys are uint32 rather than uint16 so combining a port
// with Transport.ServerPortMask (which lives above bit 15) doesn't
// lose the transport discriminator to truncation.
// Safe for concurrent use: reads are a single atomic load.
type PortSet struct {
	source func() []uint16
	mask   uint32
	state  atomic.Pointer[portState]
	once   sync.Once
}

type portState struct {
	bloom *bloom.BloomFilter
	exact map[uint32]struct{}
}

// NewPortSet returns a cache that calls source() exactly once, on first
// use, to populate itself, combining every port it inserts with mask
// (ordinarily a Transport.ServerPortMask value) so the same cache never
// confuses one transport's port space with another's. Call Invalidate
// to force a rebuild on the next lookup after an explicit
// reconfiguration signal.
func NewPortSet(source func() []uint16, mask uint32) *PortSet {
	return &PortSet{source: source, mask: mask}
}

func (c *PortSet) build() {
	ports := c.source()
	bf := bloom.NewWithEstimates(uint(len(ports)+1), bloomFalsePositiveRate)
	exact := make(map[uint32]struct{}, len(ports))
	for _, p := range ports {
		key := uint32(p) | c.mask
		bf.Add(portKeyBytes(key))
		exact[key] = struct{}{}
	}
	c.state.Store(&portState{bloom: bf, exact: exact})
}

// Contains reports whether port, combined with this set's transport
// mask, is present in the underlying set.
func (c *PortSet) Contains(port uint16) bool {
	c.once.Do(c.build)
	st := c.state.Load()

	key := uint32(port) | c.mask
	if !st.bloom.Test(portKeyBytes(key)) {
		return false
	}
	_, ok := st.exact[key]
	return ok
}

// Invalidate forces the next Contains call to rebuild from source.
func (c *PortSet) Invalidate() {
	c.once = sync.Once{}
}

func portKeyBytes(key uint32) []byte {
	return []byte{byte(key >> 24), byte(key >> 16), byte(key >> 8), byte(key)}
}

// IsLikelyServerPort consults cache for port, matching the original's
// IPBasedAnalyzer::IsLikelyServerPort: the cache's own mask (set at
// construction) encodes which transport the port belongs to (Zeek packs
// this into the low bits of its internal PortVal representation), so
// two different transports never collide even though they share this
// function.
func IsLikelyServerPort(cache *PortSet, port uint16) bool {
	return cache.Contains(port)
}

// AddrSet is a lazily-populated, bloom-prefiltered set of addresses,
// used for the stp_skip_src stepping-stone exemption table.
type AddrSet struct {
	source func() []string
	state  atomic.Pointer[addrState]
	once   sync.Once
}

type addrState struct {
	bloom *bloom.BloomFilter
	exact map[netip.Addr]struct{}
}

func NewAddrSet(source func() []string) *AddrSet {
	return &AddrSet{source: source}
}

func (c *AddrSet) build() {
	raw := c.source()
	bf := bloom.NewWithEstimates(uint(len(raw)+1), bloomFalsePositiveRate)
	exact := make(map[netip.Addr]struct{}, len(raw))
	for _, s := range raw {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			continue
		}
		addr = addr.Unmap()
		bf.AddString(addr.String())
		exact[addr] = struct{}{}
	}
	c.state.Store(&addrState{bloom: bf, exact: exact})
}

// Contains reports whether addr is present in the underlying set.
func (c *AddrSet) Contains(addr netip.Addr) bool {
	c.once.Do(c.build)
	st := c.state.Load()

	addr = addr.Unmap()
	if !st.bloom.TestString(addr.String()) {
		return false
	}
	_, ok := st.exact[addr]
	return ok
}

// Invalidate forces the next Contains call to rebuild from source.
func (c *AddrSet) Invalidate() {
	c.once = sync.Once{}
}
