package conn

import (
	"net/netip"
	"time"
)

// ReuseChecker decides whether a packet arriving on an already-known
// 5-tuple actually belongs to a fresh conversation (spec.md §4.4:
// "a fresh handshake on the same 5-tuple after the prior conversation
// appears closed"). It's a field on Connection rather than a free
// function so different transports can plug in different heuristics —
// spec.md explicitly calls this out as a heuristic, not a fixed rule.
type ReuseChecker func(c *Connection, now time.Duration, payload []byte) bool

// NeverReuse is the trivial ReuseChecker for transports/tests that
// never want automatic reconnection detection.
func NeverReuse(*Connection, time.Duration, []byte) bool { return false }

// Connection is the live record for one 5-tuple conversation
// (spec.md §3).
type Connection struct {
	Key       Key
	StartTime time.Duration
	FlowLabel uint32

	OrigAddr netip.Addr
	OrigPort uint16
	RespAddr netip.Addr
	RespPort uint16
	Transport Transport

	RecordPackets  bool
	RecordContents bool
	Skipping       bool

	root Root
	pia  Analyzer

	lastActivity time.Duration
	reuseCheck   ReuseChecker
}

// New constructs a Connection from a raw tuple and the roles the
// caller has already decided on (orig/resp may be the tuple's src/dst
// verbatim, or swapped if NewConnection's WantConnection requested a
// flip).
func New(key Key, tuple Tuple, start time.Duration, flowLabel uint32, flip bool, reuse ReuseChecker) *Connection {
	orig, origPort, resp, respPort := tuple.SrcAddr, tuple.SrcPort, tuple.DstAddr, tuple.DstPort
	if flip {
		orig, origPort, resp, respPort = resp, respPort, orig, origPort
	}
	if reuse == nil {
		reuse = NeverReuse
	}
	return &Connection{
		Key:          key,
		StartTime:    start,
		FlowLabel:    flowLabel,
		OrigAddr:     orig,
		OrigPort:     origPort,
		RespAddr:     resp,
		RespPort:     respPort,
		Transport:    tuple.Proto,
		lastActivity: start,
		reuseCheck:   reuse,
	}
}

// FlipRoles swaps originator and responder. The dispatcher's
// newConnection does not call it; it passes WantConnection's flip
// decision to New instead (spec.md §4.7).
func (c *Connection) FlipRoles() {
	c.OrigAddr, c.RespAddr = c.RespAddr, c.OrigAddr
	c.OrigPort, c.RespPort = c.RespPort, c.OrigPort
}

// SetSessionAdapter installs the tree root and PIA reference,
// satisfying the invariant that a Connection exists in the table iff
// its root is installed (spec.md §3).
func (c *Connection) SetSessionAdapter(root Root, pia Analyzer) {
	c.root = root
	c.pia = pia
}

// SessionAdapter returns the connection's tree root, or nil if none has
// been installed yet.
func (c *Connection) SessionAdapter() Root { return c.root }

// PIA returns the connection's protocol-identification analyzer
// reference, or nil if the transport has none.
func (c *Connection) PIA() Analyzer { return c.pia }

// CheckEncapsulation is the hook spec.md §4.7 step 4 calls on every
// packet of an existing (non-reused) connection; the encapsulation
// stack itself is an external collaborator, so this only needs to
// exist as a seam analyzers can override.
func (c *Connection) CheckEncapsulation(encap any) {
	_ = encap
}

// CheckFlowLabel records the IPv6 flow label seen on a packet. Only
// the first non-zero label is kept, matching the "flow label" field of
// spec.md §3 being a single conversation-level attribute rather than
// per-packet state.
func (c *Connection) CheckFlowLabel(isOrig bool, label uint32) {
	if isOrig && c.FlowLabel == 0 {
		c.FlowLabel = label
	}
}

// Touch records dispatch activity at ts, readable through LastActivity
// by a custom ReuseChecker or any caller wanting idle-time-based
// expiry; the default NeverReuse ignores it.
func (c *Connection) Touch(ts time.Duration) {
	if ts > c.lastActivity {
		c.lastActivity = ts
	}
}

// LastActivity returns the simulated time of the most recent packet
// seen on this connection.
func (c *Connection) LastActivity() time.Duration { return c.lastActivity }

// IsReuse reports whether a packet arriving now on this connection's
// 5-tuple should be treated as starting a fresh conversation rather
// than continuing this one (spec.md §4.4).
func (c *Connection) IsReuse(now time.Duration, payload []byte) bool {
	return c.reuseCheck(c, now, payload)
}

// Done tears down the connection's owned analyzer subtree. Destroying
// the root recursively destroys its subtree (spec.md §3, §4.8).
func (c *Connection) Done() {
	if c.root != nil {
		c.root.Done()
	}
	c.root = nil
	c.pia = nil
}
