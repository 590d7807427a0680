package conn

// WantConnectionFunc decides whether the dispatcher should create a
// Connection for a packet that matched no existing one, and whether
// the originator/responder roles should be flipped from the literal
// packet direction (spec.md §4.7: "asks WantConnection ... it may also
// request a role-flip"). proto is carried alongside the ports so a
// likely-server-port lookup can apply the right transport's mask
// (spec.md §8: "is_likely_server_port correctly combines the
// transport mask with the port value before table lookup"). Returning
// accept=false drops the packet without creating a connection.
type WantConnectionFunc func(srcPort, dstPort uint16, proto Transport, payload []byte) (accept, flip bool)

// AcceptAll is the default WantConnectionFunc: every packet starts a
// connection, with roles flipped whenever the packet's source port
// looks more "server-like" than its destination port according to
// isLikelyServer — i.e. the first packet the dispatcher saw actually
// came from the server replying to an un-captured request, which
// spec.md §1 calls out by name: "flips originator/responder roles when
// the first seen packet came from the server."
func AcceptAll(isLikelyServer func(port uint16, proto Transport) bool) WantConnectionFunc {
	return func(srcPort, dstPort uint16, proto Transport, _ []byte) (bool, bool) {
		if isLikelyServer == nil {
			return true, false
		}
		flip := isLikelyServer(srcPort, proto) && !isLikelyServer(dstPort, proto)
		return true, flip
	}
}
