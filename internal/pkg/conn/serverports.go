package conn

import "github.com/fenwick-net/dpdcore/internal/pkg/portcache"

// ServerPort pairs a port with the transport it belongs to, since
// Zeek's own port script-type values are inherently transport-tagged
// (80/tcp and 80/udp are distinct values) and a flat port list would
// lose that distinction before it ever reached the mask.
type ServerPort struct {
	Port      uint16
	Transport Transport
}

// LikelyServerPortChecker builds the isLikelyServer predicate AcceptAll
// consults for its role-flip decision, backed by one
// bloom-prefiltered portcache.PortSet per transport rather than a bare
// map: this callback runs on every packet that starts a brand-new
// connection, the same hot path config.Config.LikelyServerPorts is
// read from (spec.md §9's "lazily-populated read-through caches").
// Each PortSet is constructed with its transport's ServerPortMask
// (spec.md §8: "is_likely_server_port correctly combines the transport
// mask with the port value before table lookup"), so the mask is
// applied identically at insertion and at lookup.
func LikelyServerPortChecker(ports []ServerPort) func(port uint16, proto Transport) bool {
	grouped := make(map[Transport][]uint16)
	for _, sp := range ports {
		grouped[sp.Transport] = append(grouped[sp.Transport], sp.Port)
	}

	sets := make(map[Transport]*portcache.PortSet, len(grouped))
	for proto, portList := range grouped {
		pl := portList
		sets[proto] = portcache.NewPortSet(func() []uint16 { return pl }, proto.ServerPortMask())
	}

	return func(port uint16, proto Transport) bool {
		set, ok := sets[proto]
		if !ok {
			return false
		}
		return portcache.IsLikelyServerPort(set, port)
	}
}
