package analyzer

import (
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// App is a generic application-layer analyzer leaf: a placeholder for
// the protocol-specific analyzers (HTTP, DNS, FTP_DATA, ...) that sit
// outside this module's scope (spec.md §1: identifying individual
// application protocols is a consumer concern; this engine only
// dispatches to them). It counts deliveries and records the length of
// the last one so
// registry/port-table/tree-builder tests can assert an analyzer of
// the expected kind actually received traffic.
type App struct {
	base
	Name           string
	PacketsSeen    int
	LastPayloadLen int
}

// NewAppFactory returns a Factory that builds an App named name,
// suitable for Registry.Register in tests and the demo wiring.
func NewAppFactory(name string) Factory {
	return func(c *conn.Connection) conn.Analyzer {
		return &App{base: newBase(tag.Tag{}, c), Name: name}
	}
}

func (a *App) DeliverPacket(ts time.Duration, isOrig bool, capLen int, data []byte) {
	a.PacketsSeen++
	a.LastPayloadLen = len(data)
	a.deliverPacketToChildren(ts, isOrig, capLen, data)
}

func (a *App) DeliverStream(isOrig bool, length int, data []byte) {
	a.PacketsSeen++
	a.LastPayloadLen = length
	a.deliverStreamToChildren(isOrig, length, data)
}
