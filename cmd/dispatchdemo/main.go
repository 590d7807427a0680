// Command dispatchdemo is a runnable integration smoke test of the
// dispatch engine's wiring, not a supported CLI (spec.md §1 excludes a
// CLI surface from the core). It reads a pcap file, feeds every packet
// through dispatch.Dispatcher, and prints the events and weirds fired.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"github.com/fenwick-net/dpdcore/internal/pkg/analyzer"
	"github.com/fenwick-net/dpdcore/internal/pkg/config"
	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/dispatch"
	"github.com/fenwick-net/dpdcore/internal/pkg/events"
	"github.com/fenwick-net/dpdcore/internal/pkg/logger"
	"github.com/fenwick-net/dpdcore/internal/pkg/runstate"
	"github.com/fenwick-net/dpdcore/internal/pkg/weird"
)

func main() {
	pcapPath := flag.String("r", "", "pcap file to read")
	vxlanPorts := flag.String("vxlan-port", "4789", "comma-free single VXLAN port, required by config.Load")
	flag.Parse()

	if *pcapPath == "" {
		fmt.Fprintln(os.Stderr, "usage: dispatchdemo -r <file.pcap>")
		os.Exit(2)
	}

	if err := run(*pcapPath, *vxlanPorts); err != nil {
		logger.Error("dispatchdemo failed", "error", err)
		os.Exit(1)
	}
}

func run(pcapPath, vxlanPortFlag string) error {
	logger.Initialize()

	cfg, err := config.Load(nil, nil, nil, nil, []uint16{parsePort(vxlanPortFlag)})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	clock := runstate.NewClock()
	registry := analyzer.NewRegistry(nil)
	ports := analyzer.NewPortTable(nil)
	scheduled := analyzer.NewScheduledTable(clock, nil)
	eventSink := events.NewChannel(256)
	weirdSink := weird.NewChannel(256)

	builder := analyzer.NewTreeBuilder(registry, ports, scheduled, cfg, eventSink, nil)
	table := conn.NewMapTable()

	want := conn.AcceptAll(conn.LikelyServerPortChecker(cfg.LikelyServerPorts))
	d := dispatch.New(table, clock, builder, scheduled, want, nil, eventSink, weirdSink)

	handle, err := pcap.OpenOffline(pcapPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", pcapPath, err)
	}
	defer handle.Close()

	go drainEvents(eventSink)
	go drainWeirds(weirdSink)

	var seen, accepted int
	source := gopacket.NewPacketSource(handle, handle.LinkType()).Packets()
	for pkt := range source {
		seen++
		ts := time.Duration(pkt.Metadata().Timestamp.UnixNano())
		if d.Dispatch(pkt, ts) {
			accepted++
		}
	}

	logger.Info("dispatchdemo finished", "packets_seen", seen, "packets_accepted", accepted, "connections", table.Len())
	return nil
}

func parsePort(s string) uint16 {
	var p uint16
	fmt.Sscanf(s, "%d", &p)
	return p
}

func drainEvents(sink *events.Channel) {
	for ev := range sink.C() {
		logger.Debug("event", "name", ev.Name, "conn", ev.ConnKey)
	}
}

func drainWeirds(sink *weird.Channel) {
	for n := range sink.C() {
		logger.Debug("weird", "name", n.Name, "conn", n.ConnKey)
	}
}
