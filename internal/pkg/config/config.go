// Package config loads the dispatch-and-protocol-analysis switches
// enumerated in spec.md §6, following the teacher's
// viper-defaults-then-snapshot pattern (internal/pkg/voip.GetConfig).
package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/errs"
)

var defaultsOnce sync.Once

// Config mirrors spec.md §6's "Configuration values, enumerated" list
// one field at a time.
type Config struct {
	// DPDIgnorePorts disables port-based analyzer activation entirely.
	DPDIgnorePorts bool `mapstructure:"dpd_ignore_ports"`

	// DPDReassembleFirstPackets forces TCP reassembly on from the very
	// first packet of every connection.
	DPDReassembleFirstPackets bool `mapstructure:"dpd_reassemble_first_packets"`

	// TCPContents is the master switch for TCP content capture.
	TCPContents bool `mapstructure:"tcp_contents"`

	// TCPContentDeliverAllOrig/Resp force reassembly for every
	// connection regardless of port.
	TCPContentDeliverAllOrig bool `mapstructure:"tcp_content_deliver_all_orig"`
	TCPContentDeliverAllResp bool `mapstructure:"tcp_content_deliver_all_resp"`

	// TCPContentDeliveryPortsOrig/Resp gate reassembly by responder
	// port when TCPContents is set but the "deliver all" switches
	// aren't.
	TCPContentDeliveryPortsOrig map[uint16]bool `mapstructure:"-"`
	TCPContentDeliveryPortsResp map[uint16]bool `mapstructure:"-"`

	// LikelyServerPorts backs IsLikelyServerPort. Each entry carries its
	// own transport, since the same numeric port can be a likely server
	// port for one transport (53/udp for DNS) and not another.
	LikelyServerPorts []conn.ServerPort `mapstructure:"-"`

	// StpSkipSrc exempts originator addresses from stepping-stone
	// detection.
	StpSkipSrc map[string]bool `mapstructure:"-"`

	// VXLANPorts is published to the VXLAN tunnel decoder; per
	// spec.md §6 it is fatal at startup if undefined.
	VXLANPorts []uint16 `mapstructure:"-"`
}

func setDefaults() {
	viper.SetDefault("dpd.ignore_ports", false)
	viper.SetDefault("dpd.reassemble_first_packets", false)
	viper.SetDefault("tcp.contents", false)
	viper.SetDefault("tcp.content_deliver_all_orig", false)
	viper.SetDefault("tcp.content_deliver_all_resp", false)
}

// Load builds a Config from whatever viper has been configured to read
// (file, env, flags — left to the surrounding runtime per spec.md §1's
// "configuration file parsing" being out of scope for this module). The
// set-valued fields are supplied directly by the caller rather than
// through viper, since spec.md models them as script-table mirrors, not
// flat scalars.
func Load(contentPortsOrig, contentPortsResp []uint16, likelyServerPorts []conn.ServerPort, stpSkipSrc []string, vxlanPorts []uint16) (*Config, error) {
	defaultsOnce.Do(setDefaults)

	if len(vxlanPorts) == 0 {
		return nil, fmt.Errorf("%w: Tunnel::vxlan_ports", errs.ErrMissingConfig)
	}

	cfg := &Config{
		DPDIgnorePorts:              viper.GetBool("dpd.ignore_ports"),
		DPDReassembleFirstPackets:   viper.GetBool("dpd.reassemble_first_packets"),
		TCPContents:                 viper.GetBool("tcp.contents"),
		TCPContentDeliverAllOrig:    viper.GetBool("tcp.content_deliver_all_orig"),
		TCPContentDeliverAllResp:    viper.GetBool("tcp.content_deliver_all_resp"),
		TCPContentDeliveryPortsOrig: toPortSet(contentPortsOrig),
		TCPContentDeliveryPortsResp: toPortSet(contentPortsResp),
		LikelyServerPorts:           likelyServerPorts,
		StpSkipSrc:                  toAddrSet(stpSkipSrc),
		VXLANPorts:                  vxlanPorts,
	}

	return cfg, nil
}

func toPortSet(ports []uint16) map[uint16]bool {
	m := make(map[uint16]bool, len(ports))
	for _, p := range ports {
		m[p] = true
	}
	return m
}

func toAddrSet(addrs []string) map[string]bool {
	m := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		m[a] = true
	}
	return m
}
