// Package protocol decodes raw packets into the flow fields the
// transaction builder discretizes.
package protocol

import (
	"fmt"
	"time"

	"FPSpectra/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ParsePacket decodes a raw Ethernet frame and extracts the five-tuple
// and length. Non-IPv4 and non-TCP/UDP packets are rejected; callers log
// and skip them.
func ParsePacket(data []byte) (*model.PacketInfo, error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)

	info := &model.PacketInfo{
		Timestamp: time.Now(),
		Length:    len(data),
	}
	if meta := packet.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		info.Timestamp = meta.Timestamp
	}

	var fiveTuple model.FiveTuple

	if l := packet.Layer(layers.LayerTypeIPv4); l != nil {
		ip := l.(*layers.IPv4)
		fiveTuple.SrcIP = ip.SrcIP
		fiveTuple.DstIP = ip.DstIP
		fiveTuple.Protocol = uint8(ip.Protocol)
	} else {
		return nil, fmt.Errorf("not an IPv4 packet")
	}

	if l := packet.Layer(layers.LayerTypeTCP); l != nil {
		tcp := l.(*layers.TCP)
		fiveTuple.SrcPort = uint16(tcp.SrcPort)
		fiveTuple.DstPort = uint16(tcp.DstPort)
	} else if l := packet.Layer(layers.LayerTypeUDP); l != nil {
		udp := l.(*layers.UDP)
		fiveTuple.SrcPort = uint16(udp.SrcPort)
		fiveTuple.DstPort = uint16(udp.DstPort)
	} else {
		return nil, fmt.Errorf("not a TCP or UDP packet")
	}

	info.FiveTuple = fiveTuple
	return info, nil
}
