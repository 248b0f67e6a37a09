package model

import (
	"net"
	"time"
)

// FiveTuple identifies a flow by its endpoints and transport protocol.
type FiveTuple struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

// PacketInfo holds the decoded fields of one captured packet.
type PacketInfo struct {
	Timestamp time.Time
	FiveTuple FiveTuple
	Length    int
}
