// Package pcap streams decoded packets out of capture files for offline
// evaluation runs.
package pcap

import (
	"log"

	"FPSpectra/internal/engine/protocol"
	"FPSpectra/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// Reader reads packets from a pcap file.
type Reader struct {
	handle *pcap.Handle
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle}, nil
}

// Close closes the pcap handle.
func (r *Reader) Close() {
	r.handle.Close()
}

// ReadPackets parses every packet in the file and sends the results to
// the channel, closing it when the file is exhausted. Packets the parser
// rejects are logged and skipped.
func (r *Reader) ReadPackets(out chan<- *model.PacketInfo) {
	defer close(out)

	packetSource := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	for packet := range packetSource.Packets() {
		info, err := protocol.ParsePacket(packet.Data())
		if err != nil {
			log.Printf("Error parsing packet: %v", err)
			continue
		}
		if meta := packet.Metadata(); meta != nil {
			info.Timestamp = meta.Timestamp
		}
		out <- info
	}
}
