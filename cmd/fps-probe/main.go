package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FPSpectra/internal/config"
	"FPSpectra/internal/engine/protocol"
	"FPSpectra/internal/model"
	"FPSpectra/internal/probe"
	"FPSpectra/internal/txn"
	pcapreader "FPSpectra/pkg/pcap"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

const (
	snapshotLen int32 = 1600
	promiscuous       = true
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	iface := flag.String("iface", "", "Interface to capture from (live mode).")
	pcapPath := flag.String("pcap", "", "Capture file to replay (overrides probe.pcap_path).")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dict := model.NewDict()
	builder := txn.NewBuilder(dict)
	pub, err := probe.NewPublisher(cfg.Probe, dict)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pub.Close()

	path := cfg.Probe.PcapPath
	if *pcapPath != "" {
		path = *pcapPath
	}

	switch {
	case *iface != "":
		runLive(*iface, builder, pub)
	case path != "":
		runReplay(path, builder, pub)
	default:
		log.Fatalf("Either -iface or a pcap path (-pcap / probe.pcap_path) is required.")
	}
}

// runLive captures from an interface until interrupted.
func runLive(interfaceName string, builder *txn.Builder, pub *probe.Publisher) {
	log.Printf("Starting fps-probe in live mode on interface: %s", interfaceName)

	handle, err := pcap.OpenLive(interfaceName, snapshotLen, promiscuous, pcap.BlockForever)
	if err != nil {
		log.Fatalf("Error opening device %s: %v", interfaceName, err)
	}
	defer handle.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
		published := 0
		for packet := range packetSource.Packets() {
			info, err := protocol.ParsePacket(packet.Data())
			if err != nil {
				continue
			}
			publish(builder, pub, info, &published)
		}
	}()

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}

// runReplay publishes every packet of a capture file, then exits.
func runReplay(path string, builder *txn.Builder, pub *probe.Publisher) {
	log.Printf("Starting fps-probe in replay mode over: %s", path)

	reader, err := pcapreader.NewReader(path)
	if err != nil {
		log.Fatalf("Failed to open capture file: %v", err)
	}
	defer reader.Close()

	out := make(chan *model.PacketInfo)
	go reader.ReadPackets(out)

	published := 0
	for info := range out {
		publish(builder, pub, info, &published)
	}
	log.Printf("Replay complete: %d transactions published.", published)
}

func publish(builder *txn.Builder, pub *probe.Publisher, info *model.PacketInfo, published *int) {
	t := builder.FromPacket(info)
	if err := pub.Publish(t); err != nil {
		log.Printf("Failed to publish transaction: %v", err)
		return
	}
	*published++
	if *published%1000 == 0 {
		log.Printf("%d transactions published...", *published)
	}
}
