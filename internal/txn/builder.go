// Package txn turns network observations into the discrete transactions
// the mining strategies consume: a builder that discretizes decoded
// packets into feature=value items, and a restartable JSONL source for
// offline evaluation runs.
package txn

import (
	"fmt"
	"math/bits"

	"FPSpectra/internal/model"

	"github.com/google/gopacket/layers"
)

// Builder discretizes decoded packets into transactions. Continuous
// fields (lengths, ephemeral ports) are folded into power-of-two bins so
// the item vocabulary stays small; well-known ports keep their exact
// value since the port itself is the signal there. IP addresses are
// deliberately excluded, their cardinality would drown the pattern
// space.
type Builder struct {
	dict *model.Dict
	seq  uint64
}

// NewBuilder creates a builder interning items through the given
// dictionary.
func NewBuilder(dict *model.Dict) *Builder {
	return &Builder{dict: dict}
}

// FromPacket converts one decoded packet into a transaction. Live
// traffic carries no ground truth, so the label is always unknown.
func (b *Builder) FromPacket(info *model.PacketInfo) *model.Transaction {
	ft := info.FiveTuple
	items := []model.Item{
		b.dict.Intern("protocol=" + protocolName(ft.Protocol)),
		b.dict.Intern(portItem("dst_port", ft.DstPort)),
		b.dict.Intern(portItem("src_port", ft.SrcPort)),
		b.dict.Intern(fmt.Sprintf("length_bin_%d", bits.Len(uint(info.Length)))),
	}

	t := &model.Transaction{Seq: b.seq, Items: items, Label: -1}
	b.seq++
	return t
}

// Dict returns the builder's interning dictionary, for translating mined
// patterns back to item strings.
func (b *Builder) Dict() *model.Dict {
	return b.dict
}

func protocolName(p uint8) string {
	switch layers.IPProtocol(p) {
	case layers.IPProtocolTCP:
		return "TCP"
	case layers.IPProtocolUDP:
		return "UDP"
	case layers.IPProtocolICMPv4:
		return "ICMP"
	default:
		return fmt.Sprintf("%d", p)
	}
}

// portItem keeps well-known ports exact and bins the rest by power of
// two, so 443 stays distinguishable while 49152 and 50000 collapse.
func portItem(feature string, port uint16) string {
	if port < 1024 {
		return fmt.Sprintf("%s=%d", feature, port)
	}
	return fmt.Sprintf("%s_bin_%d", feature, bits.Len(uint(port)))
}
