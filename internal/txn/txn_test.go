package txn

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"FPSpectra/internal/model"
)

func TestBuilderDiscretizesPacket(t *testing.T) {
	dict := model.NewDict()
	b := NewBuilder(dict)

	info := &model.PacketInfo{
		FiveTuple: model.FiveTuple{
			SrcIP:    net.IPv4(10, 0, 0, 1),
			DstIP:    net.IPv4(10, 0, 0, 2),
			SrcPort:  49152,
			DstPort:  443,
			Protocol: 6,
		},
		Length: 1500,
	}
	txn := b.FromPacket(info)

	want := []string{
		"protocol=TCP",
		"dst_port=443",
		"src_port_bin_16",
		"length_bin_11",
	}
	if len(txn.Items) != len(want) {
		t.Fatalf("got %d items, want %d", len(txn.Items), len(want))
	}
	for i, name := range want {
		if got := dict.Name(txn.Items[i]); got != name {
			t.Errorf("item %d = %q, want %q", i, got, name)
		}
	}
	if txn.Label != -1 {
		t.Errorf("live packet label = %d, want -1 (unknown)", txn.Label)
	}
}

func TestBuilderSequenceAndInterning(t *testing.T) {
	dict := model.NewDict()
	b := NewBuilder(dict)
	info := &model.PacketInfo{
		FiveTuple: model.FiveTuple{SrcPort: 2000, DstPort: 80, Protocol: 17},
		Length:    64,
	}

	a := b.FromPacket(info)
	c := b.FromPacket(info)
	if a.Seq != 0 || c.Seq != 1 {
		t.Errorf("sequences %d, %d; want 0, 1", a.Seq, c.Seq)
	}
	for i := range a.Items {
		if a.Items[i] != c.Items[i] {
			t.Errorf("identical packets interned to different items: %v vs %v", a.Items, c.Items)
		}
	}
}

func writeJSONL(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "txns.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func drain(t *testing.T, s *JSONLSource) []*model.Transaction {
	t.Helper()
	var out []*model.Transaction
	for {
		txn, err := s.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, txn)
	}
}

func TestJSONLSourceReadsLabeledStream(t *testing.T) {
	path := writeJSONL(t, `{"items":["a","b"],"label":0}
{"items":["b","c"],"label":1}
{"items":["a"]}
`)
	dict := model.NewDict()
	src, err := NewJSONLSource(path, dict)
	if err != nil {
		t.Fatalf("NewJSONLSource failed: %v", err)
	}
	defer src.Close()

	txns := drain(t, src)
	if len(txns) != 3 {
		t.Fatalf("read %d transactions, want 3", len(txns))
	}
	if txns[0].Label != 0 || txns[1].Label != 1 || txns[2].Label != -1 {
		t.Errorf("labels %d,%d,%d; want 0,1,-1",
			txns[0].Label, txns[1].Label, txns[2].Label)
	}
	// "b" must intern to the same id in both transactions.
	if txns[0].Items[1] != txns[1].Items[0] {
		t.Errorf("item 'b' interned inconsistently: %d vs %d", txns[0].Items[1], txns[1].Items[0])
	}
	if txns[0].Seq != 0 || txns[2].Seq != 2 {
		t.Errorf("sequences %d..%d, want 0..2", txns[0].Seq, txns[2].Seq)
	}
}

func TestJSONLSourceSkipsMalformedLines(t *testing.T) {
	path := writeJSONL(t, `{"items":["a"],"label":0}
this is not json

{"items":["b"],"label":1}
`)
	src, err := NewJSONLSource(path, model.NewDict())
	if err != nil {
		t.Fatalf("NewJSONLSource failed: %v", err)
	}
	defer src.Close()

	txns := drain(t, src)
	if len(txns) != 2 {
		t.Fatalf("read %d transactions, want 2 (bad lines skipped)", len(txns))
	}
}

func TestJSONLSourceDeduplicatesItems(t *testing.T) {
	path := writeJSONL(t, `{"items":["a","b","a"],"label":0}
`)
	src, err := NewJSONLSource(path, model.NewDict())
	if err != nil {
		t.Fatalf("NewJSONLSource failed: %v", err)
	}
	defer src.Close()

	txns := drain(t, src)
	if len(txns[0].Items) != 2 {
		t.Errorf("duplicate item survived: %v", txns[0].Items)
	}
}

func TestJSONLSourceRestartReplaysIdentically(t *testing.T) {
	path := writeJSONL(t, `{"items":["a","b"],"label":0}
{"items":["c"],"label":1}
`)
	dict := model.NewDict()
	src, err := NewJSONLSource(path, dict)
	if err != nil {
		t.Fatalf("NewJSONLSource failed: %v", err)
	}
	defer src.Close()

	first := drain(t, src)
	if err := src.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	second := drain(t, src)

	if len(first) != len(second) {
		t.Fatalf("replay length %d, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i].Seq != second[i].Seq || first[i].Label != second[i].Label {
			t.Fatalf("transaction %d differs after restart", i)
		}
		for j := range first[i].Items {
			if first[i].Items[j] != second[i].Items[j] {
				t.Fatalf("item ids unstable across restart at txn %d", i)
			}
		}
	}
}
