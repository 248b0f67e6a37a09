// Package probe carries transactions between the capture side and the
// engine over NATS, JSON-encoded with item strings so each side keeps
// its own interning dictionary.
package probe

// wireTransaction is the JSON payload published per transaction.
type wireTransaction struct {
	Seq   uint64   `json:"seq"`
	Items []string `json:"items"`
	Label int8     `json:"label"`
}
