package probe

import (
	"encoding/json"
	"log"

	"FPSpectra/internal/config"
	"FPSpectra/internal/model"

	"github.com/nats-io/nats.go"
)

// Publisher publishes transactions to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
	dict    *model.Dict
}

// NewPublisher connects to NATS. The dictionary must be the one the
// transactions were interned through; it translates item ids back to
// their strings for the wire.
func NewPublisher(cfg config.ProbeConfig, dict *model.Dict) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, subject: cfg.Subject, dict: dict}, nil
}

// Publish serializes a transaction to JSON and publishes it to the
// configured NATS subject.
func (p *Publisher) Publish(txn *model.Transaction) error {
	wire := wireTransaction{
		Seq:   txn.Seq,
		Items: make([]string, len(txn.Items)),
		Label: txn.Label,
	}
	for i, it := range txn.Items {
		wire.Items[i] = p.dict.Name(it)
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
