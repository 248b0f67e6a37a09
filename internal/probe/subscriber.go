package probe

import (
	"encoding/json"
	"log"

	"FPSpectra/internal/config"
	"FPSpectra/internal/model"

	"github.com/nats-io/nats.go"
)

// TransactionHandler is a function that processes a received transaction.
type TransactionHandler func(txn *model.Transaction)

// Subscriber subscribes to a NATS subject and decodes transactions. It
// owns its interning dictionary; item ids on the engine side are
// independent of the probe side.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	dict    *model.Dict
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.ProbeConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Subscriber{nc: nc, subject: cfg.Subject, dict: model.NewDict()}, nil
}

// Dict returns the subscriber's interning dictionary, for translating
// mined patterns back to item strings.
func (s *Subscriber) Dict() *model.Dict {
	return s.dict
}

// Start subscribes to the configured subject and processes each message
// with the handler. Malformed messages are logged and dropped.
func (s *Subscriber) Start(handler TransactionHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		var wire wireTransaction
		if err := json.Unmarshal(msg.Data, &wire); err != nil {
			log.Printf("Error unmarshalling transaction: %v", err)
			return
		}

		items := make([]model.Item, len(wire.Items))
		for i, name := range wire.Items {
			items[i] = s.dict.Intern(name)
		}
		handler(&model.Transaction{Seq: wire.Seq, Items: items, Label: wire.Label})
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for transactions...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
