package model

import "time"

// Source is a finite, ordered, restartable sequence of labeled
// transactions produced by the feature-engineering layer.
type Source interface {
	// Next returns the next transaction in arrival order, or io.EOF when
	// the stream is exhausted.
	Next() (*Transaction, error)

	// Restart rewinds the source to the first transaction.
	Restart() error

	Close() error
}

// Writer persists evaluation output (metric rows, pattern snapshots) to a
// durable store. The implementation knows how to handle the payload type
// it receives.
type Writer interface {
	Write(payload any, timestamp string, name string) error

	// GetInterval returns the configured snapshot interval for this writer.
	GetInterval() time.Duration
}

// Notifier sends alert notifications to an external channel.
type Notifier interface {
	Send(subject, body string) error
}
