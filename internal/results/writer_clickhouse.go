package results

import (
	"context"
	"fmt"
	"log"
	"time"

	"FPSpectra/internal/config"
	"FPSpectra/internal/eval"
	"FPSpectra/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS fp_eval_metrics (
    Timestamp     DateTime,
    Algorithm     String,
    Processed     UInt64,
    ThroughputTPS Float64,
    LatencyMeanNs UInt64,
    LatencyP50Ns  UInt64,
    LatencyP95Ns  UInt64,
    LatencyP99Ns  UInt64,
    LatencyMaxNs  UInt64,
    MemoryMeanMB  Float64,
    MemoryMaxMB   Float64,
    Precision     Float64,
    Recall        Float64,
    F1            Float64,
    Accuracy      Float64,
    PRAUC         Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Algorithm, Timestamp);
`

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn     driver.Conn
	interval time.Duration
}

// NewClickHouseWriter connects and ensures the metrics table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig, interval time.Duration) (model.Writer, error) {
	conn, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn, interval: interval}, nil
}

// GetInterval returns the configured snapshot interval for this writer.
func (w *ClickHouseWriter) GetInterval() time.Duration {
	return w.interval
}

// Connect opens a ClickHouse connection with LZ4 compression and
// verifies it with a ping.
func Connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

// Write inserts one metric row per evaluation result into fp_eval_metrics.
func (w *ClickHouseWriter) Write(payload any, timestamp string, name string) error {
	var results []*eval.Result
	switch p := payload.(type) {
	case *eval.Result:
		results = append(results, p)
	case []*eval.Result:
		results = p
	default:
		return fmt.Errorf("invalid payload type for ClickHouse writer: expected *eval.Result, got %T", payload)
	}
	if len(results) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO fp_eval_metrics")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	rowTime, err := time.Parse("2006-01-02_15-04-05", timestamp)
	if err != nil {
		rowTime = time.Now().UTC()
	}

	for _, res := range results {
		err = batch.Append(
			rowTime,
			res.Algorithm,
			uint64(res.Processed),
			res.Throughput,
			uint64(res.Latency.Mean),
			uint64(res.Latency.P50),
			uint64(res.Latency.P95),
			uint64(res.Latency.P99),
			uint64(res.Latency.Max),
			res.MemoryMeanMB,
			res.MemoryMaxMB,
			res.Classification.Precision,
			res.Classification.Recall,
			res.Classification.F1,
			res.Classification.Accuracy,
			res.PRAUC,
		)
		if err != nil {
			return fmt.Errorf("failed to append result to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	log.Printf("Wrote %d metric rows to ClickHouse", len(results))
	return nil
}
