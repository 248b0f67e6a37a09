// Package query reads evaluation metric rows back out of ClickHouse for
// the HTTP API.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FPSpectra/internal/config"
	"FPSpectra/internal/results"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// AlgorithmSummary aggregates every stored run of one algorithm.
type AlgorithmSummary struct {
	Algorithm        string  `json:"algorithm"`
	Runs             uint64  `json:"runs"`
	BestF1           float64 `json:"best_f1"`
	BestPRAUC        float64 `json:"best_pr_auc"`
	LatestThroughput float64 `json:"latest_throughput_tps"`
	LatestMemoryMB   float64 `json:"latest_memory_mb"`
}

// MetricRow is one stored evaluation run.
type MetricRow struct {
	Timestamp     time.Time `json:"timestamp"`
	Algorithm     string    `json:"algorithm"`
	Processed     uint64    `json:"processed"`
	ThroughputTPS float64   `json:"throughput_tps"`
	LatencyP50Ns  uint64    `json:"latency_p50_ns"`
	LatencyP95Ns  uint64    `json:"latency_p95_ns"`
	LatencyP99Ns  uint64    `json:"latency_p99_ns"`
	MemoryMeanMB  float64   `json:"memory_mean_mb"`
	Precision     float64   `json:"precision"`
	Recall        float64   `json:"recall"`
	F1            float64   `json:"f1"`
	Accuracy      float64   `json:"accuracy"`
	PRAUC         float64   `json:"pr_auc"`
}

// Querier defines the read side of the metrics store.
type Querier interface {
	Summaries(ctx context.Context, since time.Time) ([]AlgorithmSummary, error)
	History(ctx context.Context, algorithm string, limit int) ([]MetricRow, error)
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn driver.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := results.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

// Summaries aggregates per-algorithm quality and the latest run's
// resource numbers.
func (q *clickhouseQuerier) Summaries(ctx context.Context, since time.Time) ([]AlgorithmSummary, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			Algorithm,
			COUNT(*) AS Runs,
			MAX(F1) AS BestF1,
			MAX(PRAUC) AS BestPRAUC,
			argMax(ThroughputTPS, Timestamp) AS LatestThroughput,
			argMax(MemoryMeanMB, Timestamp) AS LatestMemoryMB
		FROM fp_eval_metrics
	`)

	args := []any{}
	if !since.IsZero() {
		queryBuilder.WriteString(" WHERE Timestamp >= ?")
		args = append(args, since)
	}
	queryBuilder.WriteString(" GROUP BY Algorithm ORDER BY Algorithm")

	rows, err := q.conn.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute summary query: %w", err)
	}
	defer rows.Close()

	var summaries []AlgorithmSummary
	for rows.Next() {
		var s AlgorithmSummary
		if err := rows.Scan(&s.Algorithm, &s.Runs, &s.BestF1, &s.BestPRAUC,
			&s.LatestThroughput, &s.LatestMemoryMB); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// History returns the most recent runs of one algorithm, newest first.
func (q *clickhouseQuerier) History(ctx context.Context, algorithm string, limit int) ([]MetricRow, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			Timestamp, Algorithm, Processed, ThroughputTPS,
			LatencyP50Ns, LatencyP95Ns, LatencyP99Ns,
			MemoryMeanMB, Precision, Recall, F1, Accuracy, PRAUC
		FROM fp_eval_metrics
		WHERE Algorithm = ?
		ORDER BY Timestamp DESC
		LIMIT ?
	`
	rows, err := q.conn.Query(ctx, query, algorithm, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute history query: %w", err)
	}
	defer rows.Close()

	var out []MetricRow
	for rows.Next() {
		var r MetricRow
		if err := rows.Scan(&r.Timestamp, &r.Algorithm, &r.Processed, &r.ThroughputTPS,
			&r.LatencyP50Ns, &r.LatencyP95Ns, &r.LatencyP99Ns,
			&r.MemoryMeanMB, &r.Precision, &r.Recall, &r.F1, &r.Accuracy, &r.PRAUC); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
