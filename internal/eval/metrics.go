// Package eval contains the streaming evaluation harness: it feeds a
// transaction stream through competing detectors, measures per-transaction
// latency, rolling throughput and memory, scores anomalies against ground
// truth, and supports checkpointed resumable runs.
package eval

import (
	"runtime"
	"slices"
	"sort"
	"time"
)

// Classification aggregates binary detection quality against ground-truth
// labels. Transactions with unknown labels (-1) are excluded.
type Classification struct {
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int

	Precision float64
	Recall    float64
	F1        float64
	Accuracy  float64
}

// Classify computes binary classification metrics over aligned label and
// prediction slices.
func Classify(labels, preds []int8) Classification {
	var c Classification
	for i := range labels {
		if labels[i] < 0 {
			continue
		}
		switch {
		case labels[i] == 1 && preds[i] == 1:
			c.TruePositives++
		case labels[i] == 0 && preds[i] == 1:
			c.FalsePositives++
		case labels[i] == 0 && preds[i] == 0:
			c.TrueNegatives++
		default:
			c.FalseNegatives++
		}
	}
	if p := c.TruePositives + c.FalsePositives; p > 0 {
		c.Precision = float64(c.TruePositives) / float64(p)
	}
	if p := c.TruePositives + c.FalseNegatives; p > 0 {
		c.Recall = float64(c.TruePositives) / float64(p)
	}
	if c.Precision+c.Recall > 0 {
		c.F1 = 2 * c.Precision * c.Recall / (c.Precision + c.Recall)
	}
	if total := c.TruePositives + c.FalsePositives + c.TrueNegatives + c.FalseNegatives; total > 0 {
		c.Accuracy = float64(c.TruePositives+c.TrueNegatives) / float64(total)
	}
	return c
}

// PRAUC computes the area under the precision-recall curve by sweeping
// the score threshold over every distinct score, trapezoid-integrated
// along the recall axis. Returns 0 when no positive labels exist.
func PRAUC(labels []int8, scores []float64) float64 {
	type sample struct {
		score float64
		label int8
	}
	samples := make([]sample, 0, len(labels))
	positives := 0
	for i := range labels {
		if labels[i] < 0 {
			continue
		}
		samples = append(samples, sample{scores[i], labels[i]})
		if labels[i] == 1 {
			positives++
		}
	}
	if positives == 0 || len(samples) == 0 {
		return 0
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].score > samples[j].score })

	auc := 0.0
	tp, fp := 0, 0
	prevRecall, prevPrecision := 0.0, 1.0
	for i := 0; i < len(samples); {
		// Advance through all samples sharing one score value: a single
		// threshold step.
		j := i
		for j < len(samples) && samples[j].score == samples[i].score {
			if samples[j].label == 1 {
				tp++
			} else {
				fp++
			}
			j++
		}
		i = j
		recall := float64(tp) / float64(positives)
		precision := float64(tp) / float64(tp+fp)
		auc += (recall - prevRecall) * (precision + prevPrecision) / 2
		prevRecall, prevPrecision = recall, precision
	}
	return auc
}

// Throughput returns transactions per second; 0 for a zero elapsed time.
func Throughput(n int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}

// LatencySummary condenses per-transaction latency samples.
type LatencySummary struct {
	Mean time.Duration
	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Max  time.Duration
}

// SummarizeLatencies computes mean and percentiles over raw samples.
func SummarizeLatencies(samples []time.Duration) LatencySummary {
	if len(samples) == 0 {
		return LatencySummary{}
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	pick := func(q float64) time.Duration {
		idx := int(q * float64(len(sorted)-1))
		return sorted[idx]
	}
	return LatencySummary{
		Mean: sum / time.Duration(len(sorted)),
		P50:  pick(0.50),
		P95:  pick(0.95),
		P99:  pick(0.99),
		Max:  sorted[len(sorted)-1],
	}
}

// memoryMB samples the process heap in megabytes.
func memoryMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / (1024 * 1024)
}
