package eval

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"FPSpectra/internal/checkpoint"
	"FPSpectra/internal/model"
)

// Result is the final per-algorithm report of one streaming run.
type Result struct {
	Algorithm string
	Processed int
	Elapsed   time.Duration

	Throughput float64
	Latency    LatencySummary

	MemoryMeanMB float64
	MemoryMaxMB  float64

	Classification Classification
	PRAUC          float64

	// Scores and Predictions stay aligned to the input stream for
	// downstream report tooling.
	Scores      []float64
	Predictions []int8
	Labels      []int8
}

// progressState is the checkpointed portion of a run: the transaction
// index plus accumulated results. Detector tree state is rebuilt on
// resume by warm-replaying the already-scored prefix without mining,
// which skips the dominant cost.
type progressState struct {
	Index        int
	Scores       []float64
	Predictions  []int8
	Labels       []int8
	MemSamples   []float64
	LatencyNanos []int64
	ElapsedNanos int64
}

// warmer is implemented by detectors that can replay a transaction
// cheaply during resume. remaining is the number of replay transactions
// still to come after this one; detectors with cadence state use it to
// reproduce the exact state the uninterrupted run had at the checkpoint.
type warmer interface {
	Warm(txn *model.Transaction, remaining int)
}

// Harness runs detectors over a transaction stream one at a time,
// checkpointing progress so interrupted runs resume instead of
// restarting.
type Harness struct {
	Store             *checkpoint.Store
	CheckpointEvery   int
	MemorySampleEvery int
	AnomalyThreshold  float64
	ProgressEvery     int
}

// NewHarness creates a harness with the given checkpoint store and
// cadences. store may be nil to disable checkpointing.
func NewHarness(store *checkpoint.Store, checkpointEvery, memorySampleEvery int, threshold float64) *Harness {
	return &Harness{
		Store:             store,
		CheckpointEvery:   checkpointEvery,
		MemorySampleEvery: memorySampleEvery,
		AnomalyThreshold:  threshold,
		ProgressEvery:     5000,
	}
}

// Run evaluates one detector over the full source. With resume set, a
// previously saved checkpoint continues from its transaction index;
// checkpoint load failures are recoverable and fall back to a fresh run
// with a warning.
func (h *Harness) Run(det model.Detector, src model.Source, resume bool) (*Result, error) {
	state := &progressState{}
	if resume && h.Store != nil {
		if err := h.Store.Load(det.Name(), state); err != nil {
			switch {
			case errors.Is(err, checkpoint.ErrNotFound):
				// Fresh run.
			case errors.Is(err, checkpoint.ErrCorrupt):
				log.Printf("Warning: checkpoint for '%s' is corrupt, restarting from 0", det.Name())
				state = &progressState{}
			default:
				log.Printf("Warning: failed to load checkpoint for '%s': %v, restarting from 0", det.Name(), err)
				state = &progressState{}
			}
		} else if state.Index > 0 {
			log.Printf("Resuming '%s' from transaction %d", det.Name(), state.Index)
		}
	}

	if err := src.Restart(); err != nil {
		return nil, fmt.Errorf("failed to restart transaction source: %w", err)
	}
	det.Reset()

	// Warm replay of the already-scored prefix rebuilds detector state
	// without the per-tick mining cost.
	for idx := 0; idx < state.Index; idx++ {
		txn, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf("source ended at %d during warm replay to checkpoint %d: %w", idx, state.Index, err)
		}
		if w, ok := det.(warmer); ok {
			w.Warm(txn, state.Index-idx-1)
		} else {
			det.Observe(txn)
		}
	}

	start := time.Now()
	idx := state.Index
	for {
		txn, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("transaction source failed at %d: %w", idx, err)
		}

		txnStart := time.Now()
		score := det.Observe(txn)
		latency := time.Since(txnStart)

		pred := int8(0)
		if score >= h.AnomalyThreshold {
			pred = 1
		}
		state.Scores = append(state.Scores, score)
		state.Predictions = append(state.Predictions, pred)
		state.Labels = append(state.Labels, txn.Label)
		state.LatencyNanos = append(state.LatencyNanos, int64(latency))

		idx++
		if h.MemorySampleEvery > 0 && idx%h.MemorySampleEvery == 0 {
			state.MemSamples = append(state.MemSamples, memoryMB())
		}
		if h.Store != nil && h.CheckpointEvery > 0 && idx%h.CheckpointEvery == 0 {
			state.Index = idx
			state.ElapsedNanos += int64(time.Since(start))
			start = time.Now()
			if err := h.Store.Save(det.Name(), state); err != nil {
				log.Printf("Warning: failed to save checkpoint for '%s' at %d: %v", det.Name(), idx, err)
			}
		}
		if h.ProgressEvery > 0 && idx%h.ProgressEvery == 0 {
			elapsed := time.Duration(state.ElapsedNanos) + time.Since(start)
			log.Printf("%s: %d transactions, %.0f txn/s", det.Name(), idx, Throughput(idx, elapsed))
		}
	}

	elapsed := time.Duration(state.ElapsedNanos) + time.Since(start)
	result := h.finalize(det.Name(), state, idx, elapsed)

	if h.Store != nil {
		if err := h.Store.Clear(det.Name()); err != nil {
			log.Printf("Warning: failed to clear checkpoint for '%s': %v", det.Name(), err)
		}
	}
	return result, nil
}

func (h *Harness) finalize(name string, state *progressState, processed int, elapsed time.Duration) *Result {
	latencies := make([]time.Duration, len(state.LatencyNanos))
	for i, ns := range state.LatencyNanos {
		latencies[i] = time.Duration(ns)
	}

	memMean, memMax := 0.0, 0.0
	for _, mb := range state.MemSamples {
		memMean += mb
		if mb > memMax {
			memMax = mb
		}
	}
	if len(state.MemSamples) > 0 {
		memMean /= float64(len(state.MemSamples))
	} else {
		memMean = memoryMB()
		memMax = memMean
	}

	return &Result{
		Algorithm:      name,
		Processed:      processed,
		Elapsed:        elapsed,
		Throughput:     Throughput(processed, elapsed),
		Latency:        SummarizeLatencies(latencies),
		MemoryMeanMB:   memMean,
		MemoryMaxMB:    memMax,
		Classification: Classify(state.Labels, state.Predictions),
		PRAUC:          PRAUC(state.Labels, state.Scores),
		Scores:         state.Scores,
		Predictions:    state.Predictions,
		Labels:         state.Labels,
	}
}
