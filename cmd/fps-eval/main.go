package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"FPSpectra/internal/checkpoint"
	"FPSpectra/internal/config"
	"FPSpectra/internal/engine/baseline"
	_ "FPSpectra/internal/engine/variant" // registers the maintenance strategies
	"FPSpectra/internal/engine/window"
	"FPSpectra/internal/eval"
	"FPSpectra/internal/factory"
	"FPSpectra/internal/model"
	"FPSpectra/internal/results"
	"FPSpectra/internal/txn"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	resume := flag.Bool("resume", false, "Resume interrupted runs from their checkpoints.")
	clearCheckpoints := flag.Bool("clear-checkpoints", false, "Remove all saved checkpoints before running.")
	flag.Parse()

	log.Println("Starting fps-eval...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Eval.SourcePath == "" {
		log.Fatalf("eval.source_path is required for an offline run.")
	}

	store, err := checkpoint.NewStore(cfg.Checkpoint.Dir)
	if err != nil {
		log.Fatalf("Failed to create checkpoint store: %v", err)
	}
	if *clearCheckpoints {
		if err := store.ClearAll(); err != nil {
			log.Fatalf("Failed to clear checkpoints: %v", err)
		}
		log.Println("Cleared all checkpoints.")
	}

	writers, err := results.NewWriters(cfg.Writers)
	if err != nil {
		log.Fatalf("Failed to create writers: %v", err)
	}

	harness := eval.NewHarness(store, cfg.Checkpoint.Interval,
		cfg.Eval.MemorySampleEvery, cfg.Engine.AnomalyThreshold)

	// Each algorithm gets its own source and dictionary: detectors share
	// no mutable state.
	runTimestamp := time.Now().Format("2006-01-02_15-04-05")
	var runResults []*eval.Result

	for _, name := range cfg.Engine.Strategies {
		det, err := strategyDetector(name, cfg)
		if err != nil {
			log.Fatalf("Failed to create strategy '%s': %v", name, err)
		}
		runResults = append(runResults, runOne(harness, det, cfg, *resume))
	}
	for _, name := range cfg.Engine.Baselines {
		det, err := baselineDetector(name, cfg)
		if err != nil {
			log.Fatalf("Failed to create baseline '%s': %v", name, err)
		}
		runResults = append(runResults, runOne(harness, det, cfg, *resume))
	}

	for _, writer := range writers {
		for _, res := range runResults {
			if err := writer.Write(res, runTimestamp, res.Algorithm); err != nil {
				log.Printf("Error writing results for '%s': %v", res.Algorithm, err)
			}
		}
	}
	log.Printf("Evaluation complete: %d algorithms over %s.", len(runResults), cfg.Eval.SourcePath)
}

func strategyDetector(name string, cfg *config.Config) (model.Detector, error) {
	strat, err := factory.NewStrategy(name, cfg)
	if err != nil {
		return nil, err
	}
	mgr, err := window.NewManager(cfg.Engine.WindowSize, strat)
	if err != nil {
		return nil, err
	}
	return eval.NewPatternDetector(mgr, cfg.Engine.MineEvery), nil
}

func baselineDetector(name string, cfg *config.Config) (model.Detector, error) {
	switch name {
	case "hstree":
		hs := cfg.Engine.HSTree
		return baseline.NewHSTree(hs.Trees, hs.Depth, cfg.Engine.WindowSize, hs.Seed), nil
	case "rcf":
		rc := cfg.Engine.RCF
		return baseline.NewRCF(rc.Trees, rc.SampleSize, rc.Seed), nil
	case "autoencoder":
		ae := cfg.Engine.Autoencoder
		return baseline.NewAutoencoder(ae.Hidden, ae.LearningRate, ae.Seed), nil
	case "itemfreq":
		return baseline.NewItemFreq(cfg.Engine.WindowSize), nil
	default:
		return nil, fmt.Errorf("unknown baseline: '%s'", name)
	}
}

func runOne(harness *eval.Harness, det model.Detector, cfg *config.Config, resume bool) *eval.Result {
	src, err := txn.NewJSONLSource(cfg.Eval.SourcePath, model.NewDict())
	if err != nil {
		log.Fatalf("Failed to open source for '%s': %v", det.Name(), err)
	}
	defer src.Close()

	log.Printf("Evaluating '%s'...", det.Name())
	res, err := harness.Run(det, src, resume)
	if err != nil {
		log.Fatalf("Run failed for '%s': %v", det.Name(), err)
	}
	log.Printf("%s: %d txns, %.0f txn/s, F1 %.3f, PR-AUC %.3f",
		res.Algorithm, res.Processed, res.Throughput, res.Classification.F1, res.PRAUC)
	return res
}
