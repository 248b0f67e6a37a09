package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FPSpectra/internal/config"
	"FPSpectra/internal/engine/manager"
	"FPSpectra/internal/model"
	"FPSpectra/internal/probe"
	"FPSpectra/internal/probe/persistent"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	log.Println("Starting fps-engine...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	sub, err := probe.NewSubscriber(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	mgr, err := manager.NewManager(cfg, sub.Dict())
	if err != nil {
		log.Fatalf("Failed to create engine manager: %v", err)
	}
	mgr.Start()

	var journal *persistent.Worker
	if cfg.Probe.Journal.Enabled {
		journal, err = persistent.NewWorker(cfg.Probe.Journal, sub.Dict())
		if err != nil {
			log.Fatalf("Failed to create journal worker: %v", err)
		}
	}

	input := mgr.InputChannel()
	if err := sub.Start(func(txn *model.Transaction) {
		input <- txn
		if journal != nil {
			journal.Enqueue(txn)
		}
	}); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping engine...")
	sub.Close()
	mgr.Stop()
	if journal != nil {
		journal.Stop()
	}
	log.Println("Shutdown complete.")
}
