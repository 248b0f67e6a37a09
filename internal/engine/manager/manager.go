// Package manager orchestrates the live engine: it fans the incoming
// transaction stream out to one scoring lane per maintenance strategy,
// snapshots mined patterns to the configured writers, and feeds the
// anomaly-rate alerter.
package manager

import (
	"fmt"
	"log"
	"sync"
	"time"

	"FPSpectra/internal/alerter"
	"FPSpectra/internal/config"
	_ "FPSpectra/internal/engine/variant" // registers the maintenance strategies
	"FPSpectra/internal/engine/window"
	"FPSpectra/internal/eval"
	"FPSpectra/internal/factory"
	"FPSpectra/internal/model"
	"FPSpectra/internal/notification"
	"FPSpectra/internal/results"
)

// lane is one strategy's scoring pipeline. Strategies are
// single-threaded, so each lane owns a dedicated worker goroutine and a
// mutex guarding the detector for snapshot reads.
type lane struct {
	name string
	ch   chan *model.Transaction

	mu  sync.Mutex
	det *eval.PatternDetector
}

// Manager runs every configured strategy side by side over the live
// transaction stream.
type Manager struct {
	lanes     []*lane
	writers   []model.Writer
	alerter   *alerter.Alerter
	dict      *model.Dict
	threshold float64

	txnChannel    chan *model.Transaction
	fanWg         sync.WaitGroup
	workerWg      sync.WaitGroup
	done          chan struct{}
	snapshotterWg sync.WaitGroup
}

// NewManager builds the lanes, writers and alerter from the config. The
// dictionary must be the one the incoming transactions are interned
// through; it resolves pattern snapshots back to item strings.
func NewManager(cfg *config.Config, dict *model.Dict) (*Manager, error) {
	strategies, err := factory.NewStrategies(cfg)
	if err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies enabled in engine.strategies")
	}

	lanes := make([]*lane, 0, len(strategies))
	for _, strat := range strategies {
		mgr, err := window.NewManager(cfg.Engine.WindowSize, strat)
		if err != nil {
			return nil, err
		}
		lanes = append(lanes, &lane{
			name: strat.Name(),
			det:  eval.NewPatternDetector(mgr, cfg.Engine.MineEvery),
			ch:   make(chan *model.Transaction, 1024),
		})
	}

	writers, err := results.NewWriters(cfg.Writers)
	if err != nil {
		return nil, err
	}

	var alertr *alerter.Alerter
	if cfg.Alerter.Enabled {
		var notifier model.Notifier
		if cfg.SMTP.Host != "" {
			notifier = notification.NewEmailNotifier(cfg.SMTP)
		}
		if notifier != nil {
			alertr, err = alerter.NewAlerter(&cfg.Alerter, notifier)
			if err != nil {
				return nil, fmt.Errorf("failed to create alerter: %w", err)
			}
			log.Println("Alerter enabled and initialized.")
		} else {
			log.Println("Alerter is enabled in config, but no notifiers are configured. Alerter will not run.")
		}
	}

	return &Manager{
		lanes:      lanes,
		writers:    writers,
		alerter:    alertr,
		dict:       dict,
		threshold:  cfg.Engine.AnomalyThreshold,
		txnChannel: make(chan *model.Transaction, 4096),
		done:       make(chan struct{}),
	}, nil
}

// Start launches the lane workers, the fan-out goroutine, the
// snapshotters and the alerter.
func (m *Manager) Start() {
	for _, writer := range m.writers {
		m.snapshotterWg.Add(1)
		go m.runSnapshotter(writer)
		log.Printf("Started snapshotter for a writer with interval %s, handling %d lanes.",
			writer.GetInterval(), len(m.lanes))
	}

	if m.alerter != nil {
		go m.alerter.Start()
	}

	m.workerWg.Add(len(m.lanes))
	for _, l := range m.lanes {
		go m.runLane(l)
	}

	m.fanWg.Add(1)
	go m.fanOut()
	log.Printf("Manager started with %d strategy lanes.", len(m.lanes))
}

// fanOut copies each incoming transaction into every lane. Sends block,
// so a slow strategy applies backpressure instead of silently skewing
// its window.
func (m *Manager) fanOut() {
	defer m.fanWg.Done()
	for txn := range m.txnChannel {
		for _, l := range m.lanes {
			l.ch <- txn
		}
	}
	for _, l := range m.lanes {
		close(l.ch)
	}
}

func (m *Manager) runLane(l *lane) {
	defer m.workerWg.Done()
	for txn := range l.ch {
		l.mu.Lock()
		score := l.det.Observe(txn)
		l.mu.Unlock()

		if m.alerter != nil {
			m.alerter.Record(l.name, score >= m.threshold)
		}
	}
}

// runSnapshotter periodically writes every lane's mined patterns through
// one writer, plus a final snapshot on shutdown.
func (m *Manager) runSnapshotter(writer model.Writer) {
	defer m.snapshotterWg.Done()
	interval := writer.GetInterval()
	if interval <= 0 {
		log.Printf("Invalid interval %s for writer, snapshotter will not run.", interval)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.takeSnapshotForWriter(writer)
		case <-m.done:
			m.takeSnapshotForWriter(writer)
			return
		}
	}
}

func (m *Manager) takeSnapshotForWriter(writer model.Writer) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")

	for _, l := range m.lanes {
		l.mu.Lock()
		patterns := l.det.Patterns()
		l.mu.Unlock()
		if patterns == nil {
			continue
		}

		snap := results.NewPatternSnapshot(l.name, patterns, m.dict)
		if err := writer.Write(snap, timestamp, l.name); err != nil {
			log.Printf("Error writing snapshot for lane %s: %v", l.name, err)
		}
	}
}

// Stop drains the pipeline and shuts everything down in order: input
// first, then lane workers, then snapshotters and the alerter.
func (m *Manager) Stop() {
	log.Println("Manager stopping...")
	close(m.txnChannel)
	m.fanWg.Wait()

	log.Println("Waiting for lane workers to finish...")
	m.workerWg.Wait()

	close(m.done)
	log.Println("Waiting for snapshotters to finish...")
	m.snapshotterWg.Wait()

	if m.alerter != nil {
		m.alerter.Stop()
	}
	log.Println("Manager stopped.")
}

// InputChannel is where the NATS subscriber delivers transactions.
func (m *Manager) InputChannel() chan<- *model.Transaction {
	return m.txnChannel
}
