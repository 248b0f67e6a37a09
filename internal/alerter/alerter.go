// Package alerter watches the live engine's anomaly rate and sends a
// consolidated notification when it crosses the configured threshold.
package alerter

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"FPSpectra/internal/config"
	"FPSpectra/internal/model"
)

// strategyWindow accumulates per-strategy counts between checks.
type strategyWindow struct {
	total   int
	flagged int
}

// Alerter tracks the fraction of transactions flagged anomalous per
// strategy over each check interval and notifies when any strategy's
// rate crosses the threshold.
type Alerter struct {
	notifier      model.Notifier
	checkInterval time.Duration
	threshold     float64
	stopChan      chan struct{}
	wg            sync.WaitGroup

	mu      sync.Mutex
	windows map[string]*strategyWindow
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(cfg *config.AlerterConfig, notifier model.Notifier) (*Alerter, error) {
	interval, err := time.ParseDuration(cfg.CheckInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid check_interval for alerter: %w", err)
	}

	return &Alerter{
		notifier:      notifier,
		checkInterval: interval,
		threshold:     cfg.AnomalyRateThreshold,
		stopChan:      make(chan struct{}),
		windows:       make(map[string]*strategyWindow),
	}, nil
}

// Record registers one scored transaction for the named strategy.
func (a *Alerter) Record(strategy string, flagged bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.windows[strategy]
	if !ok {
		w = &strategyWindow{}
		a.windows[strategy] = w
	}
	w.total++
	if flagged {
		w.flagged++
	}
}

// Start begins the periodic anomaly-rate evaluation.
func (a *Alerter) Start() {
	log.Println("Alerter started")

	a.wg.Add(1)
	defer a.wg.Done()

	ticker := time.NewTicker(a.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.evaluate()
		case <-a.stopChan:
			return
		}
	}
}

// Stop gracefully stops the evaluation loop, running one final check
// over whatever accumulated since the last tick.
func (a *Alerter) Stop() {
	log.Println("Stopping Alerter...")
	close(a.stopChan)
	a.wg.Wait()
	a.evaluate()
}

// evaluate checks every strategy's rate over the elapsed interval and
// resets the counters.
func (a *Alerter) evaluate() {
	a.mu.Lock()
	windows := a.windows
	a.windows = make(map[string]*strategyWindow)
	a.mu.Unlock()

	var alerts []string
	for name, w := range windows {
		if w.total == 0 {
			continue
		}
		rate := float64(w.flagged) / float64(w.total)
		if rate >= a.threshold {
			alerts = append(alerts, fmt.Sprintf(
				"<p><b>%s</b>: %d of %d transactions flagged anomalous (rate %.1f%%, threshold %.1f%%)</p>",
				name, w.flagged, w.total, rate*100, a.threshold*100))
		}
	}

	if len(alerts) == 0 {
		return
	}
	log.Printf("Alerter evaluation completed. %d alert(s) triggered.", len(alerts))

	body := "<h1>FPSpectra Alert Summary</h1>" +
		"<p>The following strategies exceeded the anomaly-rate threshold during the last check:</p><hr>" +
		strings.Join(alerts, "<hr>")

	if a.notifier != nil {
		subject := fmt.Sprintf("FPSpectra Alert Summary (%d Triggered)", len(alerts))
		if err := a.notifier.Send(subject, body); err != nil {
			log.Printf("ERROR: Failed to send consolidated alert notification: %v", err)
		} else {
			log.Printf("INFO: Consolidated alert notification sent successfully.")
		}
	}
}
