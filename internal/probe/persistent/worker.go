// Package persistent journals the live transaction stream to JSONL files
// so an offline evaluation run can later replay exactly what the engine
// saw.
package persistent

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"FPSpectra/internal/config"
	"FPSpectra/internal/model"
)

type journalLine struct {
	Seq   uint64   `json:"seq"`
	Items []string `json:"items"`
	Label int8     `json:"label"`
}

// Worker appends transactions to a timestamped JSONL journal file from a
// buffered channel. A single writer goroutine keeps lines in arrival
// order.
type Worker struct {
	txnChan  chan *model.Transaction
	stopChan chan struct{}
	wg       sync.WaitGroup
	dict     *model.Dict
}

// NewWorker creates and starts a journal worker. The dictionary
// translates item ids back to strings for the journal lines.
func NewWorker(cfg config.JournalConfig, dict *model.Dict) (*Worker, error) {
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	bufferSize := cfg.ChannelBufferSize
	if bufferSize <= 0 {
		bufferSize = 10000
	}

	w := &Worker{
		txnChan:  make(chan *model.Transaction, bufferSize),
		stopChan: make(chan struct{}),
		dict:     dict,
	}

	fileName := fmt.Sprintf("%s.jsonl", time.Now().Format("2006-01-02_15-04-05"))
	file, err := os.OpenFile(filepath.Join(cfg.Path, fileName), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal file: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(file)
	}()

	go func() {
		<-w.stopChan
		close(w.txnChan)
		w.wg.Wait()
		if err := file.Close(); err != nil {
			log.Printf("JournalWorker: Error closing file: %v", err)
		}
		log.Println("Journal worker stopped and file closed.")
	}()

	log.Printf("Journal worker started, writing to: %s", file.Name())
	return w, nil
}

func (w *Worker) run(file *os.File) {
	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for txn := range w.txnChan {
		line := journalLine{
			Seq:   txn.Seq,
			Items: make([]string, len(txn.Items)),
			Label: txn.Label,
		}
		for i, it := range txn.Items {
			line.Items[i] = w.dict.Name(it)
		}
		if err := encoder.Encode(&line); err != nil {
			log.Printf("JournalWorker: Error writing transaction: %v", err)
		}
	}
	writer.Flush()
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

// Enqueue hands a transaction to the journal. Drops when the channel is
// full rather than blocking the capture path.
func (w *Worker) Enqueue(txn *model.Transaction) {
	select {
	case w.txnChan <- txn:
	default:
		log.Println("JournalWorker: Channel is full, dropping transaction.")
	}
}
