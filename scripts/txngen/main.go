// txngen generates a synthetic labeled transaction stream in the JSONL
// format fps-eval consumes. Normal traffic is drawn from a handful of
// recurring flow profiles; anomalies are injected as scan-like bursts of
// rare feature combinations.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
)

type record struct {
	Items []string `json:"items"`
	Label int8     `json:"label"`
}

// profiles are the benign flow shapes the stream cycles through.
var profiles = [][]string{
	{"protocol=TCP", "dst_port=443", "src_port_bin_16", "length_bin_11"},
	{"protocol=TCP", "dst_port=80", "src_port_bin_16", "length_bin_10"},
	{"protocol=UDP", "dst_port=53", "src_port_bin_16", "length_bin_7"},
	{"protocol=TCP", "dst_port=22", "src_port_bin_15", "length_bin_9"},
}

func main() {
	outputFile := flag.String("o", "transactions.jsonl", "Output JSONL file path")
	count := flag.Int("c", 100000, "Number of transactions to generate")
	anomalyRate := flag.Float64("rate", 0.02, "Fraction of anomalous transactions")
	burstLen := flag.Int("burst", 20, "Length of each anomaly burst")
	seed := flag.Int64("seed", 1, "RNG seed")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	defer writer.Flush()
	encoder := json.NewEncoder(writer)

	rng := rand.New(rand.NewSource(*seed))
	log.Printf("Generating %d transactions into %s (anomaly rate %.1f%%)...",
		*count, *outputFile, *anomalyRate*100)

	anomalous := int(float64(*count) * *anomalyRate)
	bursts := anomalous / *burstLen
	burstStarts := make(map[int]bool, bursts)
	for len(burstStarts) < bursts {
		burstStarts[rng.Intn(*count - *burstLen)] = true
	}

	inBurst := 0
	written := 0
	for i := 0; i < *count; i++ {
		if burstStarts[i] {
			inBurst = *burstLen
		}

		var rec record
		if inBurst > 0 {
			inBurst--
			// Scan-like anomaly: ephemeral destination port, tiny payload.
			rec = record{
				Items: []string{
					"protocol=TCP",
					fmt.Sprintf("dst_port_bin_%d", 14+rng.Intn(3)),
					"src_port_bin_16",
					"length_bin_6",
				},
				Label: 1,
			}
		} else {
			rec = record{Items: profiles[rng.Intn(len(profiles))], Label: 0}
		}

		if err := encoder.Encode(&rec); err != nil {
			log.Fatalf("Failed to write transaction %d: %v", i, err)
		}
		written++
		if written%100000 == 0 {
			log.Printf("Generated %d transactions...", written)
		}
	}
	log.Printf("Done: %d transactions, %d anomaly bursts.", written, bursts)
}
