// query is a small CLI for inspecting stored evaluation metrics, either
// through the fps-api HTTP endpoints or directly against ClickHouse.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func main() {
	mode := flag.String("mode", "api", "Query mode: 'api' to query via HTTP API, 'direct' to query ClickHouse directly.")
	algorithm := flag.String("algorithm", "", "Algorithm to fetch history for (optional; summaries when empty).")
	apiAddr := flag.String("addr", "http://localhost:8080", "Base URL of the fps-api server.")
	chAddr := flag.String("clickhouse", "localhost:9000", "ClickHouse address for direct mode.")
	flag.Parse()

	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "api":
		queryViaAPI(*apiAddr, *algorithm)
	case "direct":
		directQueryClickHouse(*chAddr, *algorithm)
	default:
		log.Fatalf("Invalid mode: %s. Use 'api' or 'direct'.", *mode)
	}
}

func queryViaAPI(baseURL, algorithm string) {
	url := baseURL + "/api/v1/summaries"
	if algorithm != "" {
		url = baseURL + "/api/v1/history/" + algorithm
	}

	resp, err := http.Get(url)
	if err != nil {
		log.Fatalf("Error sending request to API: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned status %d: %s", resp.StatusCode, body)
	}

	var pretty any
	if err := json.Unmarshal(body, &pretty); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

func directQueryClickHouse(addr, algorithm string) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
	})
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
		SELECT Algorithm, COUNT(*), MAX(F1), MAX(PRAUC)
		FROM fp_eval_metrics
	`
	args := []any{}
	if algorithm != "" {
		query += " WHERE Algorithm = ?"
		args = append(args, algorithm)
	}
	query += " GROUP BY Algorithm ORDER BY Algorithm"

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	fmt.Printf("%-16s %8s %8s %8s\n", "ALGORITHM", "RUNS", "BEST F1", "PR-AUC")
	for rows.Next() {
		var (
			name      string
			runs      uint64
			f1, prauc float64
		)
		if err := rows.Scan(&name, &runs, &f1, &prauc); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		fmt.Printf("%-16s %8d %8.3f %8.3f\n", name, runs, f1, prauc)
	}
}
