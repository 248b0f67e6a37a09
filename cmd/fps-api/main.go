package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"FPSpectra/internal/config"
	"FPSpectra/internal/query"

	"github.com/gorilla/mux"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Find the first enabled ClickHouse writer config.
	var chCfg *config.ClickHouseConfig
	for _, writerDef := range cfg.Writers {
		if writerDef.Enabled && writerDef.Type == "clickhouse" {
			chCfg = &writerDef.ClickHouse
			break
		}
	}
	if chCfg == nil {
		log.Fatalf("No enabled ClickHouse writer found in config. API server cannot start.")
	}

	querier, err := query.NewClickHouseQuerier(*chCfg)
	if err != nil {
		log.Fatalf("Failed to create querier: %v", err)
	}

	r := mux.NewRouter()
	apiHandler := &APIHandler{querier: querier}
	r.HandleFunc("/api/v1/summaries", apiHandler.summariesHandler).Methods("GET")
	r.HandleFunc("/api/v1/history/{algorithm}", apiHandler.historyHandler).Methods("GET")

	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	querier query.Querier
}

// summariesHandler returns the per-algorithm aggregate view. An optional
// ?since=RFC3339 parameter restricts the time range.
func (h *APIHandler) summariesHandler(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid 'since' parameter: %v", err), http.StatusBadRequest)
			return
		}
		since = parsed
	}

	summaries, err := h.querier.Summaries(r.Context(), since)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query summaries: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, summaries)
}

// historyHandler returns the most recent runs of one algorithm.
func (h *APIHandler) historyHandler(w http.ResponseWriter, r *http.Request) {
	algorithm := mux.Vars(r)["algorithm"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid 'limit' parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	rows, err := h.querier.History(r.Context(), algorithm, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query history: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
