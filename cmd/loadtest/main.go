package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/rpc"
)

type Config struct {
	BaseURL     string
	RPCAddr     string
	Concurrency int
	Duration    time.Duration
	Pairs       []scorePayload
}

type scorePayload struct {
	Candidate  string   `json:"candidate"`
	References []string `json:"references"`
	Metric     string   `json:"metric"`
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
	statusCodes   map[int]*atomic.Int64
	statusCodesMu sync.Mutex
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]*atomic.Int64),
	}
}

func (s *Stats) RecordRequest(duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)

	if err != nil {
		s.errorCount.Add(1)
		return
	}

	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}

	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()

	s.statusCodesMu.Lock()
	if _, ok := s.statusCodes[statusCode]; !ok {
		s.statusCodes[statusCode] = &atomic.Int64{}
	}
	s.statusCodes[statusCode].Add(1)
	s.statusCodesMu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the scorer service")
	rpcAddr := flag.String("rpc", "", "RPC address of the scorer service (uses RPC instead of HTTP when set)")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	flag.Parse()

	candidates := []string{
		"the cat sat on the mat",
		"a quick brown fox jumps over the lazy dog",
		"the committee approved the budget for next year",
		"rain is expected across the northern region tomorrow",
		"the model summarizes long documents into short abstracts",
		"stock prices fell sharply after the announcement",
		"the team released a new version of the software",
		"researchers published their findings in a peer reviewed journal",
	}
	references := [][]string{
		{"the cat sat on the rug", "a cat was sitting on the mat"},
		{"the quick brown fox jumped over a lazy dog"},
		{"the committee passed next year's budget", "the budget was approved by the committee"},
		{"heavy rain is forecast for the north tomorrow"},
		{"the system produces short abstracts from long documents"},
		{"share prices dropped steeply following the announcement"},
		{"a new software release was published by the team"},
		{"the findings appeared in a peer reviewed journal"},
	}
	metrics := []string{"rouge-1", "rouge-2", "rouge-1:avg", "rouge-3"}

	pairs := make([]scorePayload, 0, len(candidates)*len(metrics))
	for i, cand := range candidates {
		for _, metric := range metrics {
			pairs = append(pairs, scorePayload{
				Candidate:  cand,
				References: references[i],
				Metric:     metric,
			})
		}
	}

	cfg := Config{
		BaseURL:     *baseURL,
		RPCAddr:     *rpcAddr,
		Concurrency: *concurrency,
		Duration:    *duration,
		Pairs:       pairs,
	}

	fmt.Println("=== Text Evaluation Platform Load Test ===")
	if cfg.RPCAddr != "" {
		fmt.Printf("Target:      %s (rpc)\n", cfg.RPCAddr)
	} else {
		fmt.Printf("Target:      %s\n", cfg.BaseURL)
	}
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Payloads:    %d unique\n", len(cfg.Pairs))
	fmt.Println()

	stats := runLoadTest(cfg)
	printReport(stats, cfg.Duration)
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")

	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			if cfg.RPCAddr != "" {
				runRPCWorker(ctx, cfg, workerID, stats)
			} else {
				runHTTPWorker(ctx, cfg, workerID, stats)
			}
		}(w)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func runHTTPWorker(ctx context.Context, cfg Config, workerID int, stats *Stats) {
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	scoreURL := cfg.BaseURL + "/api/v1/score"
	payloadIdx := workerID

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload := cfg.Pairs[payloadIdx%len(cfg.Pairs)]
		payloadIdx++

		body, err := json.Marshal(payload)
		if err != nil {
			panic(fmt.Sprintf("marshaling payload: %v", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, scoreURL, bytes.NewReader(body))
		if err != nil {
			panic(fmt.Sprintf("creating request: %v", err))
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := client.Do(req)
		duration := time.Since(start)

		if err != nil {
			stats.RecordRequest(duration, 0, err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		stats.RecordRequest(duration, resp.StatusCode, nil)
	}
}

func runRPCWorker(ctx context.Context, cfg Config, workerID int, stats *Stats) {
	client, err := rpc.Dial(cfg.RPCAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nworker %d: rpc dial failed: %v\n", workerID, err)
		return
	}
	defer client.Close()

	payloadIdx := workerID
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload := cfg.Pairs[payloadIdx%len(cfg.Pairs)]
		payloadIdx++

		req := proto.ScoreRequest{
			Candidate:  payload.Candidate,
			References: payload.References,
			Metric:     payload.Metric,
		}
		var resp proto.ScoreResponse

		start := time.Now()
		err := client.Call("ScoreService.Score", req, &resp)
		duration := time.Since(start)

		if err != nil {
			stats.RecordRequest(duration, 0, err)
			// The connection may be poisoned after an I/O error.
			client.Close()
			client, err = rpc.Dial(cfg.RPCAddr)
			if err != nil {
				return
			}
			continue
		}
		stats.RecordRequest(duration, http.StatusOK, nil)
	}
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	errors := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", success)
	fmt.Printf("Errors:          %d\n", errors)

	if total > 0 {
		errorRate := float64(errors) / float64(total) * 100
		fmt.Printf("Error Rate:      %.2f%%\n", errorRate)
		rps := float64(total) / duration.Seconds()
		fmt.Printf("Requests/sec:    %.2f\n", rps)
	}

	stats.latenciesMu.Lock()
	latencies := make([]time.Duration, len(stats.latencies))
	copy(latencies, stats.latencies)
	stats.latenciesMu.Unlock()

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})

		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P90:    %s\n", percentile(latencies, 90))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])

		var sumSquared float64
		avgFloat := float64(avg)
		for _, l := range latencies {
			diff := float64(l) - avgFloat
			sumSquared += diff * diff
		}
		stddev := time.Duration(math.Sqrt(sumSquared / float64(len(latencies))))
		fmt.Printf("StdDev: %s\n", stddev)
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	stats.statusCodesMu.Lock()
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		count := stats.statusCodes[code].Load()
		fmt.Printf("  %d: %d\n", code, count)
	}
	stats.statusCodesMu.Unlock()

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
