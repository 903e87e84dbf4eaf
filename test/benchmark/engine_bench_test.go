package benchmark

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/config"
)

func benchEngineConfig(b *testing.B) config.WorkerConfig {
	return config.WorkerConfig{
		DataDir:        b.TempDir(),
		SegmentMaxSize: 100 * 1024 * 1024,
		FlushInterval:  0,
		MaxNgramOrder:  9,
	}
}

// BenchmarkEngineScoreJob measures full engine scoring throughput at various
// pre-loaded buffer sizes.
func BenchmarkEngineScoreJob(b *testing.B) {
	metrics := []string{"rouge-1", "rouge-2"}
	references := []string{"the cat sat on the rug", "a cat was sitting on the mat"}

	sizes := []int{100, 1000, 5000}
	for _, preload := range sizes {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
			engine, err := worker.NewEngine(benchEngineConfig(b))
			if err != nil {
				b.Fatal(err)
			}
			defer engine.Close()

			for i := 0; i < preload; i++ {
				jobID := fmt.Sprintf("preload-%d", i)
				engine.ScoreJob(jobID, "the cat sat on the mat", references, metrics)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				jobID := fmt.Sprintf("bench-%d", i)
				if _, err := engine.ScoreJob(jobID, "the cat sat on the mat", references, metrics); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkEngineLookup measures result retrieval latency across buffered and
// archived jobs.
func BenchmarkEngineLookup(b *testing.B) {
	engine, err := worker.NewEngine(benchEngineConfig(b))
	if err != nil {
		b.Fatal(err)
	}
	defer engine.Close()

	metrics := []string{"rouge-1", "rouge-2"}
	references := []string{"the committee passed next year's budget"}
	jobIDs := make([]string, 10000)
	for i := range jobIDs {
		jobIDs[i] = fmt.Sprintf("job-%d", i)
		engine.ScoreJob(jobIDs[i], "the committee approved the budget for next year", references, metrics)
	}
	// Half the jobs end up in an on-disk segment, half stay buffered.
	if err := engine.Flush(); err != nil {
		b.Fatal(err)
	}
	for i := range jobIDs[:5000] {
		engine.ScoreJob(jobIDs[i], "the committee approved the budget for next year", references, metrics)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		records, err := engine.Lookup(jobIDs[i%len(jobIDs)])
		if err != nil {
			b.Fatal(err)
		}
		_ = records
	}
}

// BenchmarkEngineFlush measures the cost of writing an archive segment from a
// populated buffer.
func BenchmarkEngineFlush(b *testing.B) {
	metrics := []string{"rouge-1"}
	references := []string{"share prices dropped steeply following the announcement"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		engine, err := worker.NewEngine(benchEngineConfig(b))
		if err != nil {
			b.Fatal(err)
		}
		for j := 0; j < 2000; j++ {
			engine.ScoreJob(fmt.Sprintf("job-%d", j), "stock prices fell sharply after the announcement", references, metrics)
		}
		b.StartTimer()

		if err := engine.Flush(); err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		engine.Close()
		b.StartTimer()
	}
}
