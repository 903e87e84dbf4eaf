package worker

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
)

func testEngineConfig(t *testing.T) config.WorkerConfig {
	t.Helper()
	return config.WorkerConfig{
		DataDir:        t.TempDir(),
		SegmentMaxSize: 1 << 20,
		FlushInterval:  0,
		MaxNgramOrder:  9,
	}
}

func newTestEngine(t *testing.T, cfg config.WorkerConfig) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestScoreJobComputesAllMetrics(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t))

	records, err := engine.ScoreJob("job-1",
		"the cat sat on the mat",
		[]string{"the cat sat on the rug"},
		[]string{"rouge-1", "rouge-2"},
	)
	if err != nil {
		t.Fatalf("ScoreJob failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0].Metric != "rouge-1:max" {
		t.Errorf("expected rouge-1:max, got %q", records[0].Metric)
	}
	if want := 5.0 / 6.0; math.Abs(records[0].F1-want) > 1e-12 {
		t.Errorf("rouge-1 F1 = %v, want %v", records[0].F1, want)
	}
	if records[1].Metric != "rouge-2:max" {
		t.Errorf("expected rouge-2:max, got %q", records[1].Metric)
	}
	if want := 4.0 / 5.0; math.Abs(records[1].F1-want) > 1e-12 {
		t.Errorf("rouge-2 F1 = %v, want %v", records[1].F1, want)
	}
}

func TestScoreJobRejectsBadMetric(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t))

	_, err := engine.ScoreJob("job-1", "candidate", []string{"ref"}, []string{"bleu-4"})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestScoreJobEnforcesNgramOrderCap(t *testing.T) {
	cfg := testEngineConfig(t)
	cfg.MaxNgramOrder = 4
	engine := newTestEngine(t, cfg)

	_, err := engine.ScoreJob("job-1", "candidate text", []string{"ref text"}, []string{"rouge-5"})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for order above cap, got %v", err)
	}

	if _, err := engine.ScoreJob("job-2", "candidate text", []string{"ref text"}, []string{"rouge-4"}); err != nil {
		t.Errorf("order at cap must pass: %v", err)
	}
}

func TestScoreJobRejectsEmptyReferences(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t))

	_, err := engine.ScoreJob("job-1", "candidate", nil, []string{"rouge-1"})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLookupFromBuffer(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t))

	engine.ScoreJob("job-1", "a b c", []string{"a b d"}, []string{"rouge-1"})

	records, err := engine.Lookup("job-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(records) != 1 || records[0].Metric != "rouge-1:max" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestLookupAfterFlush(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t))

	engine.ScoreJob("job-1", "a b c", []string{"a b d"}, []string{"rouge-1", "rouge-2"})
	if err := engine.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	records, err := engine.Lookup("job-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records from segment, got %d", len(records))
	}
}

func TestLookupUnknownJob(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t))

	records, err := engine.Lookup("nope")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if records != nil {
		t.Errorf("expected nil for unknown job, got %v", records)
	}
}

func TestFlushEmptyBufferIsNoop(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t))

	if err := engine.Flush(); err != nil {
		t.Errorf("flushing empty buffer must succeed: %v", err)
	}
	_, _, segments, _ := engine.Stats()
	if segments != 0 {
		t.Errorf("expected no segments, got %d", segments)
	}
}

func TestAutoFlushOnBufferThreshold(t *testing.T) {
	cfg := testEngineConfig(t)
	cfg.SegmentMaxSize = 256
	engine := newTestEngine(t, cfg)

	for i := 0; i < 10; i++ {
		_, err := engine.ScoreJob(fmt.Sprintf("job-%d", i),
			"one two three four five", []string{"one two three four six"},
			[]string{"rouge-1", "rouge-2"},
		)
		if err != nil {
			t.Fatalf("ScoreJob %d failed: %v", i, err)
		}
	}

	_, _, segments, sizeBytes := engine.Stats()
	if segments == 0 {
		t.Error("expected at least one auto-flushed segment")
	}
	if sizeBytes == 0 {
		t.Error("expected non-zero segment bytes")
	}
}

func TestStatsCounters(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t))

	for i := 0; i < 5; i++ {
		engine.ScoreJob(fmt.Sprintf("job-%d", i), "a b", []string{"a c"}, []string{"rouge-1", "rouge-2", "rouge-3"})
	}

	jobs, records, _, _ := engine.Stats()
	if jobs != 5 {
		t.Errorf("expected 5 jobs, got %d", jobs)
	}
	if records != 15 {
		t.Errorf("expected 15 records, got %d", records)
	}
}

func TestEngineRecoversSegmentsOnRestart(t *testing.T) {
	cfg := testEngineConfig(t)

	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	engine.ScoreJob("job-1", "the cat sat", []string{"the cat ran"}, []string{"rouge-1"})
	engine.Close() // flushes the buffer

	reopened := newTestEngine(t, cfg)
	records, err := reopened.Lookup("job-1")
	if err != nil {
		t.Fatalf("Lookup after restart failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 recovered record, got %d", len(records))
	}
	_, _, segments, _ := reopened.Stats()
	if segments != 1 {
		t.Errorf("expected 1 recovered segment, got %d", segments)
	}
}

func TestReloadSegmentsPicksUpNewFiles(t *testing.T) {
	cfg := testEngineConfig(t)
	engine := newTestEngine(t, cfg)

	// A second engine on the same directory simulates another process
	// flushing a segment.
	other, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("creating second engine: %v", err)
	}
	other.ScoreJob("job-ext", "x y z", []string{"x y w"}, []string{"rouge-1"})
	if err := other.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	other.Close()

	if loaded := engine.ReloadSegments(); loaded != 1 {
		t.Errorf("expected 1 new segment, got %d", loaded)
	}
	// A second reload must be a no-op.
	if loaded := engine.ReloadSegments(); loaded != 0 {
		t.Errorf("expected 0 new segments on second reload, got %d", loaded)
	}

	records, err := engine.Lookup("job-ext")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record from reloaded segment, got %d", len(records))
	}
}
