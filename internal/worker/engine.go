// Package worker computes ROUGE scores for evaluation jobs consumed from the
// job stream and archives the results in immutable on-disk segments.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/rouge"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/parser"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/archive"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/results"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
)

type Engine struct {
	buffer       *results.Buffer
	writer       *archive.Writer
	readers      []*archive.Reader
	readerMu     sync.RWMutex
	loadedSegs   map[string]bool
	cfg          config.WorkerConfig
	logger       *slog.Logger
	statsMu      sync.RWMutex
	totalJobs    int64
	totalRecords int64
	segmentBytes int64
}

func NewEngine(cfg config.WorkerConfig) (*Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating result data directory: %w", err)
	}
	e := &Engine{
		buffer:     results.NewBuffer(),
		writer:     archive.NewWriter(cfg.DataDir),
		loadedSegs: make(map[string]bool),
		cfg:        cfg,
		logger:     slog.Default().With("component", "worker"),
	}
	if err := e.loadExistingSegments(); err != nil {
		return nil, fmt.Errorf("loading existing segments: %w", err)
	}
	return e, nil
}

// ScoreJob computes every requested metric for the job and buffers the
// records. It returns the computed records so callers can persist them
// elsewhere. Metric specs beyond the configured n-gram order cap are
// rejected.
func (e *Engine) ScoreJob(jobID string, candidate string, references []string, metricSpecs []string) ([]results.Record, error) {
	records := make([]results.Record, 0, len(metricSpecs))
	for _, specStr := range metricSpecs {
		spec, err := parser.Parse(specStr)
		if err != nil {
			return nil, fmt.Errorf("parsing metric %q for job %s: %w", specStr, jobID, err)
		}
		if e.cfg.MaxNgramOrder > 0 && spec.N > e.cfg.MaxNgramOrder {
			return nil, apperrors.Newf(apperrors.ErrInvalidArgument, 400,
				"n-gram order %d exceeds maximum %d", spec.N, e.cfg.MaxNgramOrder)
		}
		score, err := rouge.RougeN(candidate, references, spec.N, spec.Aggregation)
		if err != nil {
			return nil, fmt.Errorf("scoring %s for job %s: %w", spec.Canonical(), jobID, err)
		}
		records = append(records, results.Record{
			JobID:     jobID,
			Metric:    spec.Canonical(),
			Precision: score.Precision,
			Recall:    score.Recall,
			F1:        score.F1,
			ScoredAt:  time.Now().Unix(),
		})
	}

	e.buffer.Add(jobID, records)
	e.statsMu.Lock()
	e.totalJobs++
	e.totalRecords += int64(len(records))
	e.statsMu.Unlock()

	e.logger.Debug("job scored in memory",
		"job_id", jobID,
		"metric_count", len(records),
		"buffer_size", e.buffer.Size(),
	)
	if e.buffer.Size() >= e.cfg.SegmentMaxSize {
		e.logger.Info("result buffer reached max size, flushing to disk",
			"size", e.buffer.Size(),
			"threshold", e.cfg.SegmentMaxSize,
		)
		if err := e.Flush(); err != nil {
			return nil, fmt.Errorf("flushing result buffer: %w", err)
		}
	}
	return records, nil
}

func (e *Engine) Flush() error {
	entries := e.buffer.Drain()
	if len(entries) == 0 {
		return nil
	}
	segmentName, err := e.writer.Write(entries)
	if err != nil {
		// Put the drained records back so the next flush retries them.
		for _, entry := range entries {
			e.buffer.Add(entry.JobID, entry.Records)
		}
		return fmt.Errorf("writing segment: %w", err)
	}

	segPath := filepath.Join(e.cfg.DataDir, segmentName)
	reader, err := archive.OpenReader(segPath)
	if err != nil {
		return fmt.Errorf("opening new segment for reading: %w", err)
	}
	e.readerMu.Lock()
	e.readers = append(e.readers, reader)
	e.loadedSegs[segmentName] = true
	e.readerMu.Unlock()

	if info, err := os.Stat(segPath); err == nil {
		e.statsMu.Lock()
		e.segmentBytes += info.Size()
		e.statsMu.Unlock()
	}
	e.logger.Info("segment flushed",
		"segment", segmentName,
		"jobs", reader.Jobs(),
		"records", reader.RecordCount(),
		"active_segments", len(e.readers),
	)
	return nil
}

// Lookup returns the records of a job from the in-memory buffer or any
// archived segment. A nil slice means the job has no results yet.
func (e *Engine) Lookup(jobID string) ([]results.Record, error) {
	if records := e.buffer.Get(jobID); records != nil {
		return records, nil
	}
	e.readerMu.RLock()
	readers := make([]*archive.Reader, len(e.readers))
	copy(readers, e.readers)
	e.readerMu.RUnlock()

	var all []results.Record
	for _, reader := range readers {
		records, err := reader.Lookup(jobID)
		if err != nil {
			e.logger.Error("segment lookup failed",
				"error", err,
			)
			continue
		}
		all = append(all, records...)
	}
	return all, nil
}

// Stats returns cumulative counters for this engine.
func (e *Engine) Stats() (jobs int64, recordCount int64, segments int, sizeBytes int64) {
	e.statsMu.RLock()
	jobs = e.totalJobs
	recordCount = e.totalRecords
	sizeBytes = e.segmentBytes
	e.statsMu.RUnlock()
	e.readerMu.RLock()
	segments = len(e.readers)
	e.readerMu.RUnlock()
	return jobs, recordCount, segments, sizeBytes
}

func (e *Engine) StartFlushLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.FlushInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.logger.Info("flush loop stopping, performing final flush")
				if err := e.Flush(); err != nil {
					e.logger.Error("final flush failed", "error", err)
				}
				return
			case <-ticker.C:
				if e.buffer.JobCount() > 0 {
					if err := e.Flush(); err != nil {
						e.logger.Error("periodic flush failed", "error", err)
					}
				}
			}
		}
	}()
}

// ReloadSegments scans the data directory for segments flushed by other
// processes and opens any that are not yet loaded. It returns the number of
// new segments opened.
func (e *Engine) ReloadSegments() int {
	entries, err := os.ReadDir(e.cfg.DataDir)
	if err != nil {
		e.logger.Error("reading data directory", "error", err)
		return 0
	}
	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".tepr") {
			continue
		}
		e.readerMu.RLock()
		seen := e.loadedSegs[name]
		e.readerMu.RUnlock()
		if seen {
			continue
		}
		reader, err := archive.OpenReader(filepath.Join(e.cfg.DataDir, name))
		if err != nil {
			e.logger.Error("failed to open segment, skipping",
				"segment", name,
				"error", err,
			)
			continue
		}
		e.readerMu.Lock()
		e.readers = append(e.readers, reader)
		e.loadedSegs[name] = true
		e.readerMu.Unlock()
		loaded++
	}
	return loaded
}

func (e *Engine) Close() error {
	if err := e.Flush(); err != nil {
		e.logger.Error("final flush on close failed", "error", err)
	}
	e.readerMu.Lock()
	defer e.readerMu.Unlock()
	for _, reader := range e.readers {
		if err := reader.Close(); err != nil {
			e.logger.Error("closing segment reader", "error", err)
		}
	}
	e.readers = nil
	return nil
}

func (e *Engine) loadExistingSegments() error {
	entries, err := os.ReadDir(e.cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading data directory: %w", err)
	}
	segFiles := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tepr") {
			segFiles = append(segFiles, entry.Name())
		}
	}
	sort.Strings(segFiles)

	for _, name := range segFiles {
		path := filepath.Join(e.cfg.DataDir, name)
		reader, err := archive.OpenReader(path)
		if err != nil {
			e.logger.Error("failed to open segment, skipping",
				"segment", name,
				"error", err,
			)
			continue
		}
		e.readers = append(e.readers, reader)
		e.loadedSegs[name] = true
		if info, err := os.Stat(path); err == nil {
			e.segmentBytes += info.Size()
		}
		e.logger.Info("loaded existing segment",
			"segment", name,
			"jobs", reader.Jobs(),
			"records", reader.RecordCount(),
		)
	}
	e.logger.Info("segment recovery complete", "segments_loaded", len(e.readers))
	return nil
}
