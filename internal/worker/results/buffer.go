package results

import (
	"sort"
	"sync"
)

// Buffer accumulates scored results in memory until the engine flushes them
// to an archive segment.
type Buffer struct {
	mu       sync.RWMutex
	byJob    map[string][]Record
	jobCount int
	size     int64
}

func NewBuffer() *Buffer {
	return &Buffer{
		byJob: make(map[string][]Record),
	}
}

// Add appends the records of one job. Records for a job already present are
// merged, which happens when a job is re-scored with additional metrics.
func (b *Buffer) Add(jobID string, records []Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byJob[jobID]; !exists {
		b.jobCount++
	}
	b.byJob[jobID] = append(b.byJob[jobID], records...)
	for _, rec := range records {
		b.size += int64(len(rec.JobID) + len(rec.Metric) + 64)
	}
}

// Get returns a copy of the records buffered for the given job, or nil.
func (b *Buffer) Get(jobID string) []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	records, exists := b.byJob[jobID]
	if !exists {
		return nil
	}
	result := make([]Record, len(records))
	copy(result, records)
	return result
}

// Drain atomically removes and returns all buffered jobs sorted by job ID,
// ready for archival. The map is swapped under the lock, so records added
// concurrently land in the next drain rather than being lost.
func (b *Buffer) Drain() []JobEntry {
	b.mu.Lock()
	byJob := b.byJob
	b.byJob = make(map[string][]Record)
	b.jobCount = 0
	b.size = 0
	b.mu.Unlock()

	entries := make([]JobEntry, 0, len(byJob))
	for jobID, records := range byJob {
		entries = append(entries, JobEntry{
			JobID:   jobID,
			Records: records,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].JobID < entries[j].JobID
	})
	return entries
}

func (b *Buffer) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

func (b *Buffer) JobCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jobCount
}

func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byJob = make(map[string][]Record)
	b.jobCount = 0
	b.size = 0
}
