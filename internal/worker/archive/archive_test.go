package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/results"
)

func writeSegment(t *testing.T, dir string, entries []results.JobEntry) string {
	t.Helper()
	w := NewWriter(dir)
	name, err := w.Write(entries)
	if err != nil {
		t.Fatalf("writing segment: %v", err)
	}
	return filepath.Join(dir, name)
}

func sampleEntries(jobs int) []results.JobEntry {
	entries := make([]results.JobEntry, jobs)
	for i := range entries {
		jobID := fmt.Sprintf("job-%04d", i)
		entries[i] = results.JobEntry{
			JobID: jobID,
			Records: []results.Record{
				{JobID: jobID, Metric: "rouge-1:max", Precision: 0.8, Recall: 0.75, F1: 0.774, ScoredAt: 1700000000},
				{JobID: jobID, Metric: "rouge-2:max", Precision: 0.5, Recall: 0.4, F1: 0.444, ScoredAt: 1700000000},
			},
		}
	}
	return entries
}

func TestWriteAndLookup(t *testing.T) {
	dir := t.TempDir()
	path := writeSegment(t, dir, sampleEntries(100))

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("opening segment: %v", err)
	}
	defer r.Close()

	if r.Jobs() != 100 {
		t.Errorf("expected 100 jobs, got %d", r.Jobs())
	}
	if r.RecordCount() != 200 {
		t.Errorf("expected 200 records, got %d", r.RecordCount())
	}

	records, err := r.Lookup("job-0042")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Metric != "rouge-1:max" || records[0].Precision != 0.8 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Metric != "rouge-2:max" {
		t.Errorf("unexpected second record: %+v", records[1])
	}
}

func TestLookupMissingJob(t *testing.T) {
	dir := t.TempDir()
	path := writeSegment(t, dir, sampleEntries(10))

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("opening segment: %v", err)
	}
	defer r.Close()

	records, err := r.Lookup("job-9999")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if records != nil {
		t.Errorf("expected nil for missing job, got %v", records)
	}
}

func TestLookupBoundaryJobs(t *testing.T) {
	dir := t.TempDir()
	path := writeSegment(t, dir, sampleEntries(50))

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("opening segment: %v", err)
	}
	defer r.Close()

	for _, jobID := range []string{"job-0000", "job-0049"} {
		records, err := r.Lookup(jobID)
		if err != nil {
			t.Fatalf("lookup %s failed: %v", jobID, err)
		}
		if len(records) != 2 {
			t.Errorf("%s: expected 2 records, got %d", jobID, len(records))
		}
	}
}

func TestWriteEmptySegmentRejected(t *testing.T) {
	w := NewWriter(t.TempDir())
	if _, err := w.Write(nil); err == nil {
		t.Error("expected error for empty segment")
	}
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	name := writeSegment(t, dir, sampleEntries(5))

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("expected exactly 1 file, got %d", len(files))
	}
	if strings.HasSuffix(files[0].Name(), ".tmp") {
		t.Errorf("temp file left behind: %s", files[0].Name())
	}
	if filepath.Join(dir, files[0].Name()) != name {
		t.Errorf("unexpected file: %s", files[0].Name())
	}
}

func TestOpenReaderRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bogus.tepr")
	if err := os.WriteFile(path, make([]byte, 256), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenReader(path); err == nil {
		t.Error("expected error for bad magic bytes")
	}
}

func TestOpenReaderRejectsTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.tepr")
	if err := os.WriteFile(path, []byte{0x52, 0x50}, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenReader(path); err == nil {
		t.Error("expected error for truncated file")
	}
}

func TestSegmentSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := writeSegment(t, dir, sampleEntries(20))

	for i := 0; i < 3; i++ {
		r, err := OpenReader(path)
		if err != nil {
			t.Fatalf("reopen %d failed: %v", i, err)
		}
		records, err := r.Lookup("job-0010")
		if err != nil || len(records) != 2 {
			t.Errorf("reopen %d: lookup = %v, %v", i, records, err)
		}
		r.Close()
	}
}
