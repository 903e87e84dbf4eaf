// Package archive persists scored results as immutable segment files. Each
// segment holds the JSON-encoded records of many jobs plus a sorted dictionary
// mapping job IDs to their record block, so lookups never scan the whole file.
package archive

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/results"
)

// MagicBytes identifies a valid .tepr segment file.
const (
	MagicBytes    uint32 = 0x54455052
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 32
)

// SegmentHeader is the 64-byte header written at the start of every segment.
type SegmentHeader struct {
	Magic       uint32
	Version     uint32
	JobCount    uint32
	RecordCount uint32
	CreatedAt   int64
	DictOffset  int64
	DictSize    int64
	DataOffset  int64
	DataSize    int64
}

// DictEntry maps a job ID to its record block offset, length, and record
// count in the segment file.
type DictEntry struct {
	JobID      string `json:"j"`
	DataOffset int64  `json:"o"`
	DataLen    int    `json:"l"`
	Records    int    `json:"r"`
}

// Writer serialises JobEntry slices into new .tepr segment files.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes segments into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write atomically creates a new segment file containing the given job
// entries. It writes to a .tmp file first and renames on success.
func (w *Writer) Write(entries []results.JobEntry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("cannot write empty segment")
	}
	segmentName := fmt.Sprintf("seg_%d.tepr", time.Now().UnixNano())
	finalPath := filepath.Join(w.dataDir, segmentName)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()
	header := SegmentHeader{
		Magic:     MagicBytes,
		Version:   FormatVersion,
		JobCount:  uint32(len(entries)),
		CreatedAt: time.Now().Unix(),
	}
	headerBytes := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(headerBytes[0:4], header.Magic)
	binary.LittleEndian.PutUint32(headerBytes[4:8], header.Version)
	binary.LittleEndian.PutUint32(headerBytes[8:12], header.JobCount)

	if _, err := f.Write(headerBytes); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}

	dataStart, _ := f.Seek(0, 1)
	dict := make([]DictEntry, 0, len(entries))
	recordCount := 0
	for _, entry := range entries {
		offset, _ := f.Seek(0, 1)
		relativeOffset := offset - dataStart
		recordData, err := json.Marshal(entry.Records)
		if err != nil {
			return "", fmt.Errorf("marshaling records for job %q: %w", entry.JobID, err)
		}
		if _, err := f.Write(recordData); err != nil {
			return "", fmt.Errorf("writing records for job %q: %w", entry.JobID, err)
		}
		dict = append(dict, DictEntry{
			JobID:      entry.JobID,
			DataOffset: relativeOffset,
			DataLen:    len(recordData),
			Records:    len(entry.Records),
		})
		recordCount += len(entry.Records)
	}

	dataEnd, _ := f.Seek(0, 1)
	dataSize := dataEnd - dataStart
	dictStart := dataEnd
	dictData, err := json.Marshal(dict)

	if err != nil {
		return "", fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := f.Write(dictData); err != nil {
		return "", fmt.Errorf("writing dictionary: %w", err)
	}
	dictEnd, _ := f.Seek(0, 1)
	dictSize := dictEnd - dictStart
	checksum := crc32.ChecksumIEEE(dictData)
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], checksum)
	binary.LittleEndian.PutUint32(footer[4:8], uint32(recordCount))
	binary.LittleEndian.PutUint64(footer[8:16], uint64(dictStart))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(dictSize))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(dataSize))
	if _, err := f.Write(footer); err != nil {
		return "", fmt.Errorf("writing footer: %w", err)
	}
	binary.LittleEndian.PutUint32(headerBytes[12:16], uint32(recordCount))
	binary.LittleEndian.PutUint64(headerBytes[16:24], uint64(dictStart))
	binary.LittleEndian.PutUint64(headerBytes[24:32], uint64(dictSize))
	binary.LittleEndian.PutUint64(headerBytes[32:40], uint64(dataStart))
	binary.LittleEndian.PutUint64(headerBytes[40:48], uint64(dataSize))
	if _, err := f.WriteAt(headerBytes, 0); err != nil {
		return "", fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing segment file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming segment file: %w", err)
	}
	return segmentName, nil
}
