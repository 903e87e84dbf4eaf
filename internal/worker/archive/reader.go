package archive

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/results"
)

type Reader struct {
	file     *os.File
	filePath string
	header   SegmentHeader
	dict     []DictEntry
	dataBase int64
}

func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	magic := binary.LittleEndian.Uint32(headerBytes[0:4])
	if magic != MagicBytes {
		f.Close()
		return nil, fmt.Errorf("invalid segment file: bad magic bytes %x", magic)
	}
	header := SegmentHeader{
		Magic:       magic,
		Version:     binary.LittleEndian.Uint32(headerBytes[4:8]),
		JobCount:    binary.LittleEndian.Uint32(headerBytes[8:12]),
		RecordCount: binary.LittleEndian.Uint32(headerBytes[12:16]),
		DictOffset:  int64(binary.LittleEndian.Uint64(headerBytes[16:24])),
		DictSize:    int64(binary.LittleEndian.Uint64(headerBytes[24:32])),
		DataOffset:  int64(binary.LittleEndian.Uint64(headerBytes[32:40])),
		DataSize:    int64(binary.LittleEndian.Uint64(headerBytes[40:48])),
	}
	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	return &Reader{
		file:     f,
		filePath: path,
		header:   header,
		dict:     dict,
		dataBase: header.DataOffset,
	}, nil
}

// Lookup returns the records stored for the given job ID, or nil if the
// segment does not contain the job.
func (r *Reader) Lookup(jobID string) ([]results.Record, error) {
	idx := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].JobID >= jobID
	})
	if idx >= len(r.dict) || r.dict[idx].JobID != jobID {
		return nil, nil
	}
	entry := r.dict[idx]
	recordBytes := make([]byte, entry.DataLen)
	if _, err := r.file.ReadAt(recordBytes, r.dataBase+entry.DataOffset); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	var records []results.Record
	if err := json.Unmarshal(recordBytes, &records); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	return records, nil
}

func (r *Reader) Jobs() int {
	return len(r.dict)
}

func (r *Reader) RecordCount() uint32 {
	return r.header.RecordCount
}

func (r *Reader) Close() error {
	return r.file.Close()
}
