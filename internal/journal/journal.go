// Package journal persists hashed documents in an append-only log so a classifier trainer can replay them.
package journal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wordhash/internal/hasher"
)

const journalFilename = "journal.log"

// Record is one hashed document.
type Record struct {
	ID       string              `json:"id"`
	Language string              `json:"language"`
	Stemming bool                `json:"stemming"`
	Clean    bool                `json:"clean,omitempty"`
	Tokens   hasher.FrequencyMap `json:"tokens"`
	HashedAt time.Time           `json:"hashedAt"`
}

// Journal appends length-prefixed JSON records to a single file.
type Journal struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// Open creates dir if needed and opens the journal for appends.
// It returns the journal and its current size (next offset).
func Open(dir string) (*Journal, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, 0, fmt.Errorf("create journal directory: %w", err)
	}

	path := filepath.Join(dir, journalFilename)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, 0, fmt.Errorf("open journal: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmt.Errorf("stat journal: %w", err)
	}

	return &Journal{path: path, file: file}, info.Size(), nil
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Append writes records in order and fsyncs once. It returns the offset just past the last record.
func (j *Journal) Append(records ...Record) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	offset, err := j.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek journal end: %w", err)
	}

	writer := bufio.NewWriter(j.file)
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return 0, fmt.Errorf("marshal journal record: %w", err)
		}
		if err := binary.Write(writer, binary.LittleEndian, uint32(len(data))); err != nil {
			return 0, fmt.Errorf("write journal length: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			return 0, fmt.Errorf("write journal body: %w", err)
		}
		offset += int64(frameHeaderBytes + len(data))
	}

	if err := writer.Flush(); err != nil {
		return 0, fmt.Errorf("flush journal: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return 0, fmt.Errorf("fsync journal: %w", err)
	}

	return offset, nil
}

// ErrCorrupt is wrapped by Scan when a complete frame does not hold a decodable record.
var ErrCorrupt = errors.New("corrupt journal record")

const frameHeaderBytes = 4

// Scan streams the records that start at or after from to fn, in append order, along with each record's offset.
// It returns the offset just past the last complete record. A frame cut short at the end of the file is a torn
// write and ends the scan without error. An error from fn stops the scan and is returned unchanged.
// Records appended while scanning are not visited.
func (j *Journal) Scan(from int64, fn func(offset int64, record Record) error) (int64, error) {
	j.mu.Lock()
	info, err := j.file.Stat()
	j.mu.Unlock()
	if err != nil {
		return from, fmt.Errorf("stat journal: %w", err)
	}

	size := info.Size()
	if from < 0 || from > size {
		return from, fmt.Errorf("offset %d outside journal of %d bytes", from, size)
	}

	reader := bufio.NewReader(io.NewSectionReader(j.file, from, size-from))
	var header [frameHeaderBytes]byte
	offset := from
	for {
		if _, err := io.ReadFull(reader, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read journal header at %d: %w", offset, err)
		}

		length := int64(binary.LittleEndian.Uint32(header[:]))
		if remaining := size - offset - frameHeaderBytes; length > remaining {
			return offset, nil
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return offset, fmt.Errorf("read journal payload at %d: %w", offset, err)
		}

		var record Record
		if err := json.Unmarshal(payload, &record); err != nil {
			return offset, fmt.Errorf("%w at offset %d: %v", ErrCorrupt, offset, err)
		}
		if err := fn(offset, record); err != nil {
			return offset, err
		}
		offset += frameHeaderBytes + length
	}
}

// Replay collects every record from fromOffset onwards. See Scan for torn-tail and corruption handling.
func (j *Journal) Replay(fromOffset int64) ([]Record, int64, error) {
	var records []Record
	next, err := j.Scan(fromOffset, func(_ int64, record Record) error {
		records = append(records, record)
		return nil
	})
	return records, next, err
}

// Close closes the underlying file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
