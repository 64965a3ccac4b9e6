// Package journal provides a durable line-delimited JSON fallback log for
// samples the event store could not accept. It is append-only between
// truncations; a partial trailing line left by a crash is discarded on open.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

const fileName = "journal.jsonl"

type entry struct {
	ID     ports.JournalEntryID `json:"id"`
	Sample domain.Sample        `json:"sample"`
}

// FileJournal implements ports.Journal on a single JSONL file.
type FileJournal struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	writer    *bufio.Writer
	nextID    ports.JournalEntryID
	entries   int
	sizeBytes int64
}

// Open creates dir if needed and recovers the journal state from disk.
func Open(dir string) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	j := &FileJournal{path: path, file: f}
	if err := j.bootstrap(); err != nil {
		f.Close()
		return nil, err
	}
	j.writer = bufio.NewWriter(f)
	return j, nil
}

// bootstrap scans existing entries, truncating anything after the last
// complete line.
func (j *FileJournal) bootstrap() error {
	scanner := bufio.NewScanner(j.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var goodBytes int64
	for scanner.Scan() {
		line := scanner.Bytes()
		var e entry
		if err := json.Unmarshal(line, &e); err != nil {
			break
		}
		goodBytes += int64(len(line)) + 1
		j.entries++
		if e.ID > j.nextID {
			j.nextID = e.ID
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("journal scan: %w", err)
	}

	if err := j.file.Truncate(goodBytes); err != nil {
		return err
	}
	if _, err := j.file.Seek(goodBytes, io.SeekStart); err != nil {
		return err
	}
	j.sizeBytes = goodBytes
	return nil
}

// Append durably records one sample and returns its entry id.
func (j *FileJournal) Append(s domain.Sample) (ports.JournalEntryID, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.nextID++
	e := entry{ID: j.nextID, Sample: s}
	line, err := json.Marshal(e)
	if err != nil {
		j.nextID--
		return 0, fmt.Errorf("journal encode: %w", err)
	}
	line = append(line, '\n')

	if _, err := j.writer.Write(line); err != nil {
		return 0, err
	}
	if err := j.writer.Flush(); err != nil {
		return 0, err
	}
	if err := j.file.Sync(); err != nil {
		return 0, err
	}
	j.entries++
	j.sizeBytes += int64(len(line))
	return e.ID, nil
}

// Replay streams every entry in append order.
func (j *FileJournal) Replay(fn func(id ports.JournalEntryID, s domain.Sample) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rf, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer rf.Close()

	scanner := bufio.NewScanner(rf)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			// Tail damage past the bootstrap point; stop at the last good entry.
			break
		}
		if err := fn(e.ID, e.Sample); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Truncate discards all entries. Entry ids keep increasing across
// truncations within one process lifetime.
func (j *FileJournal) Truncate() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.file.Truncate(0); err != nil {
		return err
	}
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	j.writer.Reset(j.file)
	j.entries = 0
	j.sizeBytes = 0
	return nil
}

// Stats reports the journal's current extent.
func (j *FileJournal) Stats() ports.JournalStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return ports.JournalStats{Entries: j.entries, SizeBytes: j.sizeBytes}
}

// Close flushes and closes the underlying file.
func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writer.Flush(); err != nil {
		j.file.Close()
		return err
	}
	return j.file.Close()
}

var _ ports.Journal = (*FileJournal)(nil)
