package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playreply/pkg/models"
)

// DefaultLogPath is the reply history location relative to the working
// directory when the config does not name one.
const DefaultLogPath = "reply_history.jsonl"

// FileLog persists history entries as JSON lines, one entry per line.
// Appends reopen the file so concurrent processes at least never tear a
// line; ordering across processes follows the OS append semantics.
type FileLog struct {
	path string
}

// NewFileLog builds a file-backed log at path, creating parent
// directories as needed.
func NewFileLog(path string) (*FileLog, error) {
	if path == "" {
		path = DefaultLogPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	return &FileLog{path: path}, nil
}

// Append writes one entry as a JSON line.
func (f *FileLog) Append(ctx context.Context, entry models.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return file.Sync()
}

// Load reads all entries in append order. A missing file is an empty
// history, not an error. Malformed lines are skipped so one bad write
// does not wedge every future run.
func (f *FileLog) Load(ctx context.Context) ([]models.HistoryEntry, error) {
	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history log: %w", err)
	}
	defer file.Close()

	var entries []models.HistoryEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry models.HistoryEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history log: %w", err)
	}
	return entries, nil
}
