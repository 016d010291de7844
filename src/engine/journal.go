package engine

// The journal records every command that changed the store, one JSON line
// per command, in a file per day.

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// JournalEntry represents a single entry in the journal.
type JournalEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Command    string    `json:"command"`
	Collection string    `json:"collection"`
	Details    string    `json:"details"`
}

// Journal appends entries to <base>_<YYYY-MM-DD>.journal.
type Journal struct {
	mu           sync.Mutex
	file         *os.File
	baseFilePath string
	currentDate  time.Time
	now          func() time.Time
}

var datePattern = regexp.MustCompile(`_\d{4}-\d{2}-\d{2}$`)

// NewJournal opens today's journal file under the base path journalFilePath.
func NewJournal(journalFilePath string) (*Journal, error) {
	journal := &Journal{
		baseFilePath: getBaseFilePath(journalFilePath),
		now:          time.Now,
	}

	if err := journal.ensureCorrectFileOpen(); err != nil {
		return nil, err
	}
	return journal, nil
}

// getBaseFilePath strips the extension and any date suffix.
func getBaseFilePath(journalFilePath string) string {
	dir := filepath.Dir(journalFilePath)
	base := filepath.Base(journalFilePath)

	baseName := strings.TrimSuffix(base, filepath.Ext(base))
	baseName = datePattern.ReplaceAllString(baseName, "")

	return filepath.Join(dir, baseName)
}

func (j *Journal) fileName(day time.Time) string {
	return fmt.Sprintf("%s_%s.journal", j.baseFilePath, day.Format("2006-01-02"))
}

// ensureCorrectFileOpen rolls over to a new file when the day changes.
func (j *Journal) ensureCorrectFileOpen() error {
	today := j.now().Truncate(24 * time.Hour)
	if j.file != nil && j.currentDate.Equal(today) {
		return nil
	}

	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return fmt.Errorf("failed to close previous journal file: %w", err)
		}
		j.file = nil
	}

	fileName := j.fileName(today)
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file %s: %w", fileName, err)
	}

	j.file = file
	j.currentDate = today
	return nil
}

// AddEntry writes one entry to the journal.
func (j *Journal) AddEntry(command, collection, details string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.ensureCorrectFileOpen(); err != nil {
		return err
	}

	entry := JournalEntry{
		Timestamp:  j.now(),
		Command:    command,
		Collection: collection,
		Details:    details,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}
	if _, err := j.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write to journal file: %w", err)
	}
	return nil
}

// Path is the file currently being written.
func (j *Journal) Path() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileName(j.currentDate)
}

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return fmt.Errorf("failed to close journal file: %w", err)
		}
		j.file = nil
	}
	return nil
}
