package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DateLayout is the timestamp format of session log lines
const DateLayout = "2006-01-02 15:04"

// Session tallies the decisions made since the program started
type Session struct {
	Date    string `json:"date" yaml:"date" parquet:"date"`
	Kept    int    `json:"kept" yaml:"kept" parquet:"kept"`
	Deleted int    `json:"deleted" yaml:"deleted" parquet:"deleted"`
}

// SessionLog is the running tally of the current session
type SessionLog struct {
	session Session
	mu      sync.RWMutex
}

func New() *SessionLog {
	return &SessionLog{
		session: Session{Date: time.Now().Format(DateLayout)},
	}
}

// Update adds the deltas to the tally. Counts never go below zero.
func (s *SessionLog) Update(dk, dd int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Kept = max(0, s.session.Kept+dk)
	s.session.Deleted = max(0, s.session.Deleted+dd)
}

func (s *SessionLog) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Append writes the tally as "date;kept;deleted" to the log file at path.
// Sessions with no decisions are not written.
func (s *SessionLog) Append(path string) error {
	session := s.Get()
	if session.Kept == 0 && session.Deleted == 0 {
		slog.Debug("Empty session, not logging")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open session log: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "%s;%d;%d\n", session.Date, session.Kept, session.Deleted); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}
	slog.Info("Session logged", "kept", session.Kept, "deleted", session.Deleted)
	return nil
}

// ReadHistory returns the sessions recorded at path, oldest first. A missing
// file is an empty history.
func ReadHistory(path string) ([]Session, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}
	defer file.Close()

	var sessions []Session
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Split(strings.TrimSpace(scanner.Text()), ";")
		if len(parts) != 3 {
			continue
		}
		kept, err1 := strconv.Atoi(parts[1])
		deleted, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			slog.Warn("Skipping malformed session log line", "line", scanner.Text())
			continue
		}
		sessions = append(sessions, Session{Date: parts[0], Kept: kept, Deleted: deleted})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session log: %w", err)
	}
	return sessions, nil
}
