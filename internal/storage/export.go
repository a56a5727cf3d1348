package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// ExportParquet writes sessions to a Parquet file for analysis elsewhere.
func ExportParquet(path string, sessions []Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Session](file)
	if _, err := writer.Write(sessions); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}

	slog.Info("Sessions exported", "path", path, "sessions", len(sessions))
	return nil
}

// ReadParquet loads sessions written by ExportParquet.
func ReadParquet(path string) ([]Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Session](pf)
	defer reader.Close()

	var sessions []Session
	rows := make([]Session, 128)
	for {
		n, err := reader.Read(rows)
		sessions = append(sessions, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sessions: %w", err)
		}
	}
	return sessions, nil
}
