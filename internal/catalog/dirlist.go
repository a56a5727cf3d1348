// Package catalog keeps the population of image directories: which
// directories under the main path hold files, how many, and which ones the
// user blacklisted.
package catalog

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

	"github.com/lehigh-university-libraries/culler/internal/images"
	"github.com/lehigh-university-libraries/culler/internal/rules"
)

// Entry is one directory and the number of files directly inside it
type Entry struct {
	Dir   string
	Count int
}

// Scan walks root and counts the files (symlinks to files included) of every
// directory not matched by
// the blacklist.
func Scan(root string, blacklist []string) ([]Entry, error) {
	pattern := rules.BlacklistPattern(blacklist)

	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if pattern != nil && pattern.MatchString(path) {
			slog.Debug("Skipping blacklisted directory", "dir", path)
			return fs.SkipDir
		}

		children, err := os.ReadDir(path)
		if err != nil {
			slog.Warn("Failed to read directory", "dir", path, "error", err)
			return nil
		}
		count := 0
		for _, child := range children {
			if images.IsFile(path, child) {
				count++
			}
		}
		entries = append(entries, Entry{Dir: path, Count: count})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return entries, nil
}

// WriteDirList stores entries as one "dir|count" line each.
func WriteDirList(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dir list directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dir list: %w", err)
	}

	w := bufio.NewWriter(file)
	for _, e := range entries {
		fmt.Fprintf(w, "%s|%d\n", e.Dir, e.Count)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write dir list: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close dir list: %w", err)
	}
	return nil
}

// ReadDirList parses a file written by WriteDirList. Malformed lines are
// skipped.
func ReadDirList(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		sep := strings.LastIndex(line, "|")
		if sep < 0 {
			slog.Warn("Skipping malformed dir list line", "path", path, "line", lineNum)
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(line[sep+1:]))
		if err != nil {
			slog.Warn("Skipping dir list line with bad count", "path", path, "line", lineNum, "error", err)
			continue
		}
		entries = append(entries, Entry{Dir: line[:sep], Count: count})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dir list: %w", err)
	}
	return entries, nil
}

// Rebuild scans root (or fallback when root does not exist) and writes the
// result to listPath.
func Rebuild(listPath, root, fallback string, blacklist []string) ([]Entry, error) {
	if _, err := os.Lstat(root); err != nil {
		slog.Warn("Main path not found, using default", "main_path", root, "default", fallback)
		root = fallback
	}

	slog.Info("Scanning directories", "root", root)
	entries, err := Scan(root, blacklist)
	if err != nil {
		return nil, err
	}
	if err := WriteDirList(listPath, entries); err != nil {
		return nil, err
	}
	slog.Info("Directory list written", "path", listPath, "dirs", len(entries))
	return entries, nil
}

// Load reads the dir list at listPath, building it first when it is
// missing. An empty list yields the fallback directory with weight 1.
func Load(listPath, root, fallback string, blacklist []string) ([]Entry, error) {
	entries, err := ReadDirList(listPath)
	if errors.Is(err, fs.ErrNotExist) {
		entries, err = Rebuild(listPath, root, fallback, blacklist)
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		slog.Warn("Directory list is empty, using default", "path", listPath, "default", fallback)
		entries = []Entry{{Dir: fallback, Count: 1}}
	}
	return entries, nil
}

// Split turns entries into parallel directory and weight slices.
func Split(entries []Entry) ([]string, []int) {
	dirs := make([]string, len(entries))
	weights := make([]int, len(entries))
	for i, e := range entries {
		dirs[i] = e.Dir
		weights[i] = e.Count
	}
	return dirs, weights
}
