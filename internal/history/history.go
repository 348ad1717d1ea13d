// Package history exports and imports series progress as TSV so watch state
// can move between machines or survive a cache rebuild.
// Uses atomic writes (temp+rename) to prevent data corruption.
package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sani/internal/media"
)

// TSV columns: series, season, episode, last_watched (unix seconds)
const numColumns = 4

const header = "# series\tseason\tepisode\tlast_watched"

// Load reads a progress file. A missing file yields no entries.
func Load(path string) ([]media.Progress, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses progress lines from r. Malformed lines are skipped.
func Read(r io.Reader) ([]media.Progress, error) {
	var entries []media.Progress
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			continue // Skip malformed lines
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return entries, nil
}

// Save writes entries to path, replacing the file atomically. Series that
// were never watched are left out.
func Save(path string, entries []media.Progress) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	// Atomic write: temp file + rename
	tmpFile, err := os.CreateTemp(dir, "history-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := Write(tmpFile, entries); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming history file: %w", err)
	}

	return nil
}

// Write formats watched entries to w, one per line after a header comment.
func Write(w io.Writer, entries []media.Progress) error {
	writer := bufio.NewWriter(w)
	if _, err := writer.WriteString(header + "\n"); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	for _, e := range entries {
		if !e.HasCurrent || e.Current.IsSpecial() {
			continue
		}
		if _, err := writer.WriteString(formatLine(e) + "\n"); err != nil {
			return fmt.Errorf("writing history: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing history: %w", err)
	}
	return nil
}

// parseLine parses a TSV line into a Progress entry.
func parseLine(line string) (media.Progress, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < numColumns {
		return media.Progress{}, fmt.Errorf("expected %d columns, got %d", numColumns, len(fields))
	}

	series := strings.TrimSpace(fields[0])
	if series == "" {
		return media.Progress{}, fmt.Errorf("empty series name")
	}
	season, err := strconv.Atoi(fields[1])
	if err != nil || season < 1 {
		return media.Progress{}, fmt.Errorf("invalid season %q", fields[1])
	}
	episode, err := strconv.Atoi(fields[2])
	if err != nil || episode < 0 {
		return media.Progress{}, fmt.Errorf("invalid episode %q", fields[2])
	}
	watched, _ := strconv.ParseInt(fields[3], 10, 64)

	p := media.Progress{
		Series:     series,
		Current:    media.NewNumbered(season, episode),
		HasCurrent: true,
	}
	if watched > 0 {
		p.LastWatched = time.Unix(watched, 0)
	}
	return p, nil
}

// formatLine converts a Progress entry to a TSV line.
func formatLine(e media.Progress) string {
	var watched int64
	if !e.LastWatched.IsZero() {
		watched = e.LastWatched.Unix()
	}
	return strings.Join([]string{
		sanitize(e.Series),
		strconv.Itoa(e.Current.Season),
		strconv.Itoa(e.Current.Episode),
		strconv.FormatInt(watched, 10),
	}, "\t")
}

func sanitize(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
