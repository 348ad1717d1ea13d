package history

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sani/internal/media"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "progress.tsv")
	watched := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	entries := []media.Progress{
		{Series: "Frieren", Current: media.NewNumbered(1, 12), HasCurrent: true, LastWatched: watched},
		{Series: "Never Watched", Current: media.DefaultIdentity},
		{Series: "Severance", Current: media.NewNumbered(2, 3), HasCurrent: true},
	}

	if err := Save(path, entries); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded))
	}

	got := loaded[0]
	if got.Series != "Frieren" {
		t.Errorf("Series = %q, want Frieren", got.Series)
	}
	if !got.Current.Equal(media.NewNumbered(1, 12)) {
		t.Errorf("Current = %s, want S01 E12", got.Current)
	}
	if !got.LastWatched.Equal(watched) {
		t.Errorf("LastWatched = %v, want %v", got.LastWatched, watched)
	}
	if !loaded[1].LastWatched.IsZero() {
		t.Errorf("unwatched timestamp = %v, want zero", loaded[1].LastWatched)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.tsv")
	os.WriteFile(path, []byte("Old\t1\t1\t0\n"), 0o600)

	entries := []media.Progress{
		{Series: "New", Current: media.NewNumbered(1, 2), HasCurrent: true},
	}
	if err := Save(path, entries); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, _ := Load(path)
	if len(loaded) != 1 || loaded[0].Series != "New" {
		t.Errorf("loaded = %+v, want only New", loaded)
	}
}

func TestLoadMissing(t *testing.T) {
	entries, err := Load(filepath.Join(t.TempDir(), "missing.tsv"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}

func TestReadSkipsMalformed(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"",
		"Show\t1\t2\t1700000000",
		"too\tfew",
		"\t1\t1\t0",
		"Bad Season\tx\t1\t0",
		"Zero Season\t0\t1\t0",
		"Other\t3\t4\tgarbage",
	}, "\n")

	entries, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[1].Series != "Other" || !entries[1].LastWatched.IsZero() {
		t.Errorf("entry with bad timestamp = %+v", entries[1])
	}
}

func TestWriteSkipsSpecials(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []media.Progress{
		{Series: "Show", Current: media.NewSpecial("OVA"), HasCurrent: true},
	})
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if buf.String() != header+"\n" {
		t.Errorf("Write output = %q, want header only", buf.String())
	}
}

func TestFormatLine(t *testing.T) {
	entry := media.Progress{
		Series:      "Show\twith tab",
		Current:     media.NewNumbered(2, 5),
		HasCurrent:  true,
		LastWatched: time.Unix(1700000000, 0),
	}

	line := formatLine(entry)
	expected := "Show with tab\t2\t5\t1700000000"
	if line != expected {
		t.Errorf("formatLine = %q, want %q", line, expected)
	}

	// Round-trip
	parsed, err := parseLine(line)
	if err != nil {
		t.Fatalf("parseLine error: %v", err)
	}
	if parsed.Series != "Show with tab" || !parsed.Current.Equal(entry.Current) || !parsed.LastWatched.Equal(entry.LastWatched) {
		t.Errorf("round-trip failed: got %+v", parsed)
	}
}
