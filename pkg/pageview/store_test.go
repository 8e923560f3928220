package pageview

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wikicorpus/graphengine/pkg/engineerr"
)

func writeDayFile(t *testing.T, dataDir, wiki string, date time.Time, views []uint32) {
	t.Helper()
	dir := filepath.Join(dataDir, wiki, "pageviews",
		date.Format("2006"), date.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, date.Format("02")+".bin")
	if err := os.WriteFile(path, EncodeViewFile(views), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestBinaryFormatRoundTrip is Scenario D: writing VIEW|1|4|100|200|300|600
// round-trips to the same four values when loaded.
func TestBinaryFormatRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	date := time.Date(2032, 10, 12, 0, 0, 0, 0, time.UTC)
	want := []uint32{100, 200, 300, 600}
	writeDayFile(t, dataDir, "enwiki", date, want)

	s := NewStore("enwiki", dataDir)
	if err := s.EnsureLoaded(date, date); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	got, ok := s.View(date)
	if !ok {
		t.Fatal("View reports not loaded")
	}
	if len(got) != len(want) {
		t.Fatalf("View = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("View[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMissingFileIsZeroNotError(t *testing.T) {
	dataDir := t.TempDir()
	date := time.Date(2032, 1, 1, 0, 0, 0, 0, time.UTC)

	s := NewStore("enwiki", dataDir)
	if err := s.EnsureLoaded(date, date); err != nil {
		t.Fatalf("EnsureLoaded on missing file returned error: %v", err)
	}
	got, ok := s.View(date)
	if !ok {
		t.Fatal("View reports not loaded for a confirmed-missing date")
	}
	if len(got) != 0 {
		t.Errorf("View for missing file = %v, want empty", got)
	}
}

func TestBadMagicIsCorruptBinary(t *testing.T) {
	dataDir := t.TempDir()
	date := time.Date(2032, 1, 1, 0, 0, 0, 0, time.UTC)
	dir := filepath.Join(dataDir, "enwiki", "pageviews", "2032", "01")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "01.bin"), []byte("JUNKxxxxxxxxxxxx"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore("enwiki", dataDir)
	err := s.EnsureLoaded(date, date)
	if err == nil {
		t.Fatal("EnsureLoaded over a bad-magic file returned nil error")
	}
	if !errors.Is(err, engineerr.CorruptBinary) {
		t.Errorf("error = %v, want engineerr.CorruptBinary", err)
	}
}

func TestLoadOnceKeepForever(t *testing.T) {
	dataDir := t.TempDir()
	date := time.Date(2032, 6, 1, 0, 0, 0, 0, time.UTC)
	writeDayFile(t, dataDir, "enwiki", date, []uint32{7, 8, 9})

	s := NewStore("enwiki", dataDir)
	if err := s.EnsureLoaded(date, date); err != nil {
		t.Fatal(err)
	}
	// Remove the file on disk; a cached date must not be reloaded.
	path := filepath.Join(dataDir, "enwiki", "pageviews", "2032", "06", "01.bin")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureLoaded(date, date); err != nil {
		t.Fatalf("EnsureLoaded on already-cached date returned error: %v", err)
	}
	got, _ := s.View(date)
	if len(got) != 3 {
		t.Errorf("View after deletion = %v, want cached [7 8 9]", got)
	}
}

func TestWrongCountStillAdoptedWithinItsLength(t *testing.T) {
	dataDir := t.TempDir()
	date := time.Date(2032, 3, 3, 0, 0, 0, 0, time.UTC)
	writeDayFile(t, dataDir, "enwiki", date, []uint32{1, 2})

	s := NewStore("enwiki", dataDir)
	if err := s.EnsureLoaded(date, date); err != nil {
		t.Fatal(err)
	}
	got, _ := s.View(date)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("View = %v, want [1 2]", got)
	}
}
