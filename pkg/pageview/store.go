// Package pageview implements the Day-View Store (C5) and the Page-View
// Engine (C6) of spec.md §4.5–§4.6: per-day dense view vectors loaded on
// demand from fixed-layout binary files, fused with the category/article
// graph to answer trend, top-N, and delta queries.
package pageview

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wikicorpus/graphengine/pkg/engineerr"
)

const (
	viewMagic   = "VIEW"
	headerBytes = 16
	viewVersion = 1
)

// dateKey formats a date the way the day-view store indexes it internally,
// independent of the on-disk YYYY/MM/DD path components.
func dateKey(d time.Time) string { return d.Format("2006-01-02") }

// Store is the lazy, load-once-keep-forever per-date view vector cache for
// one wiki (C5). Once a date is loaded, successfully or as a confirmed
// miss, it is never reloaded — an engine's resident set is bounded by the
// widest query window ever issued against it, per spec.md §4.5.
type Store struct {
	mu      sync.Mutex
	wiki    string
	dataDir string
	days    map[string][]uint32
}

// NewStore creates an empty day-view store for wiki rooted at dataDir.
func NewStore(wiki, dataDir string) *Store {
	return &Store{
		wiki:    wiki,
		dataDir: dataDir,
		days:    make(map[string][]uint32),
	}
}

// EnsureLoaded loads every date in [start, end] (inclusive) not already
// resident. A missing file contributes zero views to every aggregate and is
// not an error — it is recorded as an empty vector so the filesystem is
// never re-checked for that date. A corrupt file (bad magic, truncated
// body) is fatal: the whole call fails and no partial state from that file
// is adopted.
func (s *Store) EnsureLoaded(start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := dateKey(d)
		if _, ok := s.days[key]; ok {
			continue
		}
		vec, err := s.loadDay(d)
		if err != nil {
			return err
		}
		s.days[key] = vec
	}
	return nil
}

// View returns the loaded vector for date, and whether it has been loaded
// (by EnsureLoaded) at all. A loaded-but-missing date returns a non-nil,
// zero-length slice.
func (s *Store) View(date time.Time) ([]uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vec, ok := s.days[dateKey(date)]
	return vec, ok
}

func (s *Store) path(d time.Time) string {
	return filepath.Join(s.dataDir, s.wiki, "pageviews",
		fmt.Sprintf("%04d", d.Year()), fmt.Sprintf("%02d", int(d.Month())), fmt.Sprintf("%02d.bin", d.Day()))
}

func (s *Store) loadDay(d time.Time) ([]uint32, error) {
	raw, err := os.ReadFile(s.path(d))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []uint32{}, nil
		}
		return nil, engineerr.New(engineerr.KindIOFailure, "pageview.loadDay", err)
	}
	return decodeViewFile(raw)
}

// decodeViewFile parses the VIEW binary format of spec.md §6 byte-exactly:
// 4 bytes magic, 4 bytes version (u32 LE), 8 bytes count (u64 LE), then
// count u32-LE entries, one per article dense id in dense-id order.
func decodeViewFile(raw []byte) ([]uint32, error) {
	if len(raw) < headerBytes || string(raw[0:4]) != viewMagic {
		return nil, engineerr.New(engineerr.KindCorruptBinary, "pageview.decodeViewFile",
			fmt.Errorf("bad magic (got %q)", safeHead(raw, 4)))
	}

	version := binary.LittleEndian.Uint32(raw[4:8])
	_ = version // no behavioral branch today; only version 1 has ever existed on disk

	count := binary.LittleEndian.Uint64(raw[8:16])
	body := raw[headerBytes:]
	if uint64(len(body)) != count*4 {
		return nil, engineerr.New(engineerr.KindCorruptBinary, "pageview.decodeViewFile",
			fmt.Errorf("truncated body: have %d bytes, want %d for count=%d", len(body), count*4, count))
	}

	views := make([]uint32, count)
	for i := range views {
		views[i] = binary.LittleEndian.Uint32(body[i*4 : i*4+4])
	}
	return views, nil
}

func safeHead(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[:n]
}

// EncodeViewFile is the inverse of decodeViewFile — used by tests and by
// offline tooling that writes fixture day-view files in the same format
// the production pipeline produces.
func EncodeViewFile(views []uint32) []byte {
	buf := make([]byte, headerBytes+len(views)*4)
	copy(buf[0:4], viewMagic)
	binary.LittleEndian.PutUint32(buf[4:8], viewVersion)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(views)))
	for i, v := range views {
		binary.LittleEndian.PutUint32(buf[headerBytes+i*4:headerBytes+i*4+4], v)
	}
	return buf
}
