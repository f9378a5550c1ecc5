package reportstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/MKlolbullen/bhtriage/internal/model"
	"github.com/MKlolbullen/bhtriage/internal/query"
)

// ErrNotFound is returned by Load for unknown or malformed report IDs.
var ErrNotFound = errors.New("report not found")

// Record is one saved triage report.
type Record struct {
	ID        string     `json:"id"`
	Bundle    string     `json:"bundle"`
	SHA256    string     `json:"sha256,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	View      query.View `json:"view"`
}

// Meta is the listing form of a Record, without the report body.
type Meta struct {
	ID        string        `json:"id"`
	Bundle    string        `json:"bundle"`
	SHA256    string        `json:"sha256,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Summary   model.Summary `json:"summary"`
}

func (r *Record) Meta() Meta {
	return Meta{ID: r.ID, Bundle: r.Bundle, SHA256: r.SHA256, CreatedAt: r.CreatedAt, Summary: r.View.Summary}
}

// Store persists Record JSON files under:
//
//	<root>/reports/<id>.json
type Store struct {
	fs   afero.Fs
	root string
	now  func() time.Time

	mu sync.Mutex
}

func New(fs afero.Fs, root string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, root: root, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) dir() string {
	return filepath.Join(s.root, "reports")
}

func (s *Store) file(id string) string {
	return filepath.Join(s.dir(), id+".json")
}

// Save assigns rec a new ID and creation time when missing and writes it.
// A report that fails to write is removed rather than left truncated.
func (s *Store) Save(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return fmt.Errorf("record id %q: %w", rec.ID, err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.MkdirAll(s.dir(), 0o755); err != nil {
		return err
	}
	path := s.file(rec.ID)
	f, err := s.fs.Create(path)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(path)
		return fmt.Errorf("write report %s: %w", rec.ID, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(path)
		return fmt.Errorf("close report %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) Load(id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fs.Open(s.file(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer f.Close()

	var rec Record
	if err := json.NewDecoder(f).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &rec, nil
}

// List returns metadata for every stored report, newest first. If none
// exist, returns an empty slice, not nil. Unreadable files are skipped.
func (s *Store) List() ([]Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := afero.ReadDir(s.fs, s.dir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Meta{}, nil
		}
		return nil, err
	}

	out := make([]Meta, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := afero.ReadFile(s.fs, filepath.Join(s.dir(), e.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err == nil {
			out = append(out, rec.Meta())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
