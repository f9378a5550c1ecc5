package bundle

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/MKlolbullen/bhtriage/internal/model"
)

// ErrArchive wraps any failure to open or read the collection archive itself.
// Unparseable documents inside a readable archive are skipped, not fatal.
var ErrArchive = errors.New("unreadable collection archive")

// Loader reads collection bundles (ZIP archives of JSON documents).
type Loader struct {
	fs     afero.Fs
	logger *slog.Logger
}

func NewLoader(fs afero.Fs, logger *slog.Logger) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fs: fs, logger: logger.With("component", "bundle")}
}

// Load opens the archive at p and returns its documents in archive order.
func (l *Loader) Load(p string) ([]model.Document, error) {
	f, err := l.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrArchive, p, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrArchive, p, err)
	}
	return l.LoadReader(f, info.Size())
}

// LoadReader reads an archive of the given size from r.
func (l *Loader) LoadReader(r io.ReaderAt, size int64) ([]model.Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchive, err)
	}

	var docs []model.Document
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || !IsDocumentName(zf.Name) {
			continue
		}
		data, err := readEntry(zf)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrArchive, zf.Name, err)
		}
		var doc model.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			l.logger.Warn("skipping unparseable document", "file", zf.Name, "err", err)
			continue
		}
		doc.Name = zf.Name
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		l.logger.Warn("no parseable documents in archive")
	}
	return docs, nil
}

// IsDocumentName reports whether an archive entry is a JSON document.
func IsDocumentName(name string) bool {
	return strings.EqualFold(path.Ext(name), ".json")
}

func readEntry(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
