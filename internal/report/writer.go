package report

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/MKlolbullen/bhtriage/internal/query"
)

// Writer saves rendered reports under a directory.
type Writer struct {
	fs  afero.Fs
	dir string
}

func NewWriter(fs afero.Fs, dir string) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{fs: fs, dir: dir}
}

// FileName derives the report file name from the bundle path, e.g.
// "corp_20240101.zip" -> "corp_20240101-triage.json".
func FileName(bundlePath string, f Format) string {
	base := path.Base(filepath.ToSlash(bundlePath))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "bundle"
	}
	return base + "-triage" + f.Extension()
}

// Write renders v into <dir>/<FileName(bundlePath, f)> and returns the path.
func (w *Writer) Write(bundlePath string, f Format, v query.View) (string, error) {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := filepath.Join(w.dir, FileName(bundlePath, f))
	file, err := w.fs.Create(out)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer file.Close()

	if err := Render(file, f, v); err != nil {
		return "", fmt.Errorf("render %s: %w", f, err)
	}
	return out, nil
}
