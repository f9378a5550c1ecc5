package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MKlolbullen/bhtriage/internal/query"
)

// ErrInvalidFormat is returned for an output format name that is not supported.
var ErrInvalidFormat = errors.New("unsupported output format")

// Format selects a renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatDOT   Format = "dot"
)

func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatCSV, FormatDOT}
}

// ParseFormat is case-insensitive; an empty name selects the table renderer.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatTable, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of table, json, csv, dot)", ErrInvalidFormat, s)
}

// Extension is the file extension used when a report is written to disk.
func (f Format) Extension() string {
	if f == FormatTable {
		return ".txt"
	}
	return "." + string(f)
}

// Render writes v to w in format f.
func Render(w io.Writer, f Format, v query.View) error {
	switch f {
	case FormatTable, "":
		return renderTable(w, v)
	case FormatJSON:
		return renderJSON(w, v)
	case FormatCSV:
		return renderCSV(w, v)
	case FormatDOT:
		return renderDOT(w, v)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, f)
	}
}
