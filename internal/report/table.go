package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/aquasecurity/table"
	"github.com/fatih/color"

	"github.com/MKlolbullen/bhtriage/internal/model"
	"github.com/MKlolbullen/bhtriage/internal/query"
)

var (
	sectionTitle = color.New(color.FgCyan, color.Bold).SprintFunc()
	faint        = color.New(color.Faint).SprintFunc()

	tierColors = map[model.Tier]*color.Color{
		model.TierCritical: color.New(color.FgRed, color.Bold),
		model.TierHigh:     color.New(color.FgRed),
		model.TierMedium:   color.New(color.FgYellow),
		model.TierLow:      color.New(color.FgGreen),
	}
)

// Relationship formats an edge row as
// "principal (type) --[Right]--> object (type)". The principal is the holder
// of the right and the object is the entity carrying the access entry.
func Relationship(r query.EdgeRow) string {
	return fmt.Sprintf("%s (%s) --[%s]--> %s (%s)",
		r.DestName, r.DestType, r.Right, r.SourceName, r.SourceType)
}

func newTable(w io.Writer, headers ...string) *table.Table {
	t := table.New(w)
	t.SetColumnMaxWidth(1000)
	t.SetHeaders(headers...)
	t.SetRowLines(false)
	t.SetDividers(table.UnicodeRoundedDividers)
	t.SetAlignment(table.AlignLeft)
	t.SetHeaderStyle(table.StyleBold)
	return t
}

func renderTable(w io.Writer, v query.View) error {
	ew := &errWriter{w: w}
	s := v.Summary
	ew.printf("%s\n", sectionTitle("Summary"))
	ew.printf("  documents: %d  entities: %d  edges: %d  suppressed: %d\n",
		s.Documents, s.Entities, s.Edges, s.Suppressed)
	if types := formatTypes(s.EntityTypes); types != "" {
		ew.printf("  types: %s\n", types)
	}
	if v.Options.Filter != "" {
		ew.printf("  filter: %q\n", v.Options.Filter)
	}

	for _, sec := range v.Entities {
		ew.printf("\n%s %s\n", sectionTitle(sec.Title), faint(fmt.Sprintf("(%d)", sec.Total)))
		if len(sec.Items) == 0 {
			ew.printf("  none\n")
			continue
		}
		if ew.err != nil {
			return ew.err
		}
		headers := []string{"Name", "Type"}
		if sec.Key == query.SectionObsoleteOS {
			headers = append(headers, "Operating System")
		}
		t := newTable(w, headers...)
		for _, e := range sec.Items {
			row := []string{e.Name(), e.Type}
			if sec.Key == query.SectionObsoleteOS {
				osName, _ := e.Properties.OperatingSystem.Get()
				row = append(row, osName)
			}
			t.AddRow(row...)
		}
		t.Render()
		writeElided(ew, sec.Elided)
	}

	for _, sec := range v.Relationships {
		title := tierColors[sec.Tier].Sprintf("%s-risk relationships", strings.ToUpper(sec.Tier.String()))
		ew.printf("\n%s %s\n", title, faint(fmt.Sprintf("(%d)", sec.Total)))
		if len(sec.Items) == 0 {
			ew.printf("  none\n")
			continue
		}
		if ew.err != nil {
			return ew.err
		}
		t := newTable(w, "#", "Relationship", "Inherited")
		for i, r := range sec.Items {
			t.AddRow(strconv.Itoa(i+1), Relationship(r), strconv.FormatBool(r.Inherited))
		}
		t.Render()
		writeElided(ew, sec.Elided)
	}
	return ew.err
}

func writeElided(ew *errWriter, n int) {
	if n > 0 {
		ew.printf("  ... %d more not shown\n", n)
	}
}

func formatTypes(types map[string]int) string {
	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, types[k]))
	}
	return strings.Join(parts, ", ")
}

// errWriter keeps the first write error so callers check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
