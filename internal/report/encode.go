package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/MKlolbullen/bhtriage/internal/model"
	"github.com/MKlolbullen/bhtriage/internal/query"
)

func renderJSON(w io.Writer, v query.View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var csvHeader = []string{"section", "tier", "principal", "principal_type", "right", "object", "object_type", "inherited", "detail"}

// renderCSV writes one row per shown entity and per shown relationship.
// Entity rows leave the relationship columns empty.
func renderCSV(w io.Writer, v query.View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, sec := range v.Entities {
		for _, e := range sec.Items {
			detail := ""
			if sec.Key == query.SectionObsoleteOS {
				detail, _ = e.Properties.OperatingSystem.Get()
			}
			if err := cw.Write([]string{sec.Key, "", e.Name(), e.Type, "", "", "", "", detail}); err != nil {
				return err
			}
		}
	}
	for _, sec := range v.Relationships {
		for _, r := range sec.Items {
			row := []string{
				"relationships", sec.Tier.String(),
				r.DestName, r.DestType, r.Right, r.SourceName, r.SourceType,
				strconv.FormatBool(r.Inherited), "",
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

var dotColors = map[model.Tier]string{
	model.TierCritical: "red",
	model.TierHigh:     "orange",
	model.TierMedium:   "gold",
	model.TierLow:      "gray",
}

type dotPair struct{ from, to string }

// renderDOT draws the shown relationships as a directed graph from
// principal to object. Parallel rights between the same pair share one edge
// whose label lists them and whose colour is that of the most severe tier.
func renderDOT(w io.Writer, v query.View) error {
	g := graph.New(graph.StringHash, graph.Directed())

	labels := make(map[dotPair][]string)
	colors := make(map[dotPair]string)
	var pairs []dotPair

	addVertex := func(id, name, typ string) error {
		err := g.AddVertex(id, graph.VertexAttribute("label", dotEscape(fmt.Sprintf("%s (%s)", name, typ))))
		if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return err
		}
		return nil
	}

	for _, sec := range v.Relationships {
		for _, r := range sec.Items {
			dest := r.DestID
			if dest == model.Unknown {
				// Unidentified principals are distinct, not one shared node.
				dest = model.Unknown + ":" + r.SourceID + ":" + r.Right
			}
			if err := addVertex(dest, r.DestName, r.DestType); err != nil {
				return err
			}
			if err := addVertex(r.SourceID, r.SourceName, r.SourceType); err != nil {
				return err
			}
			p := dotPair{from: dest, to: r.SourceID}
			if _, seen := labels[p]; !seen {
				pairs = append(pairs, p)
				colors[p] = dotColors[sec.Tier]
			}
			labels[p] = append(labels[p], r.Right)
		}
	}

	for _, p := range pairs {
		err := g.AddEdge(p.from, p.to,
			graph.EdgeAttribute("label", dotEscape(strings.Join(labels[p], ","))),
			graph.EdgeAttribute("color", colors[p]),
		)
		if err != nil {
			return fmt.Errorf("dot edge %s -> %s: %w", p.from, p.to, err)
		}
	}
	return draw.DOT(g, w)
}

func dotEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
