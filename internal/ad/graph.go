package ad

import (
	"encoding/json"

	"github.com/MKlolbullen/bhtriage/internal/model"
)

// Graph is the entity index and edge list built from a collection bundle.
type Graph struct {
	Index *model.Index
	Edges []model.Edge
	// Skipped counts records dropped for lacking an identifier or not being objects.
	Skipped int
}

// BuildGraph indexes every identified record of every document and extracts
// the edges of each one, in document and record order. Edges come from every
// record, including records whose index entry a later duplicate replaces.
func BuildGraph(docs []model.Document) *Graph {
	g := &Graph{Index: model.NewIndex()}
	for _, doc := range docs {
		defaultType := doc.DefaultType()
		for _, raw := range doc.Data {
			ent, ok := decodeEntity(raw, defaultType)
			if !ok {
				g.Skipped++
				continue
			}
			g.Index.Put(ent)
			g.Edges = append(g.Edges, ExtractEdges(ent)...)
		}
	}
	return g
}

// BuildIndex returns only the entity index of docs.
func BuildIndex(docs []model.Document) *model.Index {
	return BuildGraph(docs).Index
}

func decodeEntity(raw json.RawMessage, defaultType string) (*model.Entity, bool) {
	var rec model.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false
	}
	if rec.ObjectIdentifier == "" {
		return nil, false
	}
	typ := rec.Type
	if typ == "" {
		typ = defaultType
	}
	return &model.Entity{
		ID:         rec.ObjectIdentifier,
		Type:       typ,
		Properties: rec.Properties,
		Aces:       rec.Aces,
	}, true
}

// ExtractEdges emits one edge per access entry of e whose right is in the
// recognized vocabulary, preserving entry order.
func ExtractEdges(e *model.Entity) []model.Edge {
	var edges []model.Edge
	for _, ace := range e.Aces {
		if !model.IsRecognizedRight(ace.RightName) {
			continue
		}
		edges = append(edges, model.Edge{
			SourceID:     e.ID,
			SourceName:   e.Name(),
			SourceType:   e.Type,
			Right:        ace.RightName,
			DestID:       orUnknown(ace.PrincipalSID),
			DestTypeHint: orUnknown(ace.PrincipalType),
			Inherited:    ace.IsInherited,
		})
	}
	return edges
}

func orUnknown(s string) string {
	if s == "" {
		return model.Unknown
	}
	return s
}
