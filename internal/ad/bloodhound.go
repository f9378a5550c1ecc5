package ad

import "github.com/MKlolbullen/bhtriage/internal/model"

// Summarize counts entities, extracted edges and entities per type.
// Documents and Suppressed are filled in by the pipeline, which owns them.
func Summarize(ix *model.Index, edges []model.Edge) model.Summary {
	types := make(map[string]int)
	for _, e := range ix.Entities() {
		types[e.Type]++
	}
	return model.Summary{
		Entities:    ix.Len(),
		Edges:       len(edges),
		EntityTypes: types,
	}
}
