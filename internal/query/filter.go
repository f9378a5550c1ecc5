package query

import (
	"strings"

	"github.com/MKlolbullen/bhtriage/internal/model"
	"github.com/MKlolbullen/bhtriage/internal/privesc"
)

func contains(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// MatchEntity reports whether filter is empty or a case-insensitive
// substring of the entity's display name or type.
func MatchEntity(e *model.Entity, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	return contains(e.Name(), f) || contains(e.Type, f)
}

// MatchEdge reports whether filter hits the source name or type, the right,
// or the resolved destination name or type.
func MatchEdge(ix *model.Index, e model.Edge, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	if contains(e.SourceName, f) || contains(e.SourceType, f) || contains(e.Right, f) {
		return true
	}
	name, typ := ix.ResolveDest(e)
	return contains(name, f) || contains(typ, f)
}

// FilterEntities keeps the entities matching filter, in order.
func FilterEntities(entities []*model.Entity, filter string) []*model.Entity {
	out := make([]*model.Entity, 0, len(entities))
	for _, e := range entities {
		if MatchEntity(e, filter) {
			out = append(out, e)
		}
	}
	return out
}

// FilterEdges keeps edges matching opts.Filter and, when
// opts.ExcludePrivilegedDest is set, drops edges into privileged entities.
func FilterEdges(ix *model.Index, edges []model.Edge, opts Options) []model.Edge {
	out := make([]model.Edge, 0, len(edges))
	for _, e := range edges {
		if opts.ExcludePrivilegedDest && privesc.DestIsPrivileged(ix, e) {
			continue
		}
		if MatchEdge(ix, e, opts.Filter) {
			out = append(out, e)
		}
	}
	return out
}
