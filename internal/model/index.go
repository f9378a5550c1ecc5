package model

// Index maps object identifiers to entities. Iteration follows the order in
// which identifiers were first seen; a later record with the same identifier
// replaces the stored entity but keeps its position.
type Index struct {
	byID  map[string]*Entity
	order []string
}

func NewIndex() *Index {
	return &Index{byID: make(map[string]*Entity)}
}

// Put stores e under e.ID, overwriting any previous entity (last write wins).
func (ix *Index) Put(e *Entity) {
	if _, exists := ix.byID[e.ID]; !exists {
		ix.order = append(ix.order, e.ID)
	}
	ix.byID[e.ID] = e
}

func (ix *Index) Get(id string) (*Entity, bool) {
	if ix == nil {
		return nil, false
	}
	e, ok := ix.byID[id]
	return e, ok
}

func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.order)
}

// Entities returns every entity in index order.
func (ix *Index) Entities() []*Entity {
	if ix == nil {
		return nil
	}
	out := make([]*Entity, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, ix.byID[id])
	}
	return out
}

// ResolveDest returns the display name and type of an edge's destination.
// Unknown destinations fall back to the raw identifier and the type hint.
func (ix *Index) ResolveDest(e Edge) (name, typ string) {
	dest, ok := ix.Get(e.DestID)
	if !ok {
		return e.DestID, e.DestTypeHint
	}
	name = e.DestID
	if v, ok := dest.Properties.Name.Get(); ok && v != "" {
		name = v
	}
	typ = dest.Type
	if typ == "" {
		typ = e.DestTypeHint
	}
	return name, typ
}
