package ad

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKlolbullen/bhtriage/internal/model"
)

func doc(t *testing.T, metaType string, records ...string) model.Document {
	t.Helper()
	d := model.Document{Name: metaType + ".json", Meta: model.DocumentMeta{Type: metaType}}
	for _, r := range records {
		require.True(t, json.Valid([]byte(r)), "invalid fixture: %s", r)
		d.Data = append(d.Data, json.RawMessage(r))
	}
	return d
}

func TestBuildGraph_TypesAndSkips(t *testing.T) {
	docs := []model.Document{
		doc(t, "computers",
			`{"ObjectIdentifier":"C1","Properties":{"name":"DC01","operatingsystem":"Windows Server 2008 R2"}}`,
			`{"Properties":{"name":"NOID"}}`,
			`"not an object"`,
		),
		doc(t, "users",
			`{"ObjectIdentifier":"U1","type":"ServiceAccount","Properties":{"name":"SVC_SQL"}}`,
		),
		doc(t, "",
			`{"ObjectIdentifier":"X1"}`,
		),
	}

	g := BuildGraph(docs)
	require.Equal(t, 3, g.Index.Len())
	assert.Equal(t, 2, g.Skipped)

	c1, ok := g.Index.Get("C1")
	require.True(t, ok)
	assert.Equal(t, "computers", c1.Type)
	assert.Equal(t, "DC01", c1.Name())

	u1, _ := g.Index.Get("U1")
	assert.Equal(t, "ServiceAccount", u1.Type)

	x1, _ := g.Index.Get("X1")
	assert.Equal(t, model.Unknown, x1.Type)
	assert.Equal(t, model.Unknown, x1.Name())
}

func TestBuildGraph_MistypedFieldsKeepRecord(t *testing.T) {
	docs := []model.Document{
		doc(t, "users",
			`{"ObjectIdentifier":"U1","Properties":{"name":"ADMIN","admincount":true},
			  "Aces":[
				{"RightName":"GenericAll","PrincipalSID":"U2","PrincipalType":"User","IsInherited":"false"},
				"garbage",
				{"RightName":"WriteOwner","PrincipalSID":"U3","PrincipalType":"User","IsInherited":true}
			  ]}`,
			`{"ObjectIdentifier":"U2","type":5,"Properties":{"name":"BOB","enabled":"yes"}}`,
		),
	}

	g := BuildGraph(docs)
	require.Equal(t, 2, g.Index.Len())
	assert.Zero(t, g.Skipped)

	u1, ok := g.Index.Get("U1")
	require.True(t, ok)
	assert.True(t, u1.Properties.AdminCount.IsTrue())

	u2, ok := g.Index.Get("U2")
	require.True(t, ok)
	assert.Equal(t, "users", u2.Type)
	assert.Equal(t, "BOB", u2.Name())

	require.Len(t, g.Edges, 2)
	assert.Equal(t, "GenericAll", g.Edges[0].Right)
	assert.Equal(t, "U2", g.Edges[0].DestID)
	assert.False(t, g.Edges[0].Inherited)
	assert.Equal(t, "WriteOwner", g.Edges[1].Right)
	assert.True(t, g.Edges[1].Inherited)
}

func TestBuildGraph_DuplicateIDLastWriteWins(t *testing.T) {
	docs := []model.Document{
		doc(t, "users", `{"ObjectIdentifier":"S-1","Properties":{"name":"OLD","admincount":true}}`),
		doc(t, "groups", `{"ObjectIdentifier":"S-1","Properties":{"name":"NEW"}}`),
	}
	ix := BuildIndex(docs)
	require.Equal(t, 1, ix.Len())
	e, _ := ix.Get("S-1")
	assert.Equal(t, "groups", e.Type)
	assert.Equal(t, "NEW", e.Name())
	assert.False(t, e.Properties.AdminCount.Set)
}

func TestExtractEdges(t *testing.T) {
	ent := &model.Entity{
		ID:         "A",
		Type:       "users",
		Properties: model.Properties{Name: model.OptString{Value: "ALICE", Set: true}},
		Aces: []model.AccessEntry{
			{RightName: "GenericAll", PrincipalSID: "B", PrincipalType: "Group"},
			{RightName: "ReadProperty", PrincipalSID: "C", PrincipalType: "User"},
			{RightName: "Owns", IsInherited: true},
			{RightName: "WriteDacl", PrincipalSID: "D"},
		},
	}

	edges := ExtractEdges(ent)
	require.Len(t, edges, 3)

	assert.Equal(t, model.Edge{
		SourceID: "A", SourceName: "ALICE", SourceType: "users",
		Right: "GenericAll", DestID: "B", DestTypeHint: "Group",
	}, edges[0])
	assert.Equal(t, "Owns", edges[1].Right)
	assert.Equal(t, model.Unknown, edges[1].DestID)
	assert.Equal(t, model.Unknown, edges[1].DestTypeHint)
	assert.True(t, edges[1].Inherited)
	assert.Equal(t, "WriteDacl", edges[2].Right)
	assert.Equal(t, model.Unknown, edges[2].DestTypeHint)
}

func TestBuildGraph_EdgesFromOverwrittenRecordsKept(t *testing.T) {
	docs := []model.Document{
		doc(t, "users", `{"ObjectIdentifier":"A","Aces":[{"RightName":"Owns","PrincipalSID":"B","PrincipalType":"User"}]}`),
		doc(t, "users", `{"ObjectIdentifier":"A","Aces":[{"RightName":"AdminTo","PrincipalSID":"C","PrincipalType":"User"}]}`),
	}
	g := BuildGraph(docs)
	require.Len(t, g.Edges, 2)
	assert.Equal(t, "Owns", g.Edges[0].Right)
	assert.Equal(t, "AdminTo", g.Edges[1].Right)
}

func TestBuildGraph_Empty(t *testing.T) {
	g := BuildGraph(nil)
	assert.Equal(t, 0, g.Index.Len())
	assert.Empty(t, g.Edges)
}

func TestSummarize(t *testing.T) {
	docs := []model.Document{
		doc(t, "users",
			`{"ObjectIdentifier":"U1","Aces":[{"RightName":"Owns","PrincipalSID":"U2"}]}`,
			`{"ObjectIdentifier":"U2"}`,
		),
		doc(t, "computers", `{"ObjectIdentifier":"C1"}`),
	}
	g := BuildGraph(docs)
	s := Summarize(g.Index, g.Edges)
	assert.Equal(t, 3, s.Entities)
	assert.Equal(t, 1, s.Edges)
	assert.Equal(t, map[string]int{"users": 2, "computers": 1}, s.EntityTypes)
}
