package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKlolbullen/bhtriage/internal/model"
	"github.com/MKlolbullen/bhtriage/internal/query"
)

func doc(typ string, records ...string) model.Document {
	d := model.Document{Name: typ + ".json", Meta: model.DocumentMeta{Type: typ}}
	for _, r := range records {
		d.Data = append(d.Data, json.RawMessage(r))
	}
	return d
}

func run(t *testing.T, docs ...model.Document) *model.Result {
	t.Helper()
	res, err := New(nil).Run(context.Background(), docs, nil)
	require.NoError(t, err)
	return res
}

func names(es []*model.Entity) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Name())
	}
	return out
}

func TestRun_ObsoleteComputer(t *testing.T) {
	res := run(t, doc("computers",
		`{"ObjectIdentifier":"C1","Properties":{"name":"DC01","operatingsystem":"Windows Server 2008 R2"}}`))

	require.Len(t, res.Classification.ObsoleteOS, 1)
	assert.Equal(t, "DC01", res.Classification.ObsoleteOS[0].Name())
	assert.Equal(t, "computers", res.Classification.ObsoleteOS[0].Type)
	assert.Empty(t, res.Classification.Kerberoastable)
	assert.Empty(t, res.Classification.ASREPRoastable)
}

func TestRun_DisabledAdmin(t *testing.T) {
	res := run(t, doc("users",
		`{"ObjectIdentifier":"U1","Properties":{"admincount":true,"enabled":false}}`))

	require.Len(t, res.Classification.Privileged, 1)
	require.Len(t, res.Classification.DisabledPrivileged, 1)
	assert.Equal(t, "U1", res.Classification.Privileged[0].ID)
	assert.Equal(t, "U1", res.Classification.DisabledPrivileged[0].ID)
}

func TestRun_SuppressesPrivilegedDestination(t *testing.T) {
	res := run(t, doc("users",
		`{"ObjectIdentifier":"A","Properties":{"name":"A"},"Aces":[{"RightName":"GenericAll","PrincipalSID":"B"}]}`,
		`{"ObjectIdentifier":"B","Properties":{"name":"B","admincount":true}}`))

	assert.Equal(t, 0, res.Tiers.Len())
	assert.Equal(t, 1, res.Summary.Suppressed)
	assert.Equal(t, 1, res.Summary.Edges)
}

func TestRun_MistypedPrivilegedRecordStillSuppresses(t *testing.T) {
	res := run(t, doc("users",
		`{"ObjectIdentifier":"A","Properties":{"name":"A"},"Aces":[{"RightName":"GenericAll","PrincipalSID":"B","IsInherited":"no"}]}`,
		`{"ObjectIdentifier":"B","type":5,"Properties":{"name":"B","admincount":true}}`))

	require.Len(t, res.Classification.Privileged, 1)
	assert.Equal(t, "B", res.Classification.Privileged[0].ID)
	assert.Equal(t, 0, res.Tiers.Len())
	assert.Equal(t, 1, res.Summary.Suppressed)
}

func TestRun_LooseEnabledAndPassword(t *testing.T) {
	res := run(t, doc("users",
		`{"ObjectIdentifier":"U1","Properties":{"admincount":true,"enabled":null}}`,
		`{"ObjectIdentifier":"U2","Properties":{"trustedtoauth":true,"userpassword":123456}}`,
		`{"ObjectIdentifier":"U3","Properties":{"trustedtoauth":true,"userpassword":0}}`))

	require.Len(t, res.Classification.DisabledPrivileged, 1)
	assert.Equal(t, "U1", res.Classification.DisabledPrivileged[0].ID)

	require.Len(t, res.Classification.ASREPRoastable, 1)
	assert.Equal(t, "U3", res.Classification.ASREPRoastable[0].ID)
}

func TestRun_OwnsIsLow(t *testing.T) {
	res := run(t, doc("users",
		`{"ObjectIdentifier":"A","Aces":[{"RightName":"Owns","PrincipalSID":"C"}]}`,
		`{"ObjectIdentifier":"C","Properties":{"admincount":false}}`))

	require.Len(t, res.Tiers.Low, 1)
	assert.Equal(t, "C", res.Tiers.Low[0].DestID)
	assert.Empty(t, res.Tiers.Critical)
	assert.Equal(t, 0, res.Summary.Suppressed)
}

func TestRun_LimitAndFilter(t *testing.T) {
	res := run(t, doc("users",
		`{"ObjectIdentifier":"1","Properties":{"name":"SVC1","hasspn":true}}`,
		`{"ObjectIdentifier":"2","Properties":{"name":"SVC2","hasspn":true}}`,
		`{"ObjectIdentifier":"3","Properties":{"name":"SVC3","hasspn":true}}`),
		doc("computers", `{"ObjectIdentifier":"4","Properties":{"name":"SQLSERVER01","operatingsystem":"Windows 7 Enterprise"}}`))

	v := query.Build(res, query.Options{Limit: query.Max(1)})
	kerb := v.Section(query.SectionKerberoastable)
	require.NotNil(t, kerb)
	assert.Len(t, kerb.Items, 1)
	assert.Equal(t, 2, kerb.Elided)

	v = query.Build(res, query.Options{Filter: "sql", Limit: query.Unbounded})
	assert.Equal(t, []string{"SQLSERVER01"}, names(v.Section(query.SectionObsoleteOS).Items))
	assert.Equal(t, 0, v.Section(query.SectionKerberoastable).Total)
}

func TestRun_EmptyInput(t *testing.T) {
	res := run(t)
	assert.Equal(t, 0, res.Index.Len())
	assert.Equal(t, 0, res.Tiers.Len())
	assert.Equal(t, 0, res.Summary.Documents)
	assert.Empty(t, res.Classification.Privileged)
}

func TestRun_Deterministic(t *testing.T) {
	docs := []model.Document{
		doc("users",
			`{"ObjectIdentifier":"A","Properties":{"name":"A"},"Aces":[{"RightName":"Owns","PrincipalSID":"B"},{"RightName":"GenericWrite","PrincipalSID":"C"}]}`,
			`{"ObjectIdentifier":"B","Properties":{"name":"B","hasspn":true}}`),
		doc("groups",
			`{"ObjectIdentifier":"C","Properties":{"name":"C"},"Aces":[{"RightName":"MemberOf","PrincipalSID":"A"},{"RightName":"ReadProperty","PrincipalSID":"B"}]}`),
	}

	first := run(t, docs...)
	second := run(t, docs...)

	a, err := json.Marshal(query.Build(first, query.Options{Limit: query.Unbounded}))
	require.NoError(t, err)
	b, err := json.Marshal(query.Build(second, query.Options{Limit: query.Unbounded}))
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, 3, first.Summary.Edges)
	assert.Equal(t, map[string]int{"users": 2, "groups": 1}, first.Summary.EntityTypes)
}

func TestRun_ReportsProgressAndCancels(t *testing.T) {
	var stages []string
	_, err := New(nil).Run(context.Background(), nil, func(stage string, _ int) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"index", "classify", "level", "done"}, stages)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(nil).Run(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
