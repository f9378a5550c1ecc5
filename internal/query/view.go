package query

import (
	"slices"
	"strings"

	"github.com/MKlolbullen/bhtriage/internal/model"
)

// Options narrows a triage result before it is rendered.
type Options struct {
	Filter                string `json:"filter,omitempty"`
	ExcludePrivilegedDest bool   `json:"exclude_privileged_destinations,omitempty"`
	Limit                 Limit  `json:"limit"`
	// Tiers restricts the relationship sections shown. Empty shows all.
	Tiers []model.Tier `json:"tiers,omitempty"`
}

// ParseTiers reads a comma-separated tier list such as "critical,high".
// Blank input selects every tier.
func ParseTiers(s string) ([]model.Tier, error) {
	var out []model.Tier
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		t, err := model.ParseTier(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (o Options) showsTier(t model.Tier) bool {
	return len(o.Tiers) == 0 || slices.Contains(o.Tiers, t)
}

// Entity section keys.
const (
	SectionKerberoastable     = "kerberoastable"
	SectionASREPRoastable     = "asrep_roastable"
	SectionPrivileged         = "privileged"
	SectionObsoleteOS         = "obsolete_os"
	SectionDisabledPrivileged = "disabled_privileged"
	SectionPwdNeverExpires    = "pwd_never_expires"
)

// EntitySection is one filtered, truncated classification set.
type EntitySection struct {
	Key    string          `json:"key"`
	Title  string          `json:"title"`
	Total  int             `json:"total"`
	Elided int             `json:"elided"`
	Items  []*model.Entity `json:"items"`
}

// EdgeRow is an edge with its destination resolved against the index.
type EdgeRow struct {
	model.Edge
	DestName string `json:"dest_name"`
	DestType string `json:"dest_type"`
}

// EdgeSection is one filtered, truncated severity tier.
type EdgeSection struct {
	Tier   model.Tier `json:"tier"`
	Total  int        `json:"total"`
	Elided int        `json:"elided"`
	Items  []EdgeRow  `json:"items"`
}

// View is what a renderer displays.
type View struct {
	Summary       model.Summary   `json:"summary"`
	Options       Options         `json:"options"`
	Entities      []EntitySection `json:"entities"`
	Relationships []EdgeSection   `json:"relationships"`
}

// Section returns the entity section with key, or nil.
func (v *View) Section(key string) *EntitySection {
	for i := range v.Entities {
		if v.Entities[i].Key == key {
			return &v.Entities[i]
		}
	}
	return nil
}

// Tier returns the relationship section for t, or nil.
func (v *View) Tier(t model.Tier) *EdgeSection {
	for i := range v.Relationships {
		if v.Relationships[i].Tier == t {
			return &v.Relationships[i]
		}
	}
	return nil
}

// Build filters and truncates every classification set and selected tier
// of res.
func Build(res *model.Result, opts Options) View {
	c := res.Classification
	sets := []struct {
		key, title string
		items      []*model.Entity
	}{
		{SectionKerberoastable, "Kerberoastable accounts", c.Kerberoastable},
		{SectionASREPRoastable, "AS-REP Roastable accounts", c.ASREPRoastable},
		{SectionPrivileged, "AdminCount=true accounts", c.Privileged},
		{SectionObsoleteOS, "Computers with obsolete OS", c.ObsoleteOS},
		{SectionDisabledPrivileged, "Disabled admins", c.DisabledPrivileged},
		{SectionPwdNeverExpires, "Users with passwords that never expire", c.PwdNeverExpires},
	}

	v := View{Summary: res.Summary, Options: opts}
	for _, s := range sets {
		matched := FilterEntities(s.items, opts.Filter)
		shown, elided := Truncate(matched, opts.Limit)
		v.Entities = append(v.Entities, EntitySection{
			Key:    s.key,
			Title:  s.title,
			Total:  len(matched),
			Elided: elided,
			Items:  shown,
		})
	}

	for _, tier := range model.AllTiers() {
		if !opts.showsTier(tier) {
			continue
		}
		matched := FilterEdges(res.Index, res.Tiers.Get(tier), opts)
		shown, elided := Truncate(matched, opts.Limit)
		rows := make([]EdgeRow, 0, len(shown))
		for _, e := range shown {
			name, typ := res.Index.ResolveDest(e)
			rows = append(rows, EdgeRow{Edge: e, DestName: name, DestType: typ})
		}
		v.Relationships = append(v.Relationships, EdgeSection{
			Tier:   tier,
			Total:  len(matched),
			Elided: elided,
			Items:  rows,
		})
	}
	return v
}
