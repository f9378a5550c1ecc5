package model

import "fmt"

// Tier is the severity bucket of an edge, decided by its right.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// AllTiers returns the tiers from most to least severe.
func AllTiers() []Tier {
	return []Tier{TierCritical, TierHigh, TierMedium, TierLow}
}

func (t Tier) IsValid() bool {
	switch t {
	case TierCritical, TierHigh, TierMedium, TierLow:
		return true
	default:
		return false
	}
}

func (t Tier) String() string { return string(t) }

func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid tier: %s", s)
	}
	return t, nil
}

// Tiers holds leveled edges, each slice in extraction order.
type Tiers struct {
	Critical []Edge `json:"critical"`
	High     []Edge `json:"high"`
	Medium   []Edge `json:"medium"`
	Low      []Edge `json:"low"`
}

// Add appends e to the slice for t. Invalid tiers land in Low.
func (ts *Tiers) Add(t Tier, e Edge) {
	switch t {
	case TierCritical:
		ts.Critical = append(ts.Critical, e)
	case TierHigh:
		ts.High = append(ts.High, e)
	case TierMedium:
		ts.Medium = append(ts.Medium, e)
	default:
		ts.Low = append(ts.Low, e)
	}
}

// Get returns the edges leveled into t.
func (ts Tiers) Get(t Tier) []Edge {
	switch t {
	case TierCritical:
		return ts.Critical
	case TierHigh:
		return ts.High
	case TierMedium:
		return ts.Medium
	case TierLow:
		return ts.Low
	default:
		return nil
	}
}

// Len is the number of edges across all tiers.
func (ts Tiers) Len() int {
	return len(ts.Critical) + len(ts.High) + len(ts.Medium) + len(ts.Low)
}

// Classification holds the entity sets produced by the classifier, each in
// index order. Sets are independent and may overlap.
type Classification struct {
	Kerberoastable     []*Entity `json:"kerberoastable"`
	ASREPRoastable     []*Entity `json:"asrep_roastable"`
	Privileged         []*Entity `json:"privileged"`
	ObsoleteOS         []*Entity `json:"obsolete_os"`
	DisabledPrivileged []*Entity `json:"disabled_privileged"`
	PwdNeverExpires    []*Entity `json:"pwd_never_expires"`
}

// Result is the immutable output of one triage run.
type Result struct {
	Summary        Summary
	Index          *Index
	Edges          []Edge
	Classification Classification
	Tiers          Tiers
}
