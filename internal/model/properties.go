package model

import (
	"bytes"
	"encoding/json"
)

// OptBool is a boolean property that may be absent from a record.
type OptBool struct {
	Value bool
	Set   bool
}

// Get returns the value and whether it was present.
func (o OptBool) Get() (bool, bool) { return o.Value, o.Set }

// IsTrue is true only for a present boolean true.
func (o OptBool) IsTrue() bool { return o.Set && o.Value }

// OptString is a string property that may be absent from a record.
type OptString struct {
	Value string
	Set   bool
}

func (o OptString) Get() (string, bool) { return o.Value, o.Set }

// Properties is the closed set of object properties the triage reads.
// Only JSON booleans populate an OptBool and only JSON strings populate an
// OptString; null or differently typed values leave the field unset. Two keys
// follow the collector's loose truth rules instead: any present enabled value
// is kept by truthiness (so null disables), and any non-null userpassword
// counts as present.
type Properties struct {
	Name              OptString
	Domain            OptString
	Description       OptString
	DistinguishedName OptString
	OperatingSystem   OptString
	UserPassword      OptString

	AdminCount      OptBool
	HasSPN          OptBool
	TrustedToAuth   OptBool
	Enabled         OptBool
	PwdNeverExpires OptBool
}

func (p *Properties) strings() map[string]*OptString {
	return map[string]*OptString{
		"name":              &p.Name,
		"domain":            &p.Domain,
		"description":       &p.Description,
		"distinguishedname": &p.DistinguishedName,
		"operatingsystem":   &p.OperatingSystem,
		"userpassword":      &p.UserPassword,
	}
}

func (p *Properties) bools() map[string]*OptBool {
	return map[string]*OptBool{
		"admincount":      &p.AdminCount,
		"hasspn":          &p.HasSPN,
		"trustedtoauth":   &p.TrustedToAuth,
		"enabled":         &p.Enabled,
		"pwdneverexpires": &p.PwdNeverExpires,
	}
}

// UnmarshalJSON reads the recognized keys out of a loosely typed property bag.
// Values of the wrong JSON type are left unset, except enabled, which takes
// the truthiness of any value so null disables, and userpassword, which is
// present for any non-null value and empty when that value is falsy.
func (p *Properties) UnmarshalJSON(data []byte) error {
	*p = Properties{}
	if isNull(data) {
		return nil
	}
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	for key, dst := range p.strings() {
		if v, ok := stringField(raw, key); ok {
			*dst = OptString{Value: v, Set: true}
		}
	}
	for key, dst := range p.bools() {
		if v, ok := boolField(raw, key); ok {
			*dst = OptBool{Value: v, Set: true}
		}
	}

	if v, ok := raw["enabled"]; ok {
		p.Enabled = OptBool{Value: truthy(v), Set: true}
	}
	if v, ok := raw["userpassword"]; ok && !isNull(v) && !p.UserPassword.Set {
		pw := ""
		if truthy(v) {
			pw = string(bytes.TrimSpace(v))
		}
		p.UserPassword = OptString{Value: pw, Set: true}
	}
	return nil
}

// MarshalJSON writes only the keys that were present.
func (p Properties) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	for key, v := range p.strings() {
		if v.Set {
			out[key] = v.Value
		}
	}
	for key, v := range p.bools() {
		if v.Set {
			out[key] = v.Value
		}
	}
	return json.Marshal(out)
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
