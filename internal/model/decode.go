package model

import (
	"encoding/json"
	"errors"
)

var errNotObject = errors.New("not a JSON object")

// decodeObject splits a JSON object into its raw fields.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	if isNull(data) {
		return nil, errNotObject
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errNotObject
	}
	return raw, nil
}

// stringField returns raw[key] when it is a JSON string.
func stringField(raw map[string]json.RawMessage, key string) (string, bool) {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return "", false
	}
	var s string
	if json.Unmarshal(v, &s) != nil {
		return "", false
	}
	return s, true
}

// boolField returns raw[key] when it is a JSON boolean.
func boolField(raw map[string]json.RawMessage, key string) (bool, bool) {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return false, false
	}
	var b bool
	if json.Unmarshal(v, &b) != nil {
		return false, false
	}
	return b, true
}

// truthy applies the collector's loose truth rules: null, false, 0, "" and
// empty arrays or objects are false, everything else is true.
func truthy(v json.RawMessage) bool {
	var x any
	if json.Unmarshal(v, &x) != nil {
		return false
	}
	switch t := x.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// UnmarshalJSON reads a record field by field. A field of the wrong JSON
// type is ignored and an access entry that is not an object is dropped, so
// one bad value never discards the whole record.
func (r *Record) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	*r = Record{}
	r.ObjectIdentifier, _ = stringField(raw, "ObjectIdentifier")
	r.Type, _ = stringField(raw, "type")

	if v, ok := raw["Properties"]; ok {
		var p Properties
		if json.Unmarshal(v, &p) == nil {
			r.Properties = p
		}
	}

	if v, ok := raw["Aces"]; ok {
		var entries []json.RawMessage
		if json.Unmarshal(v, &entries) == nil {
			for _, e := range entries {
				var ace AccessEntry
				if json.Unmarshal(e, &ace) == nil {
					r.Aces = append(r.Aces, ace)
				}
			}
		}
	}
	return nil
}

func (a *AccessEntry) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	*a = AccessEntry{}
	a.RightName, _ = stringField(raw, "RightName")
	a.PrincipalSID, _ = stringField(raw, "PrincipalSID")
	a.PrincipalType, _ = stringField(raw, "PrincipalType")
	a.IsInherited, _ = boolField(raw, "IsInherited")
	return nil
}
