package model

import "encoding/json"

// Unknown is the placeholder used wherever a collection record omits a
// name, type or principal field.
const Unknown = "Unknown"

// Document is one JSON file from a collection bundle, e.g. users.json.
type Document struct {
	Name string            `json:"-"`
	Meta DocumentMeta      `json:"meta"`
	Data []json.RawMessage `json:"data"`
}

// DocumentMeta carries the document-level object type ("users", "computers", ...).
type DocumentMeta struct {
	Type string `json:"type"`
}

// DefaultType is the type assigned to records that do not declare their own.
func (d Document) DefaultType() string {
	if d.Meta.Type == "" {
		return Unknown
	}
	return d.Meta.Type
}

// Record is the raw shape of one entry in a document's data array.
type Record struct {
	ObjectIdentifier string        `json:"ObjectIdentifier"`
	Type             string        `json:"type"`
	Properties       Properties    `json:"Properties"`
	Aces             []AccessEntry `json:"Aces"`
}

// AccessEntry is a single ACE attached to an object: PrincipalSID holds
// RightName over the object that carries the entry.
type AccessEntry struct {
	RightName     string `json:"RightName"`
	PrincipalSID  string `json:"PrincipalSID"`
	PrincipalType string `json:"PrincipalType"`
	IsInherited   bool   `json:"IsInherited"`
}

// Entity is one directory object (user, computer, group, domain, gpo, ou, container).
type Entity struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	Properties Properties    `json:"properties"`
	Aces       []AccessEntry `json:"-"`
}

// Name is the display name, "Unknown" when the record has none.
func (e *Entity) Name() string {
	if v, ok := e.Properties.Name.Get(); ok && v != "" {
		return v
	}
	return Unknown
}

// Edge is one directed privilege relationship extracted from an access entry.
// Source is the object that owns the ACE, Dest is the principal it grants.
type Edge struct {
	SourceID     string `json:"source_id"`
	SourceName   string `json:"source_name"`
	SourceType   string `json:"source_type"`
	Right        string `json:"right"`
	DestID       string `json:"dest_id"`
	DestTypeHint string `json:"dest_type_hint"`
	Inherited    bool   `json:"inherited,omitempty"`
}

// Right names recognized by the edge extractor. Anything else carries no
// actionable privilege semantics and is dropped.
const (
	RightAdminTo             = "AdminTo"
	RightGenericAll          = "GenericAll"
	RightGenericWrite        = "GenericWrite"
	RightWriteOwner          = "WriteOwner"
	RightWriteDacl           = "WriteDacl"
	RightAddMember           = "AddMember"
	RightForceChangePassword = "ForceChangePassword"
	RightAllExtendedRights   = "AllExtendedRights"
	RightMemberOf            = "MemberOf"
	RightAllowedToDelegate   = "AllowedToDelegate"
	RightAllowedToAct        = "AllowedToAct"
	RightHasSession          = "HasSession"
	RightContains            = "Contains"
	RightOwns                = "Owns"
)

var recognizedRights = map[string]struct{}{
	RightAdminTo:             {},
	RightGenericAll:          {},
	RightGenericWrite:        {},
	RightWriteOwner:          {},
	RightWriteDacl:           {},
	RightAddMember:           {},
	RightForceChangePassword: {},
	RightAllExtendedRights:   {},
	RightMemberOf:            {},
	RightAllowedToDelegate:   {},
	RightAllowedToAct:        {},
	RightHasSession:          {},
	RightContains:            {},
	RightOwns:                {},
}

// IsRecognizedRight reports whether right belongs to the extraction vocabulary.
func IsRecognizedRight(right string) bool {
	_, ok := recognizedRights[right]
	return ok
}

// RecognizedRights returns the extraction vocabulary in no particular order.
func RecognizedRights() []string {
	out := make([]string, 0, len(recognizedRights))
	for r := range recognizedRights {
		out = append(out, r)
	}
	return out
}

// Summary is a count-level overview of a triaged bundle.
type Summary struct {
	Documents   int            `json:"documents"`
	Entities    int            `json:"entities"`
	Edges       int            `json:"edges"`
	Suppressed  int            `json:"suppressed"`
	EntityTypes map[string]int `json:"entity_types"`
}
