// Package notion maps Notion database documents into typed records.
//
// The package is transport-agnostic: it consumes generic JSON documents
// (map[string]any trees decoded by encoding/json) and never performs I/O
// itself. Paginated retrieval is driven through an injected FetchFunc so the
// pipeline can run against the real API or an in-memory fake.
package notion

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// PropertyType is the closed set of property kinds the mapper understands.
// Any raw type tag outside the known set maps to PropertyOther.
type PropertyType int

const (
	PropertyOther PropertyType = iota
	PropertyTitle
	PropertyRichText
	PropertyNumber
	PropertySelect
	PropertyMultiSelect
	PropertyDate
	PropertyFormula
	PropertyRelation
	PropertyRollup
	PropertyPeople
	PropertyFiles
	PropertyCheckbox
	PropertyURL
	PropertyEmail
	PropertyPhoneNumber
	PropertyCreatedTime
	PropertyCreatedBy
	PropertyLastEditedTime
	PropertyLastEditedBy
)

var rawPropertyTypes = map[string]PropertyType{
	"title":            PropertyTitle,
	"rich_text":        PropertyRichText,
	"number":           PropertyNumber,
	"select":           PropertySelect,
	"multi_select":     PropertyMultiSelect,
	"date":             PropertyDate,
	"formula":          PropertyFormula,
	"relation":         PropertyRelation,
	"rollup":           PropertyRollup,
	"people":           PropertyPeople,
	"files":            PropertyFiles,
	"checkbox":         PropertyCheckbox,
	"url":              PropertyURL,
	"email":            PropertyEmail,
	"phone_number":     PropertyPhoneNumber,
	"created_time":     PropertyCreatedTime,
	"created_by":       PropertyCreatedBy,
	"last_edited_time": PropertyLastEditedTime,
	"last_edited_by":   PropertyLastEditedBy,
}

// ParsePropertyType maps a raw Notion type tag to a PropertyType.
func ParsePropertyType(raw string) PropertyType {
	if t, ok := rawPropertyTypes[raw]; ok {
		return t
	}
	return PropertyOther
}

func (t PropertyType) String() string {
	for raw, pt := range rawPropertyTypes {
		if pt == t {
			return raw
		}
	}
	return "other"
}

// SchemaProperty is one column of a Notion database.
//
// RawType is kept verbatim because PropertyOther values are extracted by
// using the raw tag as the lookup key inside the property payload.
type SchemaProperty struct {
	Name    string
	RawType string
	Type    PropertyType
}

// Schema is the set of properties of a database keyed by name. It is
// immutable once built.
type Schema struct {
	props map[string]SchemaProperty
}

// NewSchema builds a Schema from the given properties. A later property with
// the same name replaces an earlier one.
func NewSchema(props ...SchemaProperty) Schema {
	m := make(map[string]SchemaProperty, len(props))
	for _, p := range props {
		m[p.Name] = p
	}
	return Schema{props: m}
}

// Lookup returns the property with the given name.
func (s Schema) Lookup(name string) (SchemaProperty, bool) {
	p, ok := s.props[name]
	return p, ok
}

// Len returns the number of properties.
func (s Schema) Len() int { return len(s.props) }

// SortedNames returns property names in ascending order. Storage uses this
// order for both DDL and inserts.
func (s Schema) SortedNames() []string {
	names := make([]string, 0, len(s.props))
	for n := range s.props {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Properties returns the properties ordered by name.
func (s Schema) Properties() []SchemaProperty {
	out := make([]SchemaProperty, 0, len(s.props))
	for _, n := range s.SortedNames() {
		out = append(out, s.props[n])
	}
	return out
}

// ValueKind discriminates the Value variants.
type ValueKind int

const (
	KindText ValueKind = iota + 1
	KindNumber
	KindBoolean
	KindOpaque
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindOpaque:
		return "opaque"
	}
	return "invalid"
}

// Value is a mapped property value: Text, Number, Boolean, or an Opaque raw
// JSON fragment for kinds too open-ended to flatten.
type Value struct {
	kind ValueKind
	text string
	num  float64
	b    bool
	raw  json.RawMessage
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Opaque returns a value holding the given JSON fragment verbatim.
func Opaque(raw json.RawMessage) Value { return Value{kind: KindOpaque, raw: raw} }

// OpaqueOf encodes v as compact JSON and wraps it as an Opaque value.
// '<', '>' and '&' are written as-is, not as \u escapes.
func OpaqueOf(v any) (Value, error) {
	b, err := encodeJSON(v)
	if err != nil {
		return Value{}, err
	}
	return Opaque(b), nil
}

// encodeJSON is json.Marshal without HTML escaping.
func encodeJSON(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Kind reports the variant.
func (v Value) Kind() ValueKind { return v.kind }

// AsText returns the string of a Text value.
func (v Value) AsText() (string, bool) { return v.text, v.kind == KindText }

// AsNumber returns the float of a Number value.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the bool of a Boolean value.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBoolean }

// Raw returns the JSON fragment of an Opaque value.
func (v Value) Raw() (json.RawMessage, bool) { return v.raw, v.kind == KindOpaque }

// SQLValue returns the value as a database/sql driver argument. Opaque
// values are passed as their JSON text.
func (v Value) SQLValue() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.b
	case KindOpaque:
		return string(v.raw)
	}
	return nil
}

// Equal reports whether two values have the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	case KindBoolean:
		return v.b == o.b
	case KindOpaque:
		return string(v.raw) == string(o.raw)
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return strconv.Quote(v.text)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindOpaque:
		return string(v.raw)
	}
	return "<invalid>"
}

// Record is one Notion page mapped against a Schema.
type Record struct {
	ID             string
	Properties     map[string]Value
	URL            string
	CreatedTime    string
	CreatedBy      json.RawMessage
	LastEditedTime string
	LastEditedBy   json.RawMessage
	Archived       bool
}

// Cursor is a pagination continuation token. The zero value means "no
// cursor": the first request, or the end of the result set.
type Cursor string

// IsZero reports whether the cursor is absent.
func (c Cursor) IsZero() bool { return c == "" }

// Policy selects how the mapper treats unreadable items and properties.
type Policy int

const (
	// PolicyLenient drops unreadable items and properties and carries on.
	PolicyLenient Policy = iota
	// PolicyStrict turns any dropped item or property into an error.
	PolicyStrict
)

func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "lenient"
}
