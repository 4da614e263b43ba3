// Package jsonpath walks generic JSON documents decoded by encoding/json into
// map[string]any / []any trees.
//
// A Path is an ordered list of steps; each step either selects an object
// field or an array element. Traversal never panics: a missing field, an
// out-of-range index, or a step applied to the wrong container type simply
// reports "not found".
package jsonpath

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Step is a single traversal step: a field selector or an index selector.
type Step struct {
	field   string
	index   int
	isIndex bool
}

// Field selects the named member of an object.
func Field(name string) Step { return Step{field: name} }

// Index selects the i-th element of an array.
func Index(i int) Step { return Step{index: i, isIndex: true} }

// String renders the step the way it appears in a Path string.
func (s Step) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.field
}

// Path is an ordered sequence of steps.
type Path []Step

// String renders the path as e.g. "title[0].plain_text".
func (p Path) String() string {
	var sb strings.Builder
	for i, s := range p {
		if !s.isIndex && i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Dig applies steps to root in order and returns the value reached.
// The boolean is false as soon as any step fails to resolve.
func Dig(root any, steps ...Step) (any, bool) {
	cur := root
	for _, s := range steps {
		if s.isIndex {
			arr, ok := cur.([]any)
			if !ok || s.index < 0 || s.index >= len(arr) {
				return nil, false
			}
			cur = arr[s.index]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[s.field]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Dig is Dig(root, p...).
func (p Path) Dig(root any) (any, bool) { return Dig(root, p...) }

// String digs and requires a string leaf.
func String(root any, steps ...Step) (string, bool) {
	v, ok := Dig(root, steps...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool digs and requires a boolean leaf.
func Bool(root any, steps ...Step) (bool, bool) {
	v, ok := Dig(root, steps...)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Float digs and requires a numeric leaf. Both float64 (the encoding/json
// default) and json.Number (Decoder.UseNumber) are accepted.
func Float(root any, steps ...Step) (float64, bool) {
	v, ok := Dig(root, steps...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Object digs and requires an object leaf.
func Object(root any, steps ...Step) (map[string]any, bool) {
	v, ok := Dig(root, steps...)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Array digs and requires an array leaf.
func Array(root any, steps ...Step) ([]any, bool) {
	v, ok := Dig(root, steps...)
	if !ok {
		return nil, false
	}
	a, ok := v.([]any)
	return a, ok
}
