package notion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"notionsqlite/internal/jsonpath"
)

// SchemaParser converts a raw database document into a Schema.
type SchemaParser struct {
	// Policy controls what happens to property entries without a string
	// "name" or "type": lenient skips them, strict fails.
	Policy Policy
	// Logger receives a debug line for every skipped entry. Nil means no-op.
	Logger *zap.Logger
}

// ParseSchema parses doc with a lenient, silent SchemaParser.
func ParseSchema(doc any) (Schema, error) {
	return SchemaParser{}.Parse(doc)
}

// ParseSchemaJSON decodes b and parses it with a lenient SchemaParser.
func ParseSchemaJSON(b []byte) (Schema, error) {
	doc, err := DecodeDocument(bytes.NewReader(b))
	if err != nil {
		return Schema{}, err
	}
	return ParseSchema(doc)
}

// Parse validates that doc is a "database" object and reads its properties.
func (p SchemaParser) Parse(doc any) (Schema, error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if err := checkObjectKind(doc, "database"); err != nil {
		return Schema{}, err
	}

	raw, ok := jsonpath.Object(doc, jsonpath.Field("properties"))
	if !ok {
		return Schema{}, fmt.Errorf(`%w: it must have a "properties" object`, ErrMalformedSchema)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	props := make([]SchemaProperty, 0, len(raw))
	for _, key := range keys {
		entry := raw[key]
		name, okName := jsonpath.String(entry, jsonpath.Field("name"))
		rawType, okType := jsonpath.String(entry, jsonpath.Field("type"))
		if !okName || !okType {
			if p.Policy == PolicyStrict {
				return Schema{}, fmt.Errorf("%w: property %q lacks a string name or type", ErrMalformedSchema, key)
			}
			log.Debug("skipping schema property without name or type", zap.String("key", key))
			continue
		}
		props = append(props, SchemaProperty{
			Name:    name,
			RawType: rawType,
			Type:    ParsePropertyType(rawType),
		})
	}

	return NewSchema(props...), nil
}

// DecodeDocument reads a single JSON value from r. Numbers are kept as
// json.Number so integer payloads round-trip into Opaque values unchanged.
func DecodeDocument(r io.Reader) (any, error) {
	d := json.NewDecoder(r)
	d.UseNumber()
	var doc any
	if err := d.Decode(&doc); err != nil {
		return nil, fmt.Errorf("notion: decode document: %w", err)
	}
	return doc, nil
}
