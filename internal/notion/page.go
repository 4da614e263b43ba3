package notion

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	jp "notionsqlite/internal/jsonpath"
)

var (
	titlePath  = jp.Path{jp.Field("title"), jp.Index(0), jp.Field("plain_text")}
	selectPath = jp.Path{jp.Field("select"), jp.Field("name")}
	numberPath = jp.Path{jp.Field("number")}
	checkPath  = jp.Path{jp.Field("checkbox")}
)

// Page is one mapped page of a paginated query.
type Page struct {
	Records    []Record
	NextCursor Cursor
	// HasMore mirrors the "has_more" flag. It is informational only;
	// NextCursor alone decides whether pagination continues.
	HasMore bool
}

// Stats counts what a Mapper has seen since it was created.
type Stats struct {
	Items             int
	DroppedItems      int
	DroppedProperties int
}

// Mapper converts raw page items into Records for a fixed Schema.
// A Mapper is not safe for concurrent use.
type Mapper struct {
	schema Schema
	policy Policy
	log    *zap.Logger
	stats  Stats
}

// NewMapper returns a Mapper for schema. A nil logger is replaced by a no-op.
func NewMapper(schema Schema, policy Policy, log *zap.Logger) *Mapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{schema: schema, policy: policy, log: log}
}

// Stats returns the running counters.
func (m *Mapper) Stats() Stats { return m.stats }

// Schema returns the schema the mapper was built with.
func (m *Mapper) Schema() Schema { return m.schema }

// MapPage validates a "list" document and maps its results. Under the
// lenient policy items and properties that cannot be read are dropped;
// under the strict policy the first one aborts the page.
func (m *Mapper) MapPage(doc any) (Page, error) {
	if err := checkObjectKind(doc, "list"); err != nil {
		return Page{}, err
	}

	results, ok := jp.Array(doc, jp.Field("results"))
	if !ok {
		return Page{}, fmt.Errorf(`%w: it must have "results" as an array of objects`, ErrMalformedPage)
	}

	page := Page{Records: make([]Record, 0, len(results))}
	if next, ok := jp.String(doc, jp.Field("next_cursor")); ok {
		page.NextCursor = Cursor(next)
	}
	page.HasMore, _ = jp.Bool(doc, jp.Field("has_more"))

	for i, item := range results {
		var (
			rec Record
			err error
		)
		if _, ok := item.(map[string]any); ok {
			rec, err = m.MapItem(item)
		} else {
			m.stats.Items++
			err = fmt.Errorf("%w: result is not an object", ErrItemRejected)
		}
		if err != nil {
			if m.policy == PolicyStrict {
				return Page{}, fmt.Errorf("results[%d]: %w", i, err)
			}
			m.stats.DroppedItems++
			m.log.Debug("dropping page item", zap.Int("index", i), zap.Error(err))
			continue
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

// MapItem maps one page object. A missing required field yields an error
// wrapping ErrItemRejected. Under the strict policy an unreadable property
// yields an error wrapping ErrPropertyUnreadable; otherwise it is omitted
// from Record.Properties.
func (m *Mapper) MapItem(item any) (Record, error) {
	m.stats.Items++

	var rec Record
	var ok bool
	if rec.ID, ok = jp.String(item, jp.Field("id")); !ok {
		return Record{}, rejected("id")
	}
	if rec.URL, ok = jp.String(item, jp.Field("url")); !ok {
		return Record{}, rejected("url")
	}
	if rec.CreatedTime, ok = jp.String(item, jp.Field("created_time")); !ok {
		return Record{}, rejected("created_time")
	}
	if rec.CreatedBy, ok = rawField(item, "created_by"); !ok {
		return Record{}, rejected("created_by")
	}
	if rec.LastEditedTime, ok = jp.String(item, jp.Field("last_edited_time")); !ok {
		return Record{}, rejected("last_edited_time")
	}
	if rec.LastEditedBy, ok = rawField(item, "last_edited_by"); !ok {
		return Record{}, rejected("last_edited_by")
	}
	if rec.Archived, ok = jp.Bool(item, jp.Field("archived")); !ok {
		return Record{}, rejected("archived")
	}
	rawProps, ok := jp.Object(item, jp.Field("properties"))
	if !ok {
		return Record{}, rejected("properties")
	}

	names := make([]string, 0, len(rawProps))
	for n := range rawProps {
		names = append(names, n)
	}
	sort.Strings(names)

	rec.Properties = make(map[string]Value, len(rawProps))
	for _, name := range names {
		prop, known := m.schema.Lookup(name)
		if !known {
			continue
		}
		v, err := extractValue(prop, rawProps[name])
		if err != nil {
			if m.policy == PolicyStrict {
				return Record{}, fmt.Errorf("page %s: %w", rec.ID, err)
			}
			m.stats.DroppedProperties++
			m.log.Debug("dropping property", zap.String("page_id", rec.ID), zap.Error(err))
			continue
		}
		rec.Properties[name] = v
	}
	return rec, nil
}

// extractValue dispatches on the declared property type.
func extractValue(prop SchemaProperty, raw any) (Value, error) {
	unreadable := func(p jp.Path) error {
		return fmt.Errorf("%w: %q (%s) at %s", ErrPropertyUnreadable, prop.Name, prop.RawType, p)
	}

	switch prop.Type {
	case PropertyTitle:
		s, ok := jp.String(raw, titlePath...)
		if !ok {
			return Value{}, unreadable(titlePath)
		}
		return Text(s), nil

	case PropertySelect:
		s, ok := jp.String(raw, selectPath...)
		if !ok {
			return Value{}, unreadable(selectPath)
		}
		return Text(s), nil

	case PropertyNumber:
		f, ok := jp.Float(raw, numberPath...)
		if !ok {
			return Value{}, unreadable(numberPath)
		}
		return Number(f), nil

	case PropertyCheckbox:
		b, ok := jp.Bool(raw, checkPath...)
		if !ok {
			return Value{}, unreadable(checkPath)
		}
		return Boolean(b), nil

	case PropertyURL, PropertyEmail, PropertyPhoneNumber, PropertyCreatedTime, PropertyLastEditedTime:
		p := jp.Path{jp.Field(prop.RawType)}
		s, ok := jp.String(raw, p...)
		if !ok {
			return Value{}, unreadable(p)
		}
		return Text(s), nil

	case PropertyRichText, PropertyMultiSelect, PropertyDate, PropertyFormula, PropertyRelation,
		PropertyRollup, PropertyPeople, PropertyFiles, PropertyCreatedBy, PropertyLastEditedBy:
		v, err := OpaqueOf(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q: %v", ErrPropertyUnreadable, prop.Name, err)
		}
		return v, nil

	case PropertyOther:
		p := jp.Path{jp.Field(prop.RawType)}
		sub, ok := p.Dig(raw)
		if !ok {
			return Value{}, unreadable(p)
		}
		v, err := OpaqueOf(sub)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q: %v", ErrPropertyUnreadable, prop.Name, err)
		}
		return v, nil
	}
	return Value{}, fmt.Errorf("%w: %q has unhandled type %d", ErrPropertyUnreadable, prop.Name, prop.Type)
}

func rejected(field string) error {
	return fmt.Errorf("%w: missing or invalid %q", ErrItemRejected, field)
}

func rawField(item any, field string) (json.RawMessage, bool) {
	v, ok := jp.Dig(item, jp.Field(field))
	if !ok {
		return nil, false
	}
	b, err := encodeJSON(v)
	if err != nil {
		return nil, false
	}
	return b, true
}
