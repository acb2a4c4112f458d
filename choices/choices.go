// Package choices normalizes the encoded choice payloads found in source views
// and question rows into ordered (value, text) pairs.
//
// Payloads come in several historical encodings: arrays of {Value, Text}
// objects, arrays of plain labels, key/label maps and bare strings. Anything
// that cannot be read yields an empty list.
package choices

import (
	"encoding/json"
	"errors"
	"io"
	"maps"
	"slices"
	"strings"
)

type Choice struct {
	Value any    `json:"value"`
	Text  string `json:"text"`
}

type shape int

const (
	invalid shape = iota
	arrayOfPairs
	arrayOfStrings
	object
	scalar
)

// payload is a decoded choice document tagged with the shape it was read as.
type payload struct {
	shape   shape
	items   []any
	entries []entry
	text    string
}

type entry struct {
	key   string
	value any
}

var (
	textKeys  = []string{"text", "label"}
	valueKeys = []string{"value"}
)

// Parse never fails: empty, null or malformed input yields an empty slice.
func Parse(raw string) []Choice {
	p := classify(raw)
	switch p.shape {
	case arrayOfPairs:
		return fromPairs(p.items)
	case arrayOfStrings:
		return fromStrings(p.items)
	case object:
		return fromObject(p.entries)
	case scalar:
		return []Choice{{Value: int64(1), Text: p.text}}
	default:
		return []Choice{}
	}
}

// Texts returns the labels of Parse(raw), in order.
func Texts(raw string) []string {
	parsed := Parse(raw)
	texts := make([]string, len(parsed))
	for i, c := range parsed {
		texts[i] = c.Text
	}
	return texts
}

// Has reports whether raw holds at least one choice.
func Has(raw string) bool {
	return len(Parse(raw)) > 0
}

func classify(raw string) payload {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return payload{}
	}

	switch raw[0] {
	case '{':
		entries, err := decodeObject(raw)
		if err != nil {
			return payload{}
		}
		return payload{shape: object, entries: entries}

	case '[':
		var items []any
		if err := decode(raw, &items); err != nil {
			return payload{}
		}
		for _, item := range items {
			if _, ok := textOf(item); ok {
				return payload{shape: arrayOfPairs, items: items}
			}
		}
		return payload{shape: arrayOfStrings, items: items}

	default:
		var v any
		if err := decode(raw, &v); err != nil {
			return payload{}
		}
		if s, ok := v.(string); ok {
			return payload{shape: scalar, text: s}
		}
		return payload{}
	}
}

func fromPairs(items []any) []Choice {
	out := []Choice{}
	for i, item := range items {
		text, ok := textOf(item)
		if !ok {
			continue
		}
		value, ok := lookup(item.(map[string]any), valueKeys)
		switch {
		case ok:
			out = append(out, Choice{Value: normalize(value), Text: text})
		default:
			out = append(out, Choice{Value: int64(i + 1), Text: text})
		}
	}
	return out
}

func fromStrings(items []any) []Choice {
	out := []Choice{}
	for i, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, Choice{Value: int64(i + 1), Text: s})
		}
	}
	return out
}

func fromObject(entries []entry) []Choice {
	out := []Choice{}
	for _, e := range entries {
		if s, ok := e.value.(string); ok {
			out = append(out, Choice{Value: e.key, Text: s})
		}
	}
	return out
}

// textOf returns the non-empty text-like property of an object item.
func textOf(item any) (string, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := lookup(obj, textKeys)
	if !ok {
		return "", false
	}
	text := stringify(v)
	return text, text != ""
}

// lookup finds the first candidate key present in obj, ignoring case. Null
// values count as absent.
func lookup(obj map[string]any, candidates []string) (any, bool) {
	keys := slices.Sorted(maps.Keys(obj))
	for _, candidate := range candidates {
		if v, ok := obj[candidate]; ok && v != nil {
			return v, true
		}
		for _, k := range keys {
			if v := obj[k]; v != nil && strings.EqualFold(k, candidate) {
				return v, true
			}
		}
	}
	return nil, false
}

func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func decode(raw string, dst any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after choice payload")
	}
	return nil
}

// decodeObject reads a JSON object keeping its entries in document order.
func decodeObject(raw string) ([]entry, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var entries []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("object key is not a string")
		}
		var value any
		if err = dec.Decode(&value); err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after choice payload")
	}
	return entries, nil
}
