// Package fields derives default question configurations from source view
// rows using the naming conventions of the views.
package fields

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mbolis/survey-templates/model"
)

var (
	LabelKeys       = []string{"Label", "label"}
	FieldNameKeys   = []string{"fieldName", "FieldName", "field_name"}
	OptionsKeys     = []string{"options", "Options"}
	DescriptionKeys = []string{"description", "Description"}
)

// Lookup returns the value of the first candidate key present in row. Exact
// matches are tried before case-insensitive ones; null and empty values count
// as absent.
func Lookup(row model.Row, candidates ...string) (string, bool) {
	for _, key := range candidates {
		if v, ok := row[key]; ok && !v.IsBlank() {
			return v.String(), true
		}
	}
	keys := slices.Sorted(maps.Keys(row))
	for _, key := range candidates {
		for _, k := range keys {
			if v := row[k]; strings.EqualFold(k, key) && !v.IsBlank() {
				return v.String(), true
			}
		}
	}
	return "", false
}

// Extract reads the field identity of the row found at the zero based
// position of a source view fetch.
func Extract(row model.Row, position int) model.SourceField {
	label, ok := Lookup(row, LabelKeys...)
	if !ok {
		label = fmt.Sprintf("Label_%d", position+1)
	}
	name, ok := Lookup(row, FieldNameKeys...)
	if !ok {
		name = label
	}
	options, _ := Lookup(row, OptionsKeys...)
	description, _ := Lookup(row, DescriptionKeys...)

	return model.SourceField{
		FieldName:   name,
		Label:       label,
		Options:     options,
		Description: description,
		Position:    position,
		Row:         row,
	}
}

// ExtractAll extracts every row of a fetch in order.
func ExtractAll(rows []model.Row) []model.SourceField {
	out := make([]model.SourceField, len(rows))
	for i, row := range rows {
		out[i] = Extract(row, i)
	}
	return out
}

// Infer builds the default configuration of a source field.
func Infer(f model.SourceField) model.QuestionConfig {
	return model.QuestionConfig{
		FieldName:      f.FieldName,
		AttributeLabel: f.Label,
		SurveyLabel:    f.Label,
		DisplayType:    InferDisplayType(f.FieldName, HasOptions(f.Options)),
		Options:        f.Options,
		Description:    f.Description,
		Placeholder:    "Enter " + strings.ToLower(f.Label),
		IsVisible:      true,
		SortOrder:      f.Position + 1,
		IsEnabled:      true,
	}
}

// InferRow is Infer(Extract(row, position)).
func InferRow(row model.Row, position int) model.QuestionConfig {
	return Infer(Extract(row, position))
}

func HasOptions(options string) bool {
	return strings.TrimSpace(options) != ""
}
