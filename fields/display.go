package fields

import (
	"slices"
	"strings"

	"github.com/mbolis/survey-templates/model"
)

type rule struct {
	name   string
	match  func(stem string, hasOptions bool) bool
	result model.DisplayType
}

func stemContains(words ...string) func(string, bool) bool {
	return func(stem string, _ bool) bool {
		for _, w := range words {
			if strings.Contains(stem, w) {
				return true
			}
		}
		return false
	}
}

// displayRules are evaluated in order; the first match wins.
var displayRules = []rule{
	{"lookup", func(_ string, hasOptions bool) bool { return hasOptions }, model.DisplayDropdown},
	{"date", stemContains("date"), model.DisplayDate},
	{"long text", stemContains("text", "comment", "note"), model.DisplayTextarea},
	{"numeric", stemContains("number", "num", "count"), model.DisplayNumber},
	{"flag", stemContains("check", "bool", "flag"), model.DisplayCheckbox},
	{"fallback", func(string, bool) bool { return true }, model.DisplayText},
}

// Stem strips trailing digits from a field name and lowercases it, so that
// Date01 and Date02 both read as "date".
func Stem(fieldName string) string {
	return strings.ToLower(strings.TrimRight(fieldName, "0123456789"))
}

func InferDisplayType(fieldName string, hasOptions bool) model.DisplayType {
	stem := Stem(fieldName)
	for _, r := range displayRules {
		if r.match(stem, hasOptions) {
			return r.result
		}
	}
	return model.DisplayText
}

func IsDateField(fieldName string) bool {
	return strings.Contains(Stem(fieldName), "date")
}

var (
	dateTypes   = []model.DisplayType{model.DisplayDate}
	choiceTypes = []model.DisplayType{model.DisplayDropdown, model.DisplayRadio, model.DisplayCheckbox}
	plainTypes  = []model.DisplayType{model.DisplayText, model.DisplayTextarea, model.DisplayNumber, model.DisplayDate}
)

// AllowedDisplayTypes returns the display types an operator may pick for cfg.
// liveOptions is the options payload of the matching source field, if any.
func AllowedDisplayTypes(cfg model.QuestionConfig, liveOptions string) []model.DisplayType {
	switch {
	case IsDateField(cfg.FieldName):
		return slices.Clone(dateTypes)
	case HasOptions(cfg.Options) || HasOptions(liveOptions):
		return slices.Clone(choiceTypes)
	default:
		return slices.Clone(plainTypes)
	}
}

// Constrain fills in cfg.DisplayTypes and makes sure the selected display type
// is one of them, falling back to the first allowed type.
func Constrain(cfg *model.QuestionConfig, liveOptions string) {
	allowed := AllowedDisplayTypes(*cfg, liveOptions)
	cfg.DisplayTypes = allowed
	if !slices.Contains(allowed, cfg.DisplayType) {
		cfg.DisplayType = allowed[0]
	}
}
