// Package schema turns question configurations into the page/element JSON
// consumed by SurveyJS-style form renderers.
package schema

import (
	"fmt"
	"slices"

	"github.com/mbolis/survey-templates/choices"
	"github.com/mbolis/survey-templates/model"
)

const (
	emptySetDescription      = "No enabled questions are configured for this question set."
	emptyTemplateDescription = "No question set of this survey has questions to display."
)

type Survey struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Pages       []Page `json:"pages"`
}

type Page struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Elements []any  `json:"elements"`
}

type Panel struct {
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	Title    string    `json:"title,omitempty"`
	Elements []Element `json:"elements"`
}

// Element is a single question. ReadOnly is only ever encoded when set.
type Element struct {
	Type               string           `json:"type"`
	Name               string           `json:"name"`
	Title              string           `json:"title"`
	IsRequired         bool             `json:"isRequired"`
	ReadOnly           bool             `json:"readOnly,omitempty"`
	InputType          string           `json:"inputType,omitempty"`
	Min                *float64         `json:"min,omitempty"`
	Max                *float64         `json:"max,omitempty"`
	MinValueExpression string           `json:"minValueExpression,omitempty"`
	Choices            []choices.Choice `json:"choices,omitempty"`
	ColCount           *int             `json:"colCount,omitempty"`
	Placeholder        string           `json:"placeholder,omitempty"`
	Description        string           `json:"description,omitempty"`
}

// Renderable reports whether cfg takes part in the rendered survey.
func Renderable(cfg model.QuestionConfig) bool {
	return cfg.IsEnabled && cfg.IsVisible && !cfg.IsOrphaned
}

// Build renders one question set as a single page survey. live maps field
// names to the options payload currently found in the source view.
func Build(title, description string, configs []model.QuestionConfig, live map[string]string) Survey {
	elements := Elements(configs, live)
	if len(elements) == 0 {
		return Survey{
			Title:       title,
			Description: emptySetDescription,
			Pages:       []Page{{Name: "page1", Elements: []any{}}},
		}
	}

	page := Page{Name: "page1", Elements: make([]any, len(elements))}
	for i, e := range elements {
		page.Elements[i] = e
	}
	return Survey{Title: title, Description: description, Pages: []Page{page}}
}

// Elements renders the renderable configs in sort order.
func Elements(configs []model.QuestionConfig, live map[string]string) []Element {
	selected := make([]model.QuestionConfig, 0, len(configs))
	for _, cfg := range configs {
		if Renderable(cfg) {
			selected = append(selected, cfg)
		}
	}
	slices.SortStableFunc(selected, func(a, b model.QuestionConfig) int {
		return a.SortOrder - b.SortOrder
	})

	elements := make([]Element, len(selected))
	for i, cfg := range selected {
		elements[i] = element(cfg, live[cfg.FieldName])
	}
	return elements
}

func element(cfg model.QuestionConfig, liveOptions string) Element {
	e := Element{
		Name:        cfg.FieldName,
		Title:       title(cfg),
		IsRequired:  cfg.IsRequired,
		ReadOnly:    cfg.IsReadOnly,
		Placeholder: cfg.Placeholder,
		Description: cfg.Description,
	}

	switch cfg.DisplayType {
	case model.DisplayTextarea:
		e.Type = "comment"

	case model.DisplayNumber:
		e.Type = "text"
		e.InputType = "number"
		e.Min = cfg.MinValue
		e.Max = cfg.MaxValue

	case model.DisplayDate:
		e.Type = "text"
		e.InputType = "date"
		if cfg.MinIsCurrent {
			e.MinValueExpression = "today()"
		}

	case model.DisplayDropdown:
		e.Type = "dropdown"
		e.Choices = choices.Parse(liveOptions)
		if len(e.Choices) == 0 {
			e.Choices = choices.Parse(cfg.Options)
		}
		if len(e.Choices) == 0 {
			e.Description = appendNote(e.Description, fmt.Sprintf("[no choices resolved for %s]", cfg.FieldName))
		}

	case model.DisplayRadio:
		e.Type = "radiogroup"
		e.Choices = choices.Parse(cfg.Options)
		e.ColCount = cfg.ColCount

	case model.DisplayCheckbox:
		e.Type = "checkbox"
		e.Choices = choices.Parse(cfg.Options)

	default:
		e.Type = "text"
	}
	return e
}

func title(cfg model.QuestionConfig) string {
	switch {
	case cfg.SurveyLabel != "":
		return cfg.SurveyLabel
	case cfg.AttributeLabel != "":
		return cfg.AttributeLabel
	default:
		return cfg.FieldName
	}
}

func appendNote(description, note string) string {
	if description == "" {
		return note
	}
	return description + " " + note
}
