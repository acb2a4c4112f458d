package schema

import (
	"fmt"

	"github.com/mbolis/survey-templates/model"
)

// PageSplitNone keeps every question set of a template on one page.
const PageSplitNone = "NONE"

// Section is one question set of a template, already rendered.
type Section struct {
	QuestionSetID int
	Title         string
	Elements      []Element
}

// Compose assembles the sections of a template, in order, into one survey.
func Compose(tmpl model.SurveyTemplateHeader, sections []Section) Survey {
	survey := Survey{Title: tmpl.Name, Description: tmpl.Description}

	var nonEmpty []Section
	for _, s := range sections {
		if len(s.Elements) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		survey.Description = emptyTemplateDescription
		survey.Pages = []Page{{Name: "page1", Elements: []any{}}}
		return survey
	}

	if tmpl.PageSplit == "" || tmpl.PageSplit == PageSplitNone {
		page := Page{Name: "page1", Elements: make([]any, len(nonEmpty))}
		for i, s := range nonEmpty {
			page.Elements[i] = Panel{
				Type:     "panel",
				Name:     fmt.Sprintf("questionSet%d", s.QuestionSetID),
				Title:    s.Title,
				Elements: s.Elements,
			}
		}
		survey.Pages = []Page{page}
		return survey
	}

	survey.Pages = make([]Page, len(nonEmpty))
	for i, s := range nonEmpty {
		page := Page{
			Name:     fmt.Sprintf("page%d", i+1),
			Title:    s.Title,
			Elements: make([]any, len(s.Elements)),
		}
		for j, e := range s.Elements {
			page.Elements[j] = e
		}
		survey.Pages[i] = page
	}
	return survey
}
