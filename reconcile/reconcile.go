// Package reconcile merges the saved questions of a question set with the
// fields currently exposed by its source view.
package reconcile

import (
	"slices"

	"github.com/mbolis/survey-templates/fields"
	"github.com/mbolis/survey-templates/model"
)

type Result struct {
	Configs []model.QuestionConfig `json:"questions"`
	// Degraded is set when the source view could not be read. Saved questions
	// are then returned as they are, and nothing is reported as orphaned.
	Degraded bool `json:"degraded"`
}

// Merge reconciles persisted against source. sourceErr is the error of the
// source view fetch, if any; a failed fetch is not treated as an empty view.
func Merge(persisted []model.QuestionSetQuestion, source []model.SourceField, sourceErr error) Result {
	if sourceErr != nil {
		return Result{Configs: degraded(persisted), Degraded: true}
	}

	live := make(map[string]model.SourceField, len(source))
	for _, f := range source {
		if _, dup := live[f.FieldName]; !dup {
			live[f.FieldName] = f
		}
	}

	configs := make([]model.QuestionConfig, 0, len(persisted)+len(source))
	saved := make(map[string]bool, len(persisted))
	maxSort := 0
	for _, q := range persisted {
		if saved[q.FieldName] {
			continue
		}
		saved[q.FieldName] = true
		maxSort = max(maxSort, q.SortOrder)

		cfg := model.ConfigFromQuestion(q)
		f, found := live[q.FieldName]
		cfg.IsOrphaned = !found
		cfg.IsEnabled = found
		// dropdown choices always come from the view; radio and checkbox
		// questions may carry their own when the view has none
		if found && (fields.HasOptions(f.Options) || cfg.DisplayType == model.DisplayDropdown) {
			cfg.Options = f.Options
		}
		configs = append(configs, cfg)
	}

	next := maxSort
	added := make(map[string]bool)
	for _, f := range source {
		if saved[f.FieldName] || added[f.FieldName] {
			continue
		}
		added[f.FieldName] = true
		next++

		cfg := fields.Infer(f)
		cfg.IsEnabled = false
		cfg.IsNewlyAdded = true
		cfg.SortOrder = next
		configs = append(configs, cfg)
	}

	Sort(configs)
	return Result{Configs: configs}
}

// Sort orders configs by sort order, with orphans after everything else.
func Sort(configs []model.QuestionConfig) {
	slices.SortStableFunc(configs, func(a, b model.QuestionConfig) int {
		if a.IsOrphaned != b.IsOrphaned {
			if a.IsOrphaned {
				return 1
			}
			return -1
		}
		return a.SortOrder - b.SortOrder
	})
}

func degraded(persisted []model.QuestionSetQuestion) []model.QuestionConfig {
	configs := make([]model.QuestionConfig, 0, len(persisted))
	for _, q := range persisted {
		cfg := model.ConfigFromQuestion(q)
		cfg.IsEnabled = true
		configs = append(configs, cfg)
	}
	Sort(configs)
	return configs
}

// LiveOptions indexes the options payload of every source field by name.
func LiveOptions(source []model.SourceField) map[string]string {
	out := make(map[string]string, len(source))
	for _, f := range source {
		if _, dup := out[f.FieldName]; !dup && fields.HasOptions(f.Options) {
			out[f.FieldName] = f.Options
		}
	}
	return out
}

// Constrain computes the allowed display types of every config.
func Constrain(configs []model.QuestionConfig, live map[string]string) {
	for i := range configs {
		fields.Constrain(&configs[i], live[configs[i].FieldName])
	}
}
