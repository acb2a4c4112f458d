package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-templates/app"
	"github.com/mbolis/survey-templates/fields"
	"github.com/mbolis/survey-templates/httpx"
	"github.com/mbolis/survey-templates/log"
	"github.com/mbolis/survey-templates/model"
	"github.com/mbolis/survey-templates/reconcile"
	"github.com/mbolis/survey-templates/schema"
	"github.com/mbolis/survey-templates/store"
)

var errNoSourceView = errors.New("question set has no source view")

func ListQuestionSets(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sets, err := app.ListQuestionSets(r.Context())
		if err != nil {
			httpx.Error(w, r, "questionsets.list", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"questionSets": sets,
		})
	}
}

func GetQuestionSet(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		qs, err := app.GetQuestionSet(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "questionsets.get", err)
			return
		}

		render.JSON(w, r, qs)
	}
}

func CreateQuestionSet(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := model.QuestionSetHeader{}
		if !decodeBody(w, r, &qs) {
			return
		}
		if err := app.Validate.Struct(qs); err != nil {
			httpx.Error(w, r, "questionsets.create.validate", err)
			return
		}

		qs, err := app.CreateQuestionSet(r.Context(), qs)
		if err != nil {
			httpx.Error(w, r, "questionsets.create", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, qs)
	}
}

func UpdateQuestionSet(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		patch := store.QuestionSetPatch{}
		if !decodeBody(w, r, &patch) {
			return
		}

		qs, err := app.UpdateQuestionSet(r.Context(), id, patch)
		if err != nil {
			httpx.Error(w, r, "questionsets.update", err)
			return
		}

		render.JSON(w, r, qs)
	}
}

func DeleteQuestionSet(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		if err := app.DeleteQuestionSet(r.Context(), id); err != nil {
			httpx.Error(w, r, "questionsets.delete", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		questions, err := app.ListQuestions(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "questionsets.questions.list", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"questions": questions,
		})
	}
}

type configureResponse struct {
	QuestionSet model.QuestionSetHeader `json:"questionSet"`
	reconcile.Result
	Warning string `json:"warning,omitempty"`
}

// ConfigureQuestionSet returns the saved questions of a set merged with the
// fields currently found in its source view, ready to be edited.
func ConfigureQuestionSet(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		qs, persisted, err := loadQuestionSet(r.Context(), app, id)
		if err != nil {
			httpx.Error(w, r, "questionsets.configure", err)
			return
		}

		result, live, warning := reconcileQuestionSet(r.Context(), app, qs, persisted)
		reconcile.Constrain(result.Configs, live)

		render.JSON(w, r, configureResponse{
			QuestionSet: qs,
			Result:      result,
			Warning:     warning,
		})
	}
}

type questionsRequest struct {
	Questions []model.QuestionConfig `json:"questions"`
}

// SaveQuestions persists the enabled, non orphaned configs of an edited list,
// replacing every saved question of the set.
func SaveQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		req := questionsRequest{}
		if !decodeBody(w, r, &req) {
			return
		}

		qs, err := app.GetQuestionSet(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "questionsets.save", err)
			return
		}
		live := liveOptions(r.Context(), app, qs)

		questions := make([]model.QuestionSetQuestion, 0, len(req.Questions))
		fieldNames := map[string]bool{}
		sortOrders := map[int]bool{}
		for _, cfg := range req.Questions {
			if !cfg.IsEnabled || cfg.IsOrphaned {
				continue
			}
			if err := app.Validate.Struct(cfg); err != nil {
				httpx.Error(w, r, "questionsets.save.validate", err)
				return
			}
			if allowed := fields.AllowedDisplayTypes(cfg, live[cfg.FieldName]); !slices.Contains(allowed, cfg.DisplayType) {
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "questionsets.save.validate",
					"display type %q is not allowed for %q (allowed: %v)", cfg.DisplayType, cfg.FieldName, allowed)
				return
			}
			if fieldNames[cfg.FieldName] {
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "questionsets.save.validate", "duplicate field name %q", cfg.FieldName)
				return
			}
			if sortOrders[cfg.SortOrder] {
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "questionsets.save.validate", "duplicate sort order %d", cfg.SortOrder)
				return
			}
			fieldNames[cfg.FieldName] = true
			sortOrders[cfg.SortOrder] = true

			questions = append(questions, cfg.Question(id))
		}
		if len(questions) == 0 {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "questionsets.save.validate", "at least one question must be enabled")
			return
		}

		if err = app.ReplaceQuestions(r.Context(), id, questions); err != nil {
			httpx.Error(w, r, "questionsets.save", err)
			return
		}

		saved, err := app.ListQuestions(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "questionsets.save.reload", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"questions": saved,
		})
	}
}

// QuestionSetSurvey renders the saved configuration of a set, with dropdown
// choices taken from the live source view.
func QuestionSetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		qs, persisted, err := loadQuestionSet(r.Context(), app, id)
		if err != nil {
			httpx.Error(w, r, "questionsets.survey", err)
			return
		}

		result, live, _ := reconcileQuestionSet(r.Context(), app, qs, persisted)
		render.JSON(w, r, schema.Build(qs.Name, qs.Description, result.Configs, live))
	}
}

// PreviewQuestionSetSurvey renders an edited, unsaved configuration.
func PreviewQuestionSetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		req := questionsRequest{}
		if !decodeBody(w, r, &req) {
			return
		}

		qs, err := app.GetQuestionSet(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "questionsets.preview", err)
			return
		}

		live := liveOptions(r.Context(), app, qs)
		render.JSON(w, r, schema.Build(qs.Name, qs.Description, req.Questions, live))
	}
}

// liveOptions reads the options currently exposed by the source view of qs.
// A view that cannot be read yields no live options.
func liveOptions(ctx context.Context, app app.App, qs model.QuestionSetHeader) map[string]string {
	if qs.SourceViewName == "" {
		return nil
	}
	source, err := app.SourceFields(ctx, qs.SourceViewName)
	if err != nil {
		log.Warnf("questionsets.source: question set %d: %s", qs.ID, err)
		return nil
	}
	return reconcile.LiveOptions(source)
}

func loadQuestionSet(ctx context.Context, app app.App, id int) (model.QuestionSetHeader, []model.QuestionSetQuestion, error) {
	qs, err := app.GetQuestionSet(ctx, id)
	if err != nil {
		return qs, nil, err
	}
	persisted, err := app.ListQuestions(ctx, id)
	if err != nil {
		return qs, nil, err
	}
	return qs, persisted, nil
}

// reconcileQuestionSet merges the saved questions of qs with its source view.
// A view that cannot be read yields a degraded result and a warning for the
// operator, never an error.
func reconcileQuestionSet(ctx context.Context, app app.App, qs model.QuestionSetHeader, persisted []model.QuestionSetQuestion) (reconcile.Result, map[string]string, string) {
	var (
		source []model.SourceField
		err    = errNoSourceView
	)
	if qs.SourceViewName != "" {
		source, err = app.SourceFields(ctx, qs.SourceViewName)
	}

	result := reconcile.Merge(persisted, source, err)
	if err != nil {
		log.Warnf("reconcile.source: question set %d: %s", qs.ID, err)
		warning := fmt.Sprintf("Source view %q could not be read: showing the saved configuration only.", qs.SourceViewName)
		if errors.Is(err, errNoSourceView) {
			warning = "No source view is configured: showing the saved configuration only."
		}
		return result, nil, warning
	}
	return result, reconcile.LiveOptions(source), ""
}
