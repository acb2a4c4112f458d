package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-templates/app"
	"github.com/mbolis/survey-templates/httpx"
	"github.com/mbolis/survey-templates/log"
	"github.com/mbolis/survey-templates/model"
	"github.com/mbolis/survey-templates/schema"
)

type surveyRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	EntityType  string `json:"entityType"`
	PageSplit   string `json:"pageSplit"`
	IsActive    *bool  `json:"isActive"`
}

func (req surveyRequest) header(id int, active bool) model.SurveyTemplateHeader {
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return model.SurveyTemplateHeader{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		EntityType:  req.EntityType,
		PageSplit:   req.PageSplit,
		IsActive:    active,
	}
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := surveyRequest{}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := app.Validate.Struct(req); err != nil {
			httpx.Error(w, r, "surveys.create.validate", err)
			return
		}

		tmpl, err := app.CreateTemplate(r.Context(), req.header(0, true))
		if err != nil {
			httpx.Error(w, r, "surveys.create", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, tmpl)
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := app.ListTemplates(r.Context())
		if err != nil {
			httpx.Error(w, r, "surveys.list", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": templates,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		tmpl, err := app.GetTemplate(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "surveys.get", err)
			return
		}

		render.JSON(w, r, tmpl)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		req := surveyRequest{}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := app.Validate.Struct(req); err != nil {
			httpx.Error(w, r, "surveys.update.validate", err)
			return
		}

		current, err := app.GetTemplate(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "surveys.update", err)
			return
		}

		tmpl, err := app.UpdateTemplate(r.Context(), req.header(id, current.IsActive))
		if err != nil {
			httpx.Error(w, r, "surveys.update", err)
			return
		}

		render.JSON(w, r, tmpl)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		if err := app.DeleteTemplate(r.Context(), id); err != nil {
			httpx.Error(w, r, "surveys.delete", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListSurveyQuestionSets(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		links, err := app.ListLinks(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "surveys.questionsets.list", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"questionSets": links,
		})
	}
}

func ListAvailableQuestionSets(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		sets, err := app.AvailableQuestionSets(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "surveys.questionsets.available", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"questionSets": sets,
		})
	}
}

type addLinkRequest struct {
	QuestionSetHeaderID int `json:"questionSetHeaderId" validate:"required"`
}

func AddSurveyQuestionSet(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		req := addLinkRequest{}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := app.Validate.Struct(req); err != nil {
			httpx.Error(w, r, "surveys.questionsets.add.validate", err)
			return
		}

		link, err := app.AddLink(r.Context(), id, req.QuestionSetHeaderID)
		if err != nil {
			httpx.Error(w, r, "surveys.questionsets.add", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, link)
	}
}

func RemoveSurveyQuestionSet(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		linkID, ok := urlID(w, r, "linkId")
		if !ok {
			return
		}

		if err := app.RemoveLink(r.Context(), id, linkID); err != nil {
			httpx.Error(w, r, "surveys.questionsets.remove", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type reorderRequest struct {
	LinkIDs []int `json:"linkIds"`
}

func ReorderSurveyQuestionSets(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		req := reorderRequest{}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := app.ReorderLinks(r.Context(), id, req.LinkIDs); err != nil {
			httpx.Error(w, r, "surveys.questionsets.reorder", err)
			return
		}

		links, err := app.ListLinks(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "surveys.questionsets.reorder.reload", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"questionSets": links,
		})
	}
}

// SurveySchema renders a whole template: each actively linked question set is
// reconciled against its source view and composed in link order.
func SurveySchema(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		tmpl, err := app.GetTemplate(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "surveys.survey", err)
			return
		}
		links, err := app.ListLinks(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "surveys.survey.links", err)
			return
		}

		sections := make([]schema.Section, 0, len(links))
		for _, link := range links {
			if !link.IsActive || link.QuestionSetHeader == nil {
				continue
			}
			qs := *link.QuestionSetHeader

			persisted, err := app.ListQuestions(r.Context(), qs.ID)
			if err != nil {
				httpx.Error(w, r, "surveys.survey.questions", err)
				return
			}
			result, live, warning := reconcileQuestionSet(r.Context(), app, qs, persisted)
			if warning != "" {
				log.Debugf("surveys.survey: survey %d: %s", id, warning)
			}

			sections = append(sections, schema.Section{
				QuestionSetID: qs.ID,
				Title:         qs.Name,
				Elements:      schema.Elements(result.Configs, live),
			})
		}

		render.JSON(w, r, schema.Compose(tmpl, sections))
	}
}
