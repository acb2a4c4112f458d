package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbolis/survey-templates/app"
	"github.com/mbolis/survey-templates/httpx"
	"github.com/mbolis/survey-templates/log"
	"github.com/mbolis/survey-templates/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer, middlewares.Metrics)
	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.LogNotFound(w, r, "request.route", r.URL.Path)
	})

	root.Mount("/api", apiRouter(app))
	root.Get("/health", Health(app))
	if app.Metrics.Enabled {
		root.Method(http.MethodGet, app.Metrics.Path, promhttp.Handler())
	}

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/views", ListViews(app))
	api.Get(`/views/{name}/rows`, GetViewRows(app))
	api.Get(`/views/{name}/columns`, GetViewColumns(app))

	api.Route("/questionsets", func(r chi.Router) {
		r.Get("/", ListQuestionSets(app))
		r.Post("/", CreateQuestionSet(app))
		r.Get(`/{id:^\d+$}`, GetQuestionSet(app))
		r.Put(`/{id:^\d+$}`, UpdateQuestionSet(app))
		r.Delete(`/{id:^\d+$}`, DeleteQuestionSet(app))

		r.Get(`/{id:^\d+$}/questions`, ListQuestions(app))
		r.Put(`/{id:^\d+$}/questions`, SaveQuestions(app))
		r.Get(`/{id:^\d+$}/configure`, ConfigureQuestionSet(app))
		r.Get(`/{id:^\d+$}/survey`, QuestionSetSurvey(app))
		r.Post(`/{id:^\d+$}/survey/preview`, PreviewQuestionSetSurvey(app))
	})

	api.Get(`/questions/{id:^\d+$}`, GetQuestion(app))
	api.Delete(`/questions/{id:^\d+$}`, DeleteQuestion(app))

	api.Route("/surveys", func(r chi.Router) {
		r.Get("/", ListSurveys(app))
		r.Post("/", CreateSurvey(app))
		r.Get(`/{id:^\d+$}`, GetSurveyById(app))
		r.Put(`/{id:^\d+$}`, UpdateSurvey(app))
		r.Delete(`/{id:^\d+$}`, DeleteSurvey(app))

		r.Get(`/{id:^\d+$}/questionsets`, ListSurveyQuestionSets(app))
		r.Get(`/{id:^\d+$}/available-questionsets`, ListAvailableQuestionSets(app))
		r.Post(`/{id:^\d+$}/questionsets`, AddSurveyQuestionSet(app))
		r.Put(`/{id:^\d+$}/questionsets/order`, ReorderSurveyQuestionSets(app))
		r.Delete(`/{id:^\d+$}/questionsets/{linkId:^\d+$}`, RemoveSurveyQuestionSet(app))

		r.Get(`/{id:^\d+$}/survey`, SurveySchema(app))
	})

	return api
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Ping(r.Context()); err != nil {
			httpx.LogStatusMsg(w, r, http.StatusServiceUnavailable, log.WarnLevel, "health.ping", "database unreachable")
			return
		}
		render.JSON(w, r, map[string]any{
			"status": "ok",
		})
	}
}

func urlID(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil {
		httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param."+param)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "malformed request body")
		return false
	}
	return true
}
