package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/survey-templates/app"
	"github.com/mbolis/survey-templates/httpx"
)

func ListViews(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := app.ListViews(r.Context())
		if err != nil {
			httpx.Error(w, r, "views.list", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"views": views,
		})
	}
}

func GetViewRows(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.ViewRows(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			httpx.Error(w, r, "views.rows", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"rows": rows,
		})
	}
}

func GetViewColumns(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		columns, err := app.ViewColumns(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			httpx.Error(w, r, "views.columns", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"columns": columns,
		})
	}
}
