package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-templates/app"
	"github.com/mbolis/survey-templates/httpx"
)

func GetQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		q, err := app.GetQuestion(r.Context(), id)
		if err != nil {
			httpx.Error(w, r, "questions.get", err)
			return
		}

		render.JSON(w, r, q)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		if err := app.DeleteQuestion(r.Context(), id); err != nil {
			httpx.Error(w, r, "questions.delete", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
