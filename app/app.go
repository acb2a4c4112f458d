package app

import (
	"github.com/go-playground/validator/v10"

	"github.com/mbolis/survey-templates/config"
	"github.com/mbolis/survey-templates/model"
	"github.com/mbolis/survey-templates/store"
)

type App struct {
	*store.Store
	config.Config
	Validate *validator.Validate
}

func New(cfg config.Config, st *store.Store) App {
	return App{
		Store:    st,
		Config:   cfg,
		Validate: NewValidator(),
	}
}

// NewValidator returns a validator aware of the "identifier" and
// "displaytype" tags used by the model.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return store.ValidIdentifier(fl.Field().String())
	})
	v.RegisterValidation("displaytype", func(fl validator.FieldLevel) bool {
		return model.DisplayType(fl.Field().String()).Valid()
	})
	return v
}
