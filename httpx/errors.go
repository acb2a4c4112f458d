package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/mbolis/survey-templates/log"
	"github.com/mbolis/survey-templates/store"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// Will log an error, and send an HTTP response with status 500 and a summary
// naming the failed operation
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	respond(w, r, http.StatusInternalServerError, fmt.Sprintf("%s (%s)", http.StatusText(http.StatusInternalServerError), code))
}

// Will log a debug message, and send an HTTP response with status 404
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, what any) {
	log.Debugf("%s: not found (%v)", code, what)
	respond(w, r, http.StatusNotFound, fmt.Sprintf("%v not found", what))
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	respond(w, r, status, http.StatusText(status))
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	respond(w, r, status, errMsg)
}

// Error sends the response matching err: validation failures are 400, missing
// rows 404, conflicts 409 and anything else 500.
func Error(w http.ResponseWriter, r *http.Request, code string, err error) {
	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, code, "%s", describe(invalid))
	case errors.Is(err, store.ErrInvalid):
		LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, code, "%s", err)
	case errors.Is(err, store.ErrNotFound):
		LogStatusMsg(w, r, http.StatusNotFound, log.DebugLevel, code, "%s", err)
	case errors.Is(err, store.ErrConflict):
		LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, code, "%s", err)
	default:
		LogInternalError(w, r, code, err)
	}
}

func describe(errs validator.ValidationErrors) string {
	msgs := make([]string, len(errs))
	for i, fe := range errs {
		field := fe.Namespace()
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s failed %s", field, fe.Tag())
		}
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}
