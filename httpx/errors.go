package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/formflow/formflow/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// Will log an error code, and send a JSON `{"error": msg}` body with the
// given status. The submission API contract wants JSON errors, not the
// plain-text bodies the helpers above produce.
func ApiError(w http.ResponseWriter, r *http.Request, status int, code string, msg string) {
	if status >= 500 {
		log.Errorf("%s: %s", code, msg)
	} else {
		log.Debugf("%s: %s", code, msg)
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"error": msg})
}

// Same as ApiError, for a wrapped internal failure: the cause is logged,
// the client only sees the generic message.
func ApiInternalError(w http.ResponseWriter, r *http.Request, code string, msg string, err error) {
	log.Errorf("%s: %s", code, err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]any{"error": msg})
}
