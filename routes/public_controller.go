package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/formflow/formflow/app"
	"github.com/formflow/formflow/httpx"
	"github.com/formflow/formflow/log"
)

// PublicGetFormById serves the form definition wizard clients render:
// the form plus its steps and fields in declared order.
func PublicGetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		form, err := loadForm(r.Context(), app, formId)
		if err == errFormNotFound {
			httpx.LogNotFound(w, "get_form", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		// respondents never need ownership or versioning details
		form.Owner = ""
		form.Version = 0

		render.JSON(w, r, form)
	}
}

type submitRequest struct {
	FormID  string         `json:"formId"`
	Answers map[string]any `json:"answers"`
}

// SubmitForm is the collection endpoint. It validates the payload shape,
// derives metadata server-side (the client never supplies it) and writes
// one atomic submission record.
func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := submitRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.ApiError(w, r, http.StatusBadRequest, "submit.parse_body", "formId and answers are required")
			return
		}
		if req.FormID == "" || req.Answers == nil {
			httpx.ApiError(w, r, http.StatusBadRequest, "submit.validate", "formId and answers are required")
			return
		}

		answersJson, err := json.Marshal(req.Answers)
		if err != nil {
			httpx.ApiError(w, r, http.StatusBadRequest, "submit.parse_answers", "formId and answers are required")
			return
		}

		submissionId := uuid.NewString()
		now := time.Now().UTC()

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO submission (id, form_id, answers, ip_address, user_agent, submitted_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			submissionId,
			req.FormID,
			string(answersJson),
			clientIP(r),
			userAgent(r),
			now,
			now,
		)
		if err != nil {
			httpx.ApiInternalError(w, r, "db.insert_submission", "the submission could not be stored", err)
			return
		}

		// diagnostic only: the form title lookup must never delay or fail
		// the submission
		go logSubmitted(app, req.FormID, submissionId)

		render.JSON(w, r, map[string]any{
			"success":      true,
			"submissionId": submissionId,
			"message":      "form submitted successfully",
		})
	}
}

// clientIP trusts forwarding headers first, matching the deployment
// behind a reverse proxy, and falls back to "unknown".
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	return "unknown"
}

func userAgent(r *http.Request) string {
	if ua := r.Header.Get("User-Agent"); ua != "" {
		return ua
	}
	return "unknown"
}

func logSubmitted(app app.App, formId, submissionId string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var title string
	err := app.QueryRowContext(ctx, `SELECT title FROM form WHERE id = ?`, formId).Scan(&title)
	if err != nil {
		log.Debugf("submit.log_title: %s", err)
		return
	}
	log.Infof("form submitted: form=%s (%q) submission=%s", formId, title, submissionId)
}
