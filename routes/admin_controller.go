package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/formflow/formflow/app"
	"github.com/formflow/formflow/httpx"
	"github.com/formflow/formflow/log"
	"github.com/formflow/formflow/model"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if form.Title == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_form.validate", "title is required")
			return
		}
		for _, step := range form.Steps {
			for _, f := range step.Fields {
				if !f.Type.Valid() {
					httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_form.validate", "invalid field type %q", f.Type)
					return
				}
			}
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		formId := uuid.NewString()
		now := time.Now().UTC()

		theme, settings, err := marshalFormBlobs(form)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form.parse_blobs", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO form (id, version, title, description, theme, settings, owner, created_at, updated_at)
			VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?)`,
			formId,
			form.Title,
			form.Description,
			theme,
			settings,
			form.Owner,
			now,
			now,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		err = insertSteps(r.Context(), tx, formId, form.Steps)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form.steps", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": formId,
		})
	}
}

// insertSteps recreates a form's steps and fields. Step and field order
// come from array position, so the stored sequence is always gapless.
func insertSteps(ctx context.Context, tx *sql.Tx, formId string, steps []model.Step) error {
	stepStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO step (id, form_id, title, step_order)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stepStmt.Close()

	fieldStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO field (id, step_id, field_order, type, label, placeholder, required, options, validation, conditions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer fieldStmt.Close()

	for i, step := range steps {
		stepId := step.ID
		if stepId == "" {
			stepId = uuid.NewString()
		}
		_, err = stepStmt.ExecContext(ctx, stepId, formId, step.Title, i)
		if err != nil {
			return err
		}

		for j, f := range step.Fields {
			fieldId := f.ID
			if fieldId == "" {
				fieldId = uuid.NewString()
			}

			var options, validation, conditions []byte
			if f.Options != nil {
				if options, err = json.Marshal(f.Options); err != nil {
					return err
				}
			}
			if f.Validation != nil {
				if validation, err = json.Marshal(f.Validation); err != nil {
					return err
				}
			}
			if f.Conditions != nil {
				if conditions, err = json.Marshal(f.Conditions); err != nil {
					return err
				}
			}

			_, err = fieldStmt.ExecContext(ctx,
				fieldId, stepId, j,
				f.Type, f.Label, f.Placeholder, f.Required,
				string(options), string(validation), string(conditions),
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func marshalFormBlobs(form model.Form) (theme, settings string, err error) {
	if form.Theme != nil {
		var b []byte
		if b, err = json.Marshal(form.Theme); err != nil {
			return
		}
		theme = string(b)
	}
	var b []byte
	if b, err = json.Marshal(form.Settings); err != nil {
		return
	}
	settings = string(b)
	return
}

func ListForms(app app.App) http.HandlerFunc {
	type formSummary struct {
		ID          string    `json:"id"`
		Version     int       `json:"version"`
		Title       string    `json:"title"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
		Submissions int       `json:"submissions_count"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT f.id, f.version, f.title, f.description, f.created_at, f.updated_at, COUNT(s.id)
			FROM form f
			LEFT OUTER JOIN submission s ON (f.id = s.form_id)
			GROUP BY f.id
			ORDER BY f.created_at DESC`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []formSummary{}
		for rows.Next() {
			f := formSummary{}
			err = rows.Scan(&f.ID, &f.Version, &f.Title, &f.Description, &f.CreatedAt, &f.UpdatedAt, &f.Submissions)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}

			forms = append(forms, f)
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetFormById(app app.App) http.HandlerFunc {
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

		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		for _, step := range form.Steps {
			for _, f := range step.Fields {
				if !f.Type.Valid() {
					httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_form.validate", "invalid field type %q", f.Type)
					return
				}
			}
		}

		var exists bool
		err = app.QueryRowContext(r.Context(), `SELECT 1 FROM form WHERE id = ?`, formId).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "update_form", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.lookup", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		// recreate all steps and fields
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM field
			WHERE step_id IN (SELECT id FROM step WHERE form_id = ?)`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.delete_fields", err)
			return
		}
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM step
			WHERE form_id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.delete_steps", err)
			return
		}

		err = insertSteps(r.Context(), tx, formId, form.Steps)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.steps", err)
			return
		}

		theme, settings, err := marshalFormBlobs(form)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.parse_blobs", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			UPDATE form
			SET
				title = ?,
				description = ?,
				theme = ?,
				settings = ?,
				updated_at = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			form.Title,
			form.Description,
			theme,
			settings,
			time.Now().UTC(),
			formId,
			form.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_form.verify.conflict")
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM submission
			WHERE form_id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.submissions", err)
			return
		}
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM field
			WHERE step_id IN (SELECT id FROM step WHERE form_id = ?)`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.fields", err)
			return
		}
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM step
			WHERE form_id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.steps", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM form WHERE id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_form", formId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetFormSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		submissions, err := loadSubmissions(r.Context(), app, formId)
		if err == errFormNotFound {
			httpx.LogNotFound(w, "get_submissions", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}

// ExportSubmissionsCSV renders a form's submissions as the dashboard CSV:
// one row per submission, the answer set JSON-encoded into a single
// column. Rows are comma-joined the way the dashboard always produced
// them, without quoting.
func ExportSubmissionsCSV(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		submissions, err := loadSubmissions(r.Context(), app, formId)
		if err == errFormNotFound {
			httpx.LogNotFound(w, "export_submissions", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.export_submissions", err)
			return
		}

		lines := []string{"ID,Form ID,Answers,IP Address,User Agent,Date"}
		for _, s := range submissions {
			answers, err := json.Marshal(s.Answers)
			if err != nil {
				httpx.LogInternalError(w, "export_submissions.parse_answers", err)
				return
			}
			lines = append(lines, strings.Join([]string{
				s.ID,
				s.FormID,
				string(answers),
				s.Metadata.IPAddress,
				s.Metadata.UserAgent,
				s.CreatedAt.Format(time.RFC3339),
			}, ","))
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=submissions-%s.csv", formId))
		fmt.Fprint(w, strings.Join(lines, "\n"))
	}
}

func loadSubmissions(ctx context.Context, app app.App, formId string) ([]model.Submission, error) {
	var exists bool
	err := app.QueryRowContext(ctx, `SELECT 1 FROM form WHERE id = ?`, formId).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errFormNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := app.QueryContext(ctx, `
		SELECT id, form_id, answers, ip_address, user_agent, submitted_at, created_at
		FROM submission
		WHERE form_id = ?
		ORDER BY created_at DESC`,
		formId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		s := model.Submission{}
		var answers string
		err = rows.Scan(&s.ID, &s.FormID, &answers, &s.Metadata.IPAddress, &s.Metadata.UserAgent, &s.Metadata.Timestamp, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal([]byte(answers), &s.Answers); err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func GetStats(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var totalForms, totalSubmissions, recentSubmissions int
		weekAgo := time.Now().UTC().AddDate(0, 0, -7)

		err := app.QueryRowContext(r.Context(), `
			SELECT
				(SELECT COUNT(*) FROM form),
				(SELECT COUNT(*) FROM submission),
				(SELECT COUNT(*) FROM submission WHERE created_at > ?)`,
			weekAgo,
		).Scan(&totalForms, &totalSubmissions, &recentSubmissions)
		if err != nil {
			httpx.LogInternalError(w, "db.get_stats", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"total_forms":        totalForms,
			"total_submissions":  totalSubmissions,
			"recent_submissions": recentSubmissions,
		})
	}
}
