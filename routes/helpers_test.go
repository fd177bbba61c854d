package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/formflow/formflow/app"
	"github.com/formflow/formflow/config"
	"github.com/formflow/formflow/database"
	"github.com/formflow/formflow/httpx"
)

func newTestApp(t *testing.T) app.App {
	t.Helper()

	cfg := config.Config{
		DBUrl:         filepath.Join(t.TempDir(), "formflow_test.sqlite"),
		TokenSecret:   "test-secret",
		TokenTTL:      time.Minute,
		UploadDir:     t.TempDir(),
		UploadMaxSize: 1024 * 1024,
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

const testFormJSON = `{
	"title": "Customer Feedback",
	"description": "Tell us how we did",
	"settings": {"show_progress_bar": true},
	"steps": [
		{
			"title": "Your rating",
			"fields": [
				{"type": "radio", "label": "Service rating", "required": true,
					"options": ["Zeer tevreden", "Neutraal", "Zeer ontevreden"]},
				{"type": "text", "label": "Name", "placeholder": "Your name"}
			]
		},
		{
			"title": "Follow up",
			"fields": [
				{"type": "textarea", "label": "Comments"}
			]
		}
	]
}`

// createTestForm stores the fixture form and returns its id.
func createTestForm(t *testing.T, a app.App) string {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/admin/forms", strings.NewReader(testFormJSON))
	w := httptest.NewRecorder()
	CreateForm(a)(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["id"])
	return resp["id"]
}

// submitTestAnswers posts one submission for the form and returns its id.
func submitTestAnswers(t *testing.T, a app.App, formId string, answers string) string {
	t.Helper()

	body := `{"formId": "` + formId + `", "answers": ` + answers + `}`
	req := httptest.NewRequest("POST", "/api/submit", strings.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("User-Agent", "formflow-test/1.0")
	w := httptest.NewRecorder()
	SubmitForm(a)(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success      bool   `json:"success"`
		SubmissionID string `json:"submissionId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.SubmissionID)
	return resp.SubmissionID
}

func countSubmissions(t *testing.T, a app.App) int {
	t.Helper()
	var n int
	require.NoError(t, a.QueryRow(`SELECT COUNT(*) FROM submission`).Scan(&n))
	return n
}
