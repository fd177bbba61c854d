package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formflow/formflow/model"
)

func TestCreateAndGetForm(t *testing.T) {
	a := newTestApp(t)
	formId := createTestForm(t, a)

	req := withURLParam(httptest.NewRequest("GET", "/api/admin/forms/"+formId, nil), "id", formId)
	w := httptest.NewRecorder()
	GetFormById(a)(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	form := model.Form{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &form))

	assert.Equal(t, "Customer Feedback", form.Title)
	assert.Equal(t, 1, form.Version)
	assert.True(t, form.Settings.ShowProgressBar)

	require.Len(t, form.Steps, 2)
	assert.Equal(t, "Your rating", form.Steps[0].Title)
	assert.Equal(t, 0, form.Steps[0].Order)
	assert.Equal(t, "Follow up", form.Steps[1].Title)
	assert.Equal(t, 1, form.Steps[1].Order)

	require.Len(t, form.Steps[0].Fields, 2)
	rating := form.Steps[0].Fields[0]
	assert.Equal(t, model.FieldRadio, rating.Type)
	assert.True(t, rating.Required)
	assert.Equal(t, []string{"Zeer tevreden", "Neutraal", "Zeer ontevreden"}, rating.Options)
}

func TestGetForm_notFound(t *testing.T) {
	a := newTestApp(t)

	req := withURLParam(httptest.NewRequest("GET", "/api/admin/forms/nope", nil), "id", "nope")
	w := httptest.NewRecorder()
	GetFormById(a)(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateForm_invalidFieldType(t *testing.T) {
	a := newTestApp(t)

	body := `{"title": "Bad", "steps": [{"title": "S1", "fields": [{"type": "slider", "label": "X"}]}]}`
	req := httptest.NewRequest("POST", "/api/admin/forms", strings.NewReader(body))
	w := httptest.NewRecorder()
	CreateForm(a)(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateForm_conditionsSurviveRoundTrip(t *testing.T) {
	a := newTestApp(t)

	body := `{
		"title": "Conditional",
		"steps": [{
			"title": "S1",
			"fields": [
				{"type": "radio", "label": "Rating", "options": ["good", "bad"]},
				{"type": "textarea", "label": "Why so bad?", "conditions": [
					{"field_id": "rating", "operator": "equals", "value": "bad", "action": "show"}
				]}
			]
		}]
	}`
	req := httptest.NewRequest("POST", "/api/admin/forms", strings.NewReader(body))
	w := httptest.NewRecorder()
	CreateForm(a)(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req = withURLParam(httptest.NewRequest("GET", "/", nil), "id", created["id"])
	w = httptest.NewRecorder()
	PublicGetFormById(a)(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	form := model.Form{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &form))
	require.Len(t, form.Steps, 1)
	require.Len(t, form.Steps[0].Fields, 2)

	conds := form.Steps[0].Fields[1].Conditions
	require.Len(t, conds, 1)
	assert.Equal(t, model.OpEquals, conds[0].Operator)
	assert.Equal(t, "bad", conds[0].Value)
	assert.Equal(t, model.ActionShow, conds[0].Action)

	// the public view hides ownership details
	assert.Empty(t, form.Owner)
	assert.Zero(t, form.Version)
}

func TestUpdateForm_staleVersion(t *testing.T) {
	a := newTestApp(t)
	formId := createTestForm(t, a)

	update := `{"title": "Renamed", "version": 1, "steps": [{"title": "Only step", "fields": []}]}`

	req := withURLParam(httptest.NewRequest("PUT", "/", strings.NewReader(update)), "id", formId)
	w := httptest.NewRecorder()
	UpdateForm(a)(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// same version again: someone else updated in between
	req = withURLParam(httptest.NewRequest("PUT", "/", strings.NewReader(update)), "id", formId)
	w = httptest.NewRecorder()
	UpdateForm(a)(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteForm(t *testing.T) {
	a := newTestApp(t)
	formId := createTestForm(t, a)
	submitTestAnswers(t, a, formId, `{"q1": "yes"}`)

	req := withURLParam(httptest.NewRequest("DELETE", "/", nil), "id", formId)
	w := httptest.NewRecorder()
	DeleteForm(a)(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, countSubmissions(t, a))

	req = withURLParam(httptest.NewRequest("DELETE", "/", nil), "id", formId)
	w = httptest.NewRecorder()
	DeleteForm(a)(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFormSubmissions(t *testing.T) {
	a := newTestApp(t)
	formId := createTestForm(t, a)
	submitTestAnswers(t, a, formId, `{"q1": "yes"}`)
	submitTestAnswers(t, a, formId, `{"q1": "no"}`)

	req := withURLParam(httptest.NewRequest("GET", "/", nil), "id", formId)
	w := httptest.NewRecorder()
	GetFormSubmissions(a)(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Submissions []model.Submission `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Submissions, 2)
	assert.Equal(t, "203.0.113.7", resp.Submissions[0].Metadata.IPAddress)
	assert.Equal(t, formId, resp.Submissions[0].FormID)
}

func TestExportSubmissionsCSV(t *testing.T) {
	a := newTestApp(t)
	formId := createTestForm(t, a)
	submissionId := submitTestAnswers(t, a, formId, `{"q1": "yes"}`)

	req := withURLParam(httptest.NewRequest("GET", "/", nil), "id", formId)
	w := httptest.NewRecorder()
	ExportSubmissionsCSV(a)(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	lines := strings.Split(w.Body.String(), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Form ID,Answers,IP Address,User Agent,Date", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], submissionId+","+formId+","))
	assert.Contains(t, lines[1], `{"q1":"yes"}`)
	assert.Contains(t, lines[1], "203.0.113.7")
}

func TestExportSubmissionsCSV_unknownForm(t *testing.T) {
	a := newTestApp(t)

	req := withURLParam(httptest.NewRequest("GET", "/", nil), "id", "nope")
	w := httptest.NewRecorder()
	ExportSubmissionsCSV(a)(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStats(t *testing.T) {
	a := newTestApp(t)
	formId := createTestForm(t, a)
	submitTestAnswers(t, a, formId, `{"q1": "yes"}`)

	w := httptest.NewRecorder()
	GetStats(a)(w, httptest.NewRequest("GET", "/api/admin/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats["total_forms"])
	assert.Equal(t, 1, stats["total_submissions"])
	assert.Equal(t, 1, stats["recent_submissions"])
}

func TestListForms(t *testing.T) {
	a := newTestApp(t)
	formId := createTestForm(t, a)
	submitTestAnswers(t, a, formId, `{"q1": "yes"}`)

	w := httptest.NewRecorder()
	ListForms(a)(w, httptest.NewRequest("GET", "/api/admin/forms", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Forms []struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Submissions int    `json:"submissions_count"`
		} `json:"forms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Forms, 1)
	assert.Equal(t, formId, resp.Forms[0].ID)
	assert.Equal(t, 1, resp.Forms[0].Submissions)
}
