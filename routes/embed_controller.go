package routes

import (
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formflow/formflow/app"
	"github.com/formflow/formflow/httpx"
	"github.com/formflow/formflow/model"
)

// EmbedForm serves the standalone page an embed iframe points at. The
// page posts answers to the collection endpoint and notifies the hosting
// window with a FORM_SUBMITTED message, which is the whole embed
// contract; the wizard UX itself lives in the regular frontend.
func EmbedForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		form, err := loadForm(r.Context(), app, formId)
		if err == errFormNotFound {
			httpx.LogNotFound(w, "embed_form", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.embed_form", err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = embedPage.Execute(w, form)
		if err != nil {
			httpx.LogInternalError(w, "embed_form.render", err)
		}
	}
}

// EmbedSnippet returns the HTML a form owner pastes into their own page:
// an iframe plus a listener for the submitted event.
func EmbedSnippet(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		var exists bool
		err := app.QueryRowContext(r.Context(), `SELECT 1 FROM form WHERE id = ?`, formId).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "embed_snippet", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.embed_snippet", err)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		src := fmt.Sprintf("%s://%s/embed/%s", scheme, r.Host, formId)

		snippet := fmt.Sprintf(
			`<iframe src=%q width="100%%" height="600" frameborder="0"></iframe>
<script>
window.addEventListener('message', function (event) {
  if (event.data && event.data.type === 'FORM_SUBMITTED') {
    // event.data: { type, formId, submissionId, data }
  }
});
</script>`, src)

		render.JSON(w, r, map[string]any{
			"embed_code": snippet,
		})
	}
}

var embedPage = template.Must(template.New("embed").Funcs(template.FuncMap{
	"isChoice": func(t model.FieldType) bool {
		return t == model.FieldRadio || t == model.FieldCheckbox
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Description}}<p>{{.Description}}</p>{{end}}
<form id="form" data-form-id="{{.ID}}">
{{range .Steps}}
	<fieldset>
		<legend>{{.Title}}</legend>
		{{range .Fields}}
		<div class="field" data-field-id="{{.ID}}" data-type="{{.Type}}">
			<label>{{.Label}}{{if .Required}} *{{end}}</label>
			{{if eq .Type "textarea"}}
			<textarea name="{{.ID}}" placeholder="{{.Placeholder}}"></textarea>
			{{else if eq .Type "select"}}
			<select name="{{.ID}}">
				<option value="">--</option>
				{{range .Options}}<option value="{{.}}">{{.}}</option>{{end}}
			</select>
			{{else if isChoice .Type}}
			{{$f := .}}
			{{range .Options}}
			<label><input type="{{$f.Type}}" name="{{$f.ID}}" value="{{.}}"> {{.}}</label>
			{{end}}
			{{else}}
			<input type="{{.Type}}" name="{{.ID}}" placeholder="{{.Placeholder}}">
			{{end}}
		</div>
		{{end}}
	</fieldset>
{{end}}
<button type="submit">Submit</button>
</form>
<script>
document.getElementById('form').addEventListener('submit', function (e) {
	e.preventDefault();
	var form = e.target;
	var formId = form.dataset.formId;
	var answers = {};
	form.querySelectorAll('.field').forEach(function (div) {
		var id = div.dataset.fieldId;
		if (div.dataset.type === 'checkbox') {
			var values = [];
			div.querySelectorAll('input:checked').forEach(function (c) { values.push(c.value); });
			if (values.length) answers[id] = values;
		} else if (div.dataset.type === 'radio') {
			var checked = div.querySelector('input:checked');
			if (checked) answers[id] = checked.value;
		} else {
			var input = div.querySelector('input, textarea, select');
			if (input && input.value !== '') answers[id] = input.value;
		}
	});
	fetch('/api/submit', {
		method: 'POST',
		headers: { 'Content-Type': 'application/json' },
		body: JSON.stringify({ formId: formId, answers: answers })
	}).then(function (resp) { return resp.json(); }).then(function (result) {
		if (!result.success) throw new Error(result.error || 'submit failed');
		if (window.parent !== window) {
			window.parent.postMessage({
				type: 'FORM_SUBMITTED',
				formId: formId,
				submissionId: result.submissionId,
				data: answers
			}, '*');
		}
		form.outerHTML = '<p>Thank you! Your answers were submitted.</p>';
	}).catch(function (err) {
		alert('The form could not be submitted. Please try again.');
	});
});
</script>
</body>
</html>
`))
