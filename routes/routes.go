package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/formflow/formflow/app"
	"github.com/formflow/formflow/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.Get("/embed/{id}", EmbedForm(app))
	root.Handle("/uploads/*", ServeUploads(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer, app.Config), middlewares.Admin(app.Config)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// respondent-facing surface
	api.Get("/forms/{id}", PublicGetFormById(app))
	api.Get("/forms/{id}/embed", EmbedSnippet(app))
	api.Post("/submit", SubmitForm(app))
	api.Post("/upload", UploadFile(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.Config))

		// CRUD form
		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get("/forms/{id}", GetFormById(app))
		r.Put("/forms/{id}", UpdateForm(app))
		r.Delete("/forms/{id}", DeleteForm(app))

		r.Get("/forms/{id}/submissions", GetFormSubmissions(app))
		r.Get("/forms/{id}/submissions/export", ExportSubmissionsCSV(app))
		r.Get("/stats", GetStats(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
