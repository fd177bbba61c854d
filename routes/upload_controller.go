package routes

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/formflow/formflow/app"
	"github.com/formflow/formflow/httpx"
)

// UploadFile stores one file-field attachment and returns its public URL.
// Size and type are checked before anything is written, so a rejected
// upload leaves no file behind.
func UploadFile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// a little slack over the limit so the multipart overhead does not
		// reject a file that is itself within bounds
		r.Body = http.MaxBytesReader(w, r.Body, app.UploadMaxSize+64*1024)

		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.ApiError(w, r, http.StatusBadRequest, "upload.parse_file", "a file is required")
			return
		}
		defer file.Close()

		if header.Size > app.UploadMaxSize {
			httpx.ApiError(w, r, http.StatusBadRequest, "upload.size",
				fmt.Sprintf("file is too large, maximum size is %dMB", app.UploadMaxSize/(1024*1024)))
			return
		}

		accept := r.FormValue("accept")
		contentType := header.Header.Get("Content-Type")
		if !typeAllowed(accept, contentType) {
			httpx.ApiError(w, r, http.StatusBadRequest, "upload.type",
				fmt.Sprintf("file type not allowed, accepted types: %s", accept))
			return
		}

		err = os.MkdirAll(app.UploadDir, 0o755)
		if err != nil {
			httpx.ApiInternalError(w, r, "upload.mkdir", "the file could not be stored", err)
			return
		}

		name := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
		dst, err := os.Create(filepath.Join(app.UploadDir, name))
		if err != nil {
			httpx.ApiInternalError(w, r, "upload.create", "the file could not be stored", err)
			return
		}
		defer dst.Close()

		_, err = io.Copy(dst, file)
		if err != nil {
			os.Remove(dst.Name())
			httpx.ApiInternalError(w, r, "upload.write", "the file could not be stored", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"url": "/uploads/" + name,
		})
	}
}

// typeAllowed implements the accept-attribute matching the upload widget
// stores in the field's validation: a comma list of MIME types where
// "image/*" matches any image and "*/*" (or empty) matches everything.
func typeAllowed(accept, contentType string) bool {
	if accept == "" || accept == "*/*" {
		return true
	}
	for _, t := range strings.Split(accept, ",") {
		t = strings.TrimSpace(t)
		if t == contentType {
			return true
		}
		if prefix, ok := strings.CutSuffix(t, "/*"); ok && strings.HasPrefix(contentType, prefix+"/") {
			return true
		}
	}
	return false
}

// ServeUploads exposes the upload directory read-only.
func ServeUploads(app app.App) http.Handler {
	return http.StripPrefix("/uploads", http.FileServer(http.Dir(app.UploadDir)))
}
