package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartFile(t *testing.T, content, filename, contentType, accept string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	if accept != "" {
		require.NoError(t, mw.WriteField("accept", accept))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestUploadFile_ok(t *testing.T) {
	a := newTestApp(t)

	body, contentType := multipartFile(t, "hello upload", "note.txt", "text/plain", "")
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	UploadFile(a)(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp["url"], "/uploads/"), resp["url"])
	assert.True(t, strings.HasSuffix(resp["url"], ".txt"))

	stored, err := os.ReadFile(filepath.Join(a.UploadDir, strings.TrimPrefix(resp["url"], "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "hello upload", string(stored))
}

func TestUploadFile_missingFile(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/upload", strings.NewReader(""))
	w := httptest.NewRecorder()
	UploadFile(a)(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadFile_tooLarge(t *testing.T) {
	a := newTestApp(t)
	a.UploadMaxSize = 8

	body, contentType := multipartFile(t, "definitely more than eight bytes", "big.txt", "text/plain", "")
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	UploadFile(a)(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assertNoUploads(t, a.UploadDir)
}

func TestUploadFile_typeNotAllowed(t *testing.T) {
	a := newTestApp(t)

	body, contentType := multipartFile(t, "plain text", "note.txt", "text/plain", "image/*")
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	UploadFile(a)(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assertNoUploads(t, a.UploadDir)
}

func assertNoUploads(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err == nil {
		assert.Empty(t, entries, "a rejected upload must not leave files behind")
	}
}

func TestTypeAllowed(t *testing.T) {
	tests := []struct {
		accept, contentType string
		want                bool
	}{
		{"", "text/plain", true},
		{"*/*", "application/pdf", true},
		{"image/*", "image/png", true},
		{"image/*", "text/plain", false},
		{"image/png, image/jpeg", "image/jpeg", true},
		{"image/png, image/jpeg", "image/gif", false},
		{"application/pdf", "application/pdf", true},
	}
	for _, tt := range tests {
		if got := typeAllowed(tt.accept, tt.contentType); got != tt.want {
			t.Errorf("typeAllowed(%q, %q) = %v, want %v", tt.accept, tt.contentType, got, tt.want)
		}
	}
}
