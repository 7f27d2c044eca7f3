package image

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/pkg/cerr"
	"github.com/tasknest/tasknest/pkg/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	srv := NewServer(st)

	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	srv.Routes(r)
	return httptest.NewServer(r), srv
}

func multipartBody(t *testing.T, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadAndServe(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	body, contentType := multipartBody(t, "photo.png", payload)

	resp, err := http.Post(ts.URL+"/tasks/image", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var up uploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&up))
	require.True(t, strings.HasPrefix(up.URL, "/api/tasks/image/"))
	assert.True(t, strings.HasSuffix(up.URL, ".png"))

	name := strings.TrimPrefix(up.URL, "/api/tasks/image/")
	got, err := http.Get(ts.URL + "/tasks/image/" + name)
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "image/png", got.Header.Get("Content-Type"))

	served, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, served)
}

func TestUploadWithoutFile(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/tasks/image", mw.FormDataContentType(), buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeUnknownImage(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tasks/image/01MISSING.png")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadHelper(t *testing.T) {
	_, srv := newTestServer(t)

	url, err := srv.Upload(context.Background(), "pic.jpeg", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/api/tasks/image/"))
	assert.True(t, strings.HasSuffix(url, ".jpeg"))
}

func TestReadRejectsTraversal(t *testing.T) {
	_, srv := newTestServer(t)

	_, err := srv.read(context.Background(), "../tasks/01TASK.yaml")
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}
