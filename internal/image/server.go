// Package image stores uploaded task images and serves them back by name.
// The upload response carries the serving URL the task record references.
package image

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/tasknest/tasknest/pkg/cerr"
	"github.com/tasknest/tasknest/pkg/storage"
)

const (
	imagesPrefix = "images"
	// maxUploadSize bounds the multipart form held in memory.
	maxUploadSize = 10 << 20
)

type Server struct {
	storage storage.Storage
}

func NewServer(s storage.Storage) *Server {
	return &Server{storage: s}
}

func (s *Server) Routes(r chi.Router) {
	r.Post("/tasks/image", s.handleUpload)
	r.Get("/tasks/image/{name}", s.handleServe)
}

func path(name string) string {
	return fmt.Sprintf("%s/%s", imagesPrefix, name)
}

type uploadResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid multipart form", err)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "image file is required", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", fmt.Errorf("failed to read upload: %w", err))
		return
	}

	name := ulid.Make().String() + sanitizeExt(header.Filename)
	if err := s.storage.Write(ctx, path(name), data); err != nil {
		cerr.SetJSONError(ctx, cerr.WrapStorageWriteError("image", err))
		return
	}

	cerr.SetJSONResponse(ctx, uploadResponse{URL: "/api/tasks/image/" + name})
}

// handleServe writes the stored bytes directly instead of going through the
// JSON response path.
func (s *Server) handleServe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	data, err := s.read(ctx, name)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}

func (s *Server) read(ctx context.Context, name string) ([]byte, error) {
	// Reject anything that could escape the images prefix.
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return nil, cerr.NewError(cerr.InvalidArgument, "invalid image name", nil)
	}
	data, err := s.storage.Read(ctx, path(name))
	if err != nil {
		return nil, cerr.WrapStorageReadError("image", err)
	}
	return data, nil
}

// Upload stores data under a fresh name and returns the serving URL; the
// authoring flow uses it for the pre-submission image upload.
func (s *Server) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	name := ulid.Make().String() + sanitizeExt(filename)
	if err := s.storage.Write(ctx, path(name), data); err != nil {
		return "", cerr.WrapStorageWriteError("image", err)
	}
	return "/api/tasks/image/" + name, nil
}

func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return ext
	}
	return ""
}
