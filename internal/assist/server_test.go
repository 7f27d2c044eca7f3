package assist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/pkg/cerr"
)

type stubGenerator struct {
	draft *Draft
	err   error

	gotDescription string
}

func (g *stubGenerator) GenerateDraft(_ context.Context, description string) (*Draft, error) {
	g.gotDescription = description
	if g.err != nil {
		return nil, g.err
	}
	return g.draft, nil
}

func newTestServer(g Generator) *httptest.Server {
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	NewServer(g).Routes(r)
	return httptest.NewServer(r)
}

func TestHandleGenerate(t *testing.T) {
	gen := &stubGenerator{draft: &Draft{
		Title:    "organize the garage",
		Subtasks: []string{"sort the shelves", "donate old tools"},
		Tags:     []string{"home"},
	}}
	srv := newTestServer(gen)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/tasks/ai", "application/json",
		strings.NewReader(`{"description": "the garage is a mess, help me clean it up"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "organize the garage", got.Title)
	assert.Len(t, got.Subtasks, 2)
	assert.Equal(t, "the garage is a mess, help me clean it up", got.OriginalTaskDescription)
	assert.Equal(t, gen.gotDescription, got.OriginalTaskDescription)
}

// The endpoint takes a task-shaped body whose prompt field is
// original_task_description.
func TestHandleGenerateTaskShapedBody(t *testing.T) {
	gen := &stubGenerator{draft: &Draft{
		Title:    "Buy milk",
		Subtasks: []string{"go to store"},
	}}
	srv := newTestServer(gen)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/tasks/ai", "application/json",
		strings.NewReader(`{"title": "", "original_task_description": "I need milk"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "I need milk", got.OriginalTaskDescription)
	assert.Equal(t, "I need milk", gen.gotDescription)
}

func TestHandleGenerateUnusableDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft *Draft
	}{
		{name: "empty title", draft: &Draft{Subtasks: []string{"step"}}},
		{name: "no subtasks", draft: &Draft{Title: "something"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubGenerator{draft: tt.draft})
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/tasks/ai", "application/json",
				strings.NewReader(`{"description": "do something"}`))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		})
	}
}

func TestHandleGenerateGeneratorError(t *testing.T) {
	srv := newTestServer(&stubGenerator{
		err: cerr.NewError(cerr.Unavailable, "draft generation failed", errors.New("timeout")),
	})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/tasks/ai", "application/json",
		strings.NewReader(`{"description": "do something"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Unavailable", body.Code)
}

func TestHandleGenerateEmptyDescription(t *testing.T) {
	srv := newTestServer(&stubGenerator{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/tasks/ai", "application/json",
		strings.NewReader(`{"description": "   "}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDraftUsable(t *testing.T) {
	assert.True(t, (&Draft{Title: "a", Subtasks: []string{"b"}}).Usable())
	assert.False(t, (&Draft{Title: "  ", Subtasks: []string{"b"}}).Usable())
	assert.False(t, (&Draft{Title: "a"}).Usable())
}
