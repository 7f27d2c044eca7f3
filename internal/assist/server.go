package assist

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tasknest/tasknest/pkg/cerr"
	"github.com/tasknest/tasknest/pkg/clog"
)

type Server struct {
	generator Generator
}

func NewServer(generator Generator) *Server {
	return &Server{generator: generator}
}

func (s *Server) Routes(r chi.Router) {
	r.Post("/tasks/ai", s.handleGenerate)
}

// generateRequest is a task-shaped body; the prompt travels in
// original_task_description, with description accepted as an alias.
type generateRequest struct {
	OriginalTaskDescription string `json:"original_task_description"`
	Description             string `json:"description"`
}

func (r *generateRequest) prompt() string {
	if s := strings.TrimSpace(r.OriginalTaskDescription); s != "" {
		return s
	}
	return strings.TrimSpace(r.Description)
}

type generateResponse struct {
	Title                   string   `json:"title"`
	Subtasks                []string `json:"subtasks"`
	Tags                    []string `json:"tags"`
	Deadline                string   `json:"deadline,omitempty"`
	Priority                string   `json:"priority,omitempty"`
	OriginalTaskDescription string   `json:"original_task_description"`
}

// handleGenerate turns a free-form description into a task draft. The
// original description is echoed back so the caller can preserve it verbatim
// on the eventual record, whichever way generation went.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	description := req.prompt()
	if description == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "original_task_description is required", nil)
		return
	}

	d, err := s.generator.GenerateDraft(ctx, description)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if !d.Usable() {
		clog.AddAttributes(ctx, map[string]any{"title": d.Title, "subtasks": len(d.Subtasks)})
		cerr.SetNewJSONError(ctx, cerr.Unavailable, "generated draft was not usable", nil)
		return
	}

	subtasks := d.Subtasks
	if subtasks == nil {
		subtasks = []string{}
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	cerr.SetJSONResponse(ctx, generateResponse{
		Title:                   d.Title,
		Subtasks:                subtasks,
		Tags:                    tags,
		Deadline:                d.Deadline,
		Priority:                d.Priority,
		OriginalTaskDescription: description,
	})
}
