package task

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/tasknest/tasknest/internal/eventbus"
	"github.com/tasknest/tasknest/pkg/cerr"
)

type Server struct {
	repo     Repository
	eventBus *eventbus.Bus
}

func NewServer(repo Repository, eventBus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		eventBus: eventBus,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/tasks", s.handleList)
	r.Post("/tasks", s.handleCreate)
	r.Route("/tasks/{id}", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Patch("/", s.handleUpdate)
		r.Delete("/", s.handleDelete)
	})
}

// taskPayload is the wire shape of a task submission. Deadline arrives either
// as a bare calendar date (what a date input produces) or as a full
// timestamp, so it is parsed by hand.
type taskPayload struct {
	Title                   string     `json:"title"`
	Subtasks                []Subtask  `json:"subtasks"`
	Tags                    []string   `json:"tags"`
	Deadline                string     `json:"deadline"`
	Priority                string     `json:"priority"`
	OriginalTaskDescription string     `json:"original_task_description"`
	ImageURL                string     `json:"image_url"`
	CreationDate            *time.Time `json:"creation_date"`
	EditDate                *time.Time `json:"edit_date"`
}

func (p *taskPayload) toTask(now time.Time) (*Task, error) {
	deadline, err := parseDeadline(p.Deadline)
	if err != nil {
		return nil, err
	}
	t := &Task{
		Title:                   p.Title,
		Subtasks:                p.Subtasks,
		Tags:                    p.Tags,
		Deadline:                deadline,
		Priority:                Priority(p.Priority),
		OriginalTaskDescription: p.OriginalTaskDescription,
		ImageURL:                p.ImageURL,
		CreationDate:            now,
		EditDate:                p.EditDate,
	}
	if p.CreationDate != nil {
		t.CreationDate = *p.CreationDate
	}
	return t, nil
}

func parseDeadline(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q", s)
	}
	return &t, nil
}

type listResponse struct {
	Tasks      []*Task            `json:"tasks"`
	Pagination paginationResponse `json:"pagination"`
}

type paginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	priority := Priority(r.URL.Query().Get("priority"))
	tag := r.URL.Query().Get("tag")

	tasks, total, err := s.repo.List(ctx, priority, tag, limit, offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	cerr.SetJSONResponse(ctx, listResponse{
		Tasks: tasks,
		Pagination: paginationResponse{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := payload.toTask(time.Now())
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
		return
	}
	t.ID = ulid.Make().String()
	t.EditDate = nil
	t.Normalize()
	if err := t.Validate(); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
		return
	}
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.EventTypeTaskCreated, t.ID, "", map[string]string{"title": t.Title})

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, t)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

// handleUpdate replaces the whole record: edits are re-submissions of the
// full task, not field patches.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := payload.toTask(existing.CreationDate)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
		return
	}
	t.ID = id
	if t.EditDate == nil {
		now := time.Now()
		t.EditDate = &now
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
		return
	}
	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.EventTypeTaskUpdated, t.ID, "", map[string]string{"title": t.Title})

	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	// Fetch before delete for event metadata.
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.EventTypeTaskDeleted, id, "", map[string]string{"title": t.Title})

	cerr.SetJSONResponse(ctx, struct{}{})
}
