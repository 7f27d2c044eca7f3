// Package authoring orchestrates the task creation page: two mutually
// exclusive modes (manual form entry and AI-assisted drafting), a persisted
// mode preference and the submission flow around the draft form.
package authoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tasknest/tasknest/internal/assist"
	"github.com/tasknest/tasknest/internal/draft"
	"github.com/tasknest/tasknest/internal/task"
	"github.com/tasknest/tasknest/pkg/cerr"
)

type Mode string

const (
	ModeManual   Mode = "manual"
	ModeAssisted Mode = "assisted"
)

func (m Mode) Valid() bool {
	return m == ModeManual || m == ModeAssisted
}

// ModeStore persists the authoring-mode preference across sessions. The
// preference is loaded once at flow construction and written back on every
// explicit switch; nothing reads it ambiently after that.
type ModeStore interface {
	Load(ctx context.Context) (Mode, error)
	Save(ctx context.Context, mode Mode) error
}

// Notifier surfaces the outcome banners of a submission.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// Uploader stores a selected image and returns its serving reference.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

var ErrBusy = cerr.NewError(cerr.FailedPrecondition, "a submission is already in flight", nil)

// Flow drives one authoring session. At most one submission runs at a time;
// the loading flag rejects re-entry while a call is in flight.
type Flow struct {
	modes     ModeStore
	repo      task.Repository
	generator assist.Generator
	uploader  Uploader
	notifier  Notifier
	logger    *slog.Logger

	mu           sync.Mutex
	mode         Mode
	loading      bool
	form         *draft.Form
	editingID    string
	assistFailed bool
}

// NewFlow builds a flow with the persisted mode preference and an empty
// form. A missing or invalid preference falls back to manual.
func NewFlow(
	ctx context.Context,
	modes ModeStore,
	repo task.Repository,
	generator assist.Generator,
	uploader Uploader,
	notifier Notifier,
	logger *slog.Logger,
) (*Flow, error) {
	mode, err := modes.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load authoring mode: %w", err)
	}
	if !mode.Valid() {
		mode = ModeManual
	}
	return &Flow{
		modes:     modes,
		repo:      repo,
		generator: generator,
		uploader:  uploader,
		notifier:  notifier,
		logger:    logger,
		mode:      mode,
		form:      draft.NewForm(draft.Empty{}),
	}, nil
}

func (f *Flow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// SetMode switches the authoring mode and persists the preference.
func (f *Flow) SetMode(ctx context.Context, mode Mode) error {
	if !mode.Valid() {
		return cerr.NewError(cerr.InvalidArgument, "unknown authoring mode", nil)
	}
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
	if err := f.modes.Save(ctx, mode); err != nil {
		return fmt.Errorf("failed to save authoring mode: %w", err)
	}
	return nil
}

func (f *Flow) Form() *draft.Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

func (f *Flow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// AssistFailed reports whether the last assisted submission produced no
// usable draft; the form uses it to explain why it came back empty.
func (f *Flow) AssistFailed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assistFailed
}

// StartEdit seeds the form from an existing record and targets subsequent
// submissions at it.
func (f *Flow) StartEdit(ctx context.Context, id string) error {
	t, err := f.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form = draft.NewForm(draft.FromExisting{Task: t})
	f.editingID = id
	f.mode = ModeManual
	return nil
}

func (f *Flow) beginSubmission() (*draft.Form, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return nil, ErrBusy
	}
	f.loading = true
	return f.form, nil
}

func (f *Flow) endSubmission() {
	f.mu.Lock()
	f.loading = false
	f.mu.Unlock()
}

// Submit finalizes the form and writes the record to the store. If an image
// was selected, its upload precedes the main call and the resulting
// reference is merged into the record. The notification reflects the actual
// store outcome.
func (f *Flow) Submit(ctx context.Context, now time.Time) (*task.Task, error) {
	form, err := f.beginSubmission()
	if err != nil {
		return nil, err
	}
	defer f.endSubmission()

	if name, data, ok := form.PendingImage(); ok {
		url, err := f.uploader.Upload(ctx, name, data)
		if err != nil {
			f.notifier.Failure("Image upload failed")
			return nil, err
		}
		form.SetImageURL(url)
	}

	editing := form.Editing()
	t := form.Finalize(now)
	if editing {
		f.mu.Lock()
		t.ID = f.editingID
		f.mu.Unlock()
	} else {
		t.ID = ulid.Make().String()
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		f.notifier.Failure("Task is not valid: " + err.Error())
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}

	if editing {
		err = f.repo.Update(ctx, t)
	} else {
		err = f.repo.Create(ctx, t)
	}
	if err != nil {
		f.logger.ErrorContext(ctx, "task submission failed", "error", err)
		f.notifier.Failure("Task could not be saved")
		return nil, err
	}

	f.mu.Lock()
	f.form = draft.NewForm(draft.Empty{})
	f.editingID = ""
	f.mu.Unlock()

	if editing {
		f.notifier.Success("Task updated")
	} else {
		f.notifier.Success("Task created")
	}
	return t, nil
}

// SubmitDescription sends a free-form description to the draft generator.
// A usable draft prefills the form and switches the flow to manual; an
// unusable draft or a failed call resets the form to an empty draft that
// carries only the original description forward, keeps the flow in assisted
// mode and flags the failure. Generation errors are absorbed here: the user
// revises the prompt and retries.
func (f *Flow) SubmitDescription(ctx context.Context, description string) error {
	if _, err := f.beginSubmission(); err != nil {
		return err
	}
	defer f.endSubmission()

	d, err := f.generator.GenerateDraft(ctx, description)
	if err != nil {
		f.logger.ErrorContext(ctx, "draft generation failed", "error", err)
	}
	if err != nil || !d.Usable() {
		f.mu.Lock()
		f.form = draft.NewForm(draft.FromAIDraft{Draft: draft.Draft{
			OriginalTaskDescription: description,
		}})
		f.assistFailed = true
		f.mu.Unlock()
		f.notifier.Failure("Could not generate a task from the description")
		return nil
	}

	seed := draft.Draft{
		Title:                   d.Title,
		Subtasks:                []task.Subtask{},
		Tags:                    []draft.Tag{},
		Deadline:                d.Deadline,
		OriginalTaskDescription: description,
	}
	for _, value := range d.Subtasks {
		seed.Subtasks = append(seed.Subtasks, task.Subtask{
			ID:    ulid.Make().String(),
			Value: value,
		})
	}
	for _, text := range d.Tags {
		if len(seed.Tags) >= task.MaxTags {
			break
		}
		stripped := task.StripTagMarker(text)
		seed.Tags = append(seed.Tags, draft.Tag{
			ID:   stripped,
			Text: task.TagMarker + stripped,
		})
	}
	if p := task.Priority(d.Priority); p.Valid() {
		seed.Priority = p
	}

	f.mu.Lock()
	f.form = draft.NewForm(draft.FromAIDraft{Draft: seed})
	f.mode = ModeManual
	f.assistFailed = false
	f.mu.Unlock()

	if err := f.modes.Save(ctx, ModeManual); err != nil {
		f.logger.WarnContext(ctx, "failed to save authoring mode", "error", err)
	}
	f.notifier.Success("Draft generated, review and submit")
	return nil
}
