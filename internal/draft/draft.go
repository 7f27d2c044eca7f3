// Package draft holds the transient, unsaved state of a task being authored
// and reconciles it against at most one external seed: an existing persisted
// task (edit) or an AI-generated draft (assisted create). The persisted
// record is only produced at Finalize time; until then nothing leaves the
// form.
package draft

import (
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tasknest/tasknest/internal/task"
)

// Tag is the editing shape of a tag: a stable id next to its display text.
type Tag struct {
	ID   string
	Text string
}

// Draft mirrors the form fields. Deadline is a bare calendar date string,
// exactly what a date input holds; Priority stays empty until chosen.
type Draft struct {
	Title                   string
	Subtasks                []task.Subtask
	Tags                    []Tag
	Deadline                string
	Priority                task.Priority
	OriginalTaskDescription string
	ImageURL                string
}

func emptyDraft() Draft {
	return Draft{
		Subtasks: []task.Subtask{},
		Tags:     []Tag{},
	}
}

// Source selects the single seed a form is reconciled against. The variants
// are mutually exclusive per form; precedence never comes into it.
type Source interface {
	seed() (Draft, bool)
}

// Empty seeds nothing: the draft stays at its initial value.
type Empty struct{}

func (Empty) seed() (Draft, bool) {
	return emptyDraft(), false
}

// FromExisting seeds the form from a persisted task (edit mode). Tags are
// reformatted into {id, text} pairs with 1-based positions as ids, and the
// deadline is reduced to its calendar date.
type FromExisting struct {
	Task *task.Task
}

func (s FromExisting) seed() (Draft, bool) {
	t := s.Task
	d := emptyDraft()
	d.Title = t.Title
	d.Subtasks = append([]task.Subtask{}, t.Subtasks...)
	for i, tag := range t.Tags {
		d.Tags = append(d.Tags, Tag{ID: strconv.Itoa(i + 1), Text: tag})
	}
	if t.Deadline != nil {
		d.Deadline = t.Deadline.UTC().Format("2006-01-02")
	}
	d.Priority = t.Priority
	d.OriginalTaskDescription = t.OriginalTaskDescription
	d.ImageURL = t.ImageURL
	return d, true
}

// FromAIDraft seeds the form from an AI-generated draft (assisted create).
// The draft is copied in as-is; the authoring flow has already reshaped it.
type FromAIDraft struct {
	Draft Draft
}

func (s FromAIDraft) seed() (Draft, bool) {
	d := s.Draft
	if d.Subtasks == nil {
		d.Subtasks = []task.Subtask{}
	}
	if d.Tags == nil {
		d.Tags = []Tag{}
	}
	return d, false
}

type FocusField int

const (
	FocusNone FocusField = iota
	FocusTitle
	FocusSubtask
)

// FocusTarget names the input the rendering layer should focus after the
// next state commit.
type FocusTarget struct {
	Field     FocusField
	SubtaskID string
}

// Form owns a Draft plus the editing state around it: the pending tag input,
// the pending focus target and an optionally selected image awaiting upload.
type Form struct {
	draft      Draft
	editing    bool
	pendingTag string
	focus      FocusTarget

	imageName string
	imageData []byte
}

// NewForm builds a form seeded from src. The title field receives focus on
// mount.
func NewForm(src Source) *Form {
	if src == nil {
		src = Empty{}
	}
	d, editing := src.seed()
	return &Form{
		draft:   d,
		editing: editing,
		focus:   FocusTarget{Field: FocusTitle},
	}
}

// Draft returns a copy of the current draft state.
func (f *Form) Draft() Draft {
	d := f.draft
	d.Subtasks = append([]task.Subtask{}, f.draft.Subtasks...)
	d.Tags = append([]Tag{}, f.draft.Tags...)
	return d
}

func (f *Form) Editing() bool {
	return f.editing
}

// TakeFocus returns the pending focus target and clears it, so the rendering
// layer applies it exactly once per state commit.
func (f *Form) TakeFocus() (FocusTarget, bool) {
	if f.focus.Field == FocusNone {
		return FocusTarget{}, false
	}
	target := f.focus
	f.focus = FocusTarget{}
	return target, true
}

func (f *Form) SetTitle(title string) {
	f.draft.Title = clamp(title, task.MaxTitleLen)
}

func (f *Form) SetDeadline(date string) {
	f.draft.Deadline = date
}

// SetPriority is a single-select: choosing a priority replaces the previous
// choice.
func (f *Form) SetPriority(p task.Priority) {
	f.draft.Priority = p
}

// AddSubtask appends an empty subtask with a fresh id and requests focus for
// it. The returned id is the new entry's editing identity.
func (f *Form) AddSubtask() string {
	id := ulid.Make().String()
	f.draft.Subtasks = append(f.draft.Subtasks, task.Subtask{ID: id})
	f.focus = FocusTarget{Field: FocusSubtask, SubtaskID: id}
	return id
}

// EditSubtask updates the value of the subtask with the given id in place.
// Identity never changes; unknown ids are ignored.
func (f *Form) EditSubtask(id, value string) {
	for i := range f.draft.Subtasks {
		if f.draft.Subtasks[i].ID == id {
			f.draft.Subtasks[i].Value = clamp(value, task.MaxSubtaskLen)
			return
		}
	}
}

// DeleteSubtask removes the subtask with the given id. The order and ids of
// the remaining entries are untouched.
func (f *Form) DeleteSubtask(id string) {
	kept := f.draft.Subtasks[:0]
	for _, st := range f.draft.Subtasks {
		if st.ID != id {
			kept = append(kept, st)
		}
	}
	f.draft.Subtasks = kept
}

// SelectImage stages an uploaded file for the next submission.
func (f *Form) SelectImage(name string, data []byte) {
	f.imageName = name
	f.imageData = data
}

// ClearImage drops both the staged file and any image reference already on
// the draft.
func (f *Form) ClearImage() {
	f.imageName = ""
	f.imageData = nil
	f.draft.ImageURL = ""
}

// PendingImage returns the staged file, if any.
func (f *Form) PendingImage() (name string, data []byte, ok bool) {
	if f.imageName == "" {
		return "", nil, false
	}
	return f.imageName, f.imageData, true
}

// SetImageURL records the uploaded image reference on the draft; the
// authoring flow calls this after the upload that precedes submission.
func (f *Form) SetImageURL(url string) {
	f.draft.ImageURL = url
}

// Finalize serializes the draft into a submittable record: empty subtask
// values are dropped, tags reduce to their text, an unset priority defaults
// to none, and the timestamps are stamped (edit date only when the form was
// seeded from an existing task). The form then resets and focus returns to
// the title field.
func (f *Form) Finalize(now time.Time) *task.Task {
	t := &task.Task{
		Title:                   f.draft.Title,
		Subtasks:                []task.Subtask{},
		Tags:                    []string{},
		Priority:                f.draft.Priority,
		OriginalTaskDescription: f.draft.OriginalTaskDescription,
		ImageURL:                f.draft.ImageURL,
		CreationDate:            now,
	}
	for _, st := range f.draft.Subtasks {
		if st.Value != "" {
			t.Subtasks = append(t.Subtasks, st)
		}
	}
	for _, tag := range f.draft.Tags {
		t.Tags = append(t.Tags, tag.Text)
	}
	if f.draft.Deadline != "" {
		if deadline, err := time.Parse("2006-01-02", f.draft.Deadline); err == nil {
			t.Deadline = &deadline
		}
	}
	if t.Priority == "" {
		t.Priority = task.PriorityNone
	}
	if f.editing {
		edit := now
		t.EditDate = &edit
	}

	f.Reset()
	return t
}

// Reset clears the draft, the pending tag input and any selected image,
// independent of submission. Focus returns to the title field.
func (f *Form) Reset() {
	f.draft = emptyDraft()
	f.pendingTag = ""
	f.imageName = ""
	f.imageData = nil
	f.focus = FocusTarget{Field: FocusTitle}
}

func clamp(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
