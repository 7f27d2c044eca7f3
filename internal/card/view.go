// Package card models the presentation state of a single task card: a small
// state machine over a read-only task record. The card never mutates the
// record; deletion is requested through it but executed by the caller.
package card

import (
	"errors"
	"fmt"

	"github.com/tasknest/tasknest/internal/task"
)

type State int

const (
	// StatePreview is the collapsed default.
	StatePreview State = iota
	// StateDetails is the expanded card.
	StateDetails
	// StateImageFullView is the full-screen image overlay.
	StateImageFullView
	// StateDeleteConfirm is the full-screen delete confirmation overlay.
	StateDeleteConfirm
)

func (s State) String() string {
	switch s {
	case StatePreview:
		return "preview"
	case StateDetails:
		return "details"
	case StateImageFullView:
		return "image-full-view"
	case StateDeleteConfirm:
		return "delete-confirm"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrInvalidTransition = errors.New("invalid card state transition")
	ErrNoImage           = errors.New("task has no image")
)

// View is the card's visibility state. The four top-level states are
// mutually exclusive; the original-description block is a nested toggle
// inside details, not a state of its own.
type View struct {
	task            *task.Task
	state           State
	showDescription bool
}

func NewView(t *task.Task) *View {
	return &View{task: t}
}

func (v *View) Task() *task.Task {
	return v.task
}

func (v *View) State() State {
	return v.state
}

// ToggleDetails flips between the collapsed preview and the expanded
// details. It is rejected while an overlay is open.
func (v *View) ToggleDetails() error {
	switch v.state {
	case StatePreview:
		v.state = StateDetails
	case StateDetails:
		v.state = StatePreview
		v.showDescription = false
	default:
		return ErrInvalidTransition
	}
	return nil
}

// ShowImage opens the full-screen image overlay from the details view.
func (v *View) ShowImage() error {
	if v.state != StateDetails {
		return ErrInvalidTransition
	}
	if v.task.ImageURL == "" {
		return ErrNoImage
	}
	v.state = StateImageFullView
	return nil
}

// CloseImage dismisses the image overlay back to details.
func (v *View) CloseImage() error {
	if v.state != StateImageFullView {
		return ErrInvalidTransition
	}
	v.state = StateDetails
	return nil
}

// RequestDelete opens the delete confirmation overlay from the details view.
func (v *View) RequestDelete() error {
	if v.state != StateDetails {
		return ErrInvalidTransition
	}
	v.state = StateDeleteConfirm
	return nil
}

// AbortDelete dismisses the confirmation overlay back to details.
func (v *View) AbortDelete() error {
	if v.state != StateDeleteConfirm {
		return ErrInvalidTransition
	}
	v.state = StateDetails
	return nil
}

// ConfirmDelete accepts the confirmation and returns the id the caller must
// delete; the card itself is done after this.
func (v *View) ConfirmDelete() (string, error) {
	if v.state != StateDeleteConfirm {
		return "", ErrInvalidTransition
	}
	return v.task.ID, nil
}

// ToggleDescription flips the original-description block inside details.
func (v *View) ToggleDescription() error {
	if v.state != StateDetails {
		return ErrInvalidTransition
	}
	v.showDescription = !v.showDescription
	return nil
}

func (v *View) ShowDescription() bool {
	return v.state == StateDetails && v.showDescription
}

// FormatDeadline renders the deadline as a short "until <day> <month>"
// string with English month abbreviations; no deadline yields an empty
// string, which suppresses the whole element.
func FormatDeadline(t *task.Task) string {
	if t.Deadline == nil {
		return ""
	}
	return "until " + t.Deadline.Format("2 Jan")
}

// PriorityLabel is the visible priority text; none renders nothing.
func PriorityLabel(p task.Priority) string {
	if p == task.PriorityNone || p == "" {
		return ""
	}
	return string(p)
}

// PriorityVariant names the styling variant for a priority. Unlike the
// label it always resolves, so the card keeps a consistent look even for
// unprioritized tasks.
func PriorityVariant(p task.Priority) string {
	switch p {
	case task.PriorityHigh, task.PriorityMedium, task.PriorityLow:
		return string(p)
	}
	return string(task.PriorityNone)
}
