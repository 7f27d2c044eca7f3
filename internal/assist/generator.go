// Package assist generates task drafts from a free-form description via a
// completion service. A generated draft seeds the authoring form; it never
// touches the task store directly.
package assist

import (
	"context"
	"strings"
)

// Draft is the raw generated draft: subtasks are bare strings here and only
// get editing identities when the draft seeds a form.
type Draft struct {
	Title    string   `json:"title"`
	Subtasks []string `json:"subtasks"`
	Tags     []string `json:"tags,omitempty"`
	Deadline string   `json:"deadline,omitempty"`
	Priority string   `json:"priority,omitempty"`
}

// Usable reports whether the draft is worth handing to the form: it needs a
// non-empty title and at least one subtask. Anything less is treated as a
// failed generation.
func (d *Draft) Usable() bool {
	return strings.TrimSpace(d.Title) != "" && len(d.Subtasks) > 0
}

type Generator interface {
	GenerateDraft(ctx context.Context, description string) (*Draft, error)
}
