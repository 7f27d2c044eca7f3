package task

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	errTitleRequired   = errors.New("title is required")
	errTitleTooLong    = errors.New("title is too long")
	errSubtaskTooLong  = errors.New("subtask is too long")
	errTooManyTags     = errors.New("too many tags")
	errInvalidTag      = errors.New("invalid tag text")
	errDuplicateTag    = errors.New("duplicate tag")
	errInvalidPriority = errors.New("invalid priority")
)

// TagMarker is the leading symbol prepended to stored tag text.
const TagMarker = "#"

const (
	MaxTags       = 2
	MaxTitleLen   = 50
	MaxSubtaskLen = 84
	MaxTagTextLen = 12
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityNone:
		return true
	}
	return false
}

// Subtask keeps a client-generated id next to its text. The id only gives
// the entry a stable editing identity; it carries no persisted semantics.
type Subtask struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
}

type Task struct {
	ID                      string     `json:"id" yaml:"id"`
	Title                   string     `json:"title" yaml:"title"`
	Subtasks                []Subtask  `json:"subtasks" yaml:"subtasks"`
	Tags                    []string   `json:"tags" yaml:"tags"`
	Deadline                *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Priority                Priority   `json:"priority" yaml:"priority"`
	OriginalTaskDescription string     `json:"original_task_description,omitempty" yaml:"original_task_description,omitempty"`
	ImageURL                string     `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	CreationDate            time.Time  `json:"creation_date" yaml:"creation_date"`
	EditDate                *time.Time `json:"edit_date,omitempty" yaml:"edit_date,omitempty"`
}

var tagTextPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// ValidTagText reports whether s is acceptable tag text (without the marker).
func ValidTagText(s string) bool {
	return tagTextPattern.MatchString(s)
}

// StripTagMarker returns the tag text without its leading marker.
func StripTagMarker(tag string) string {
	return strings.TrimPrefix(tag, TagMarker)
}

// Normalize applies the at-rest defaults: empty subtask values are dropped
// and an unset priority becomes none.
func (t *Task) Normalize() {
	kept := t.Subtasks[:0]
	for _, st := range t.Subtasks {
		if st.Value != "" {
			kept = append(kept, st)
		}
	}
	t.Subtasks = kept
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Priority == "" {
		t.Priority = PriorityNone
	}
}

// Validate checks the at-rest invariants of a task record.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errTitleRequired
	}
	if len([]rune(t.Title)) > MaxTitleLen {
		return errTitleTooLong
	}
	for _, st := range t.Subtasks {
		if len([]rune(st.Value)) > MaxSubtaskLen {
			return errSubtaskTooLong
		}
	}
	if len(t.Tags) > MaxTags {
		return errTooManyTags
	}
	seen := make(map[string]struct{}, len(t.Tags))
	for _, tag := range t.Tags {
		text := StripTagMarker(tag)
		if !ValidTagText(text) {
			return errInvalidTag
		}
		key := strings.ToLower(strings.TrimSpace(text))
		if _, ok := seen[key]; ok {
			return errDuplicateTag
		}
		seen[key] = struct{}{}
	}
	if !t.Priority.Valid() {
		return errInvalidPriority
	}
	return nil
}
