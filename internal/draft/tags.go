package draft

import (
	"errors"
	"strings"

	"github.com/tasknest/tasknest/internal/task"
)

// Tag input is filtered per keystroke and committed on a delimiter. The
// committed text is normalized to lowercase and stored with the "#" marker
// prepended; the raw input buffer lives on the form as pendingTag.

var (
	// ErrTagCharacter rejects a keystroke outside the allowed set. The
	// caller surfaces it as an advisory; the previous input is kept.
	ErrTagCharacter = errors.New("valid tag characters are a-z, 0-9, - and _")
	// ErrTagLimit rejects a commit beyond the per-task tag capacity.
	ErrTagLimit = errors.New("a task can have at most 2 tags")
	// ErrTagDuplicate rejects a commit whose text is already present.
	ErrTagDuplicate = errors.New("tag already added")
)

// delimiter runes end the current tag instead of joining its text, so the
// per-keystroke filter lets them through.
func isTagDelimiter(r rune) bool {
	return r == ',' || r == ';'
}

func isTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '-' || r == '_'
}

// PendingTag returns the current raw tag input.
func (f *Form) PendingTag() string {
	return f.pendingTag
}

// TagInput replaces the raw tag input with the given value, filtering per
// keystroke: once the input is longer than one rune, a last rune outside the
// allowed set (and not a delimiter) rejects the whole value and keeps the
// previous input. Input beyond the maximum tag length is dropped silently,
// like a maxlength attribute.
func (f *Form) TagInput(input string) error {
	runes := []rune(input)
	if len(runes) > task.MaxTagTextLen {
		return nil
	}
	if len(runes) > 1 {
		last := runes[len(runes)-1]
		if !isTagRune(last) && !isTagDelimiter(last) {
			return ErrTagCharacter
		}
	}
	f.pendingTag = input
	return nil
}

// CommitTag turns the pending input into a tag. The text is trimmed,
// lowercased and has a single trailing rune outside the allowed set stripped;
// the result is then rejected if it duplicates an existing tag or exceeds
// capacity, otherwise stored with its "#" marker. The pending input clears
// whatever the outcome.
func (f *Form) CommitTag() error {
	text := strings.ToLower(strings.TrimSpace(f.pendingTag))
	f.pendingTag = ""

	if len(f.draft.Tags) >= task.MaxTags {
		return ErrTagLimit
	}

	if !task.ValidTagText(text) {
		runes := []rune(text)
		if len(runes) > 0 {
			text = string(runes[:len(runes)-1])
		}
	}
	if text == "" {
		return nil
	}
	// Dedup on the stripped text, so "home," collides with an existing #home.
	for _, tag := range f.draft.Tags {
		if task.StripTagMarker(tag.Text) == text {
			return ErrTagDuplicate
		}
	}
	f.draft.Tags = append(f.draft.Tags, Tag{
		ID:   text,
		Text: task.TagMarker + text,
	})
	return nil
}

// RemoveTag deletes the tag at the given position; out-of-range positions
// are ignored.
func (f *Form) RemoveTag(i int) {
	if i < 0 || i >= len(f.draft.Tags) {
		return
	}
	f.draft.Tags = append(f.draft.Tags[:i], f.draft.Tags[i+1:]...)
}
