package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagInputFiltersInvalidRune(t *testing.T) {
	f := NewForm(Empty{})

	require.NoError(t, f.TagInput("h"))
	require.NoError(t, f.TagInput("ho"))
	err := f.TagInput("ho!")
	assert.ErrorIs(t, err, ErrTagCharacter)
	// The previous input survives the rejected keystroke.
	assert.Equal(t, "ho", f.PendingTag())
}

func TestTagInputAllowsDelimiters(t *testing.T) {
	f := NewForm(Empty{})

	assert.NoError(t, f.TagInput("home,"))
	assert.NoError(t, f.TagInput("home;"))
}

func TestTagInputDropsOverlongValue(t *testing.T) {
	f := NewForm(Empty{})
	require.NoError(t, f.TagInput("twelvechars_"))

	assert.NoError(t, f.TagInput("twelvechars_x"))
	assert.Equal(t, "twelvechars_", f.PendingTag())
}

func TestCommitTagNormalizes(t *testing.T) {
	f := NewForm(Empty{})

	require.NoError(t, f.TagInput("Home"))
	require.NoError(t, f.CommitTag())

	d := f.Draft()
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "#home", d.Tags[0].Text)
	assert.Empty(t, f.PendingTag())
}

func TestCommitTagStripsTrailingDelimiter(t *testing.T) {
	f := NewForm(Empty{})

	require.NoError(t, f.TagInput("home,"))
	require.NoError(t, f.CommitTag())

	d := f.Draft()
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "#home", d.Tags[0].Text)
}

func TestCommitTagRejectsDuplicateAfterDelimiterStrip(t *testing.T) {
	f := NewForm(Empty{})

	require.NoError(t, f.TagInput("home"))
	require.NoError(t, f.CommitTag())
	require.NoError(t, f.TagInput("home,"))
	err := f.CommitTag()

	assert.ErrorIs(t, err, ErrTagDuplicate)
	d := f.Draft()
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "#home", d.Tags[0].Text)
}

func TestCommitTagRejectsDuplicateCaseInsensitive(t *testing.T) {
	f := NewForm(Empty{})

	require.NoError(t, f.TagInput("home"))
	require.NoError(t, f.CommitTag())
	require.NoError(t, f.TagInput("HOME"))
	err := f.CommitTag()

	assert.ErrorIs(t, err, ErrTagDuplicate)
	assert.Len(t, f.Draft().Tags, 1)
	assert.Empty(t, f.PendingTag())
}

func TestCommitTagRejectsBeyondLimit(t *testing.T) {
	f := NewForm(Empty{})

	require.NoError(t, f.TagInput("home"))
	require.NoError(t, f.CommitTag())
	require.NoError(t, f.TagInput("work"))
	require.NoError(t, f.CommitTag())
	require.NoError(t, f.TagInput("extra"))
	err := f.CommitTag()

	assert.ErrorIs(t, err, ErrTagLimit)
	assert.Len(t, f.Draft().Tags, 2)
}

func TestCommitTagEmptyInputIsNoop(t *testing.T) {
	f := NewForm(Empty{})

	require.NoError(t, f.CommitTag())

	assert.Empty(t, f.Draft().Tags)
}

func TestRemoveTag(t *testing.T) {
	f := NewForm(Empty{})
	require.NoError(t, f.TagInput("home"))
	require.NoError(t, f.CommitTag())
	require.NoError(t, f.TagInput("work"))
	require.NoError(t, f.CommitTag())

	f.RemoveTag(0)

	d := f.Draft()
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "#work", d.Tags[0].Text)

	f.RemoveTag(5) // out of range, ignored
	assert.Len(t, f.Draft().Tags, 1)
}
