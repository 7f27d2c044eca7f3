package draft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/task"
)

func TestNewFormEmpty(t *testing.T) {
	f := NewForm(Empty{})

	d := f.Draft()
	assert.Empty(t, d.Title)
	assert.Empty(t, d.Subtasks)
	assert.Empty(t, d.Tags)
	assert.Empty(t, d.Deadline)
	assert.Empty(t, string(d.Priority))
	assert.False(t, f.Editing())

	focus, ok := f.TakeFocus()
	require.True(t, ok)
	assert.Equal(t, FocusTitle, focus.Field)
}

func TestNewFormFromExisting(t *testing.T) {
	deadline := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	existing := &task.Task{
		ID:    "01TASK",
		Title: "plan the move",
		Subtasks: []task.Subtask{
			{ID: "a", Value: "book movers"},
		},
		Tags:                    []string{"#home", "#urgent"},
		Deadline:                &deadline,
		Priority:                task.PriorityHigh,
		OriginalTaskDescription: "we are moving next month",
		ImageURL:                "/api/tasks/image/boxes.png",
	}

	f := NewForm(FromExisting{Task: existing})

	d := f.Draft()
	assert.Equal(t, "plan the move", d.Title)
	require.Len(t, d.Tags, 2)
	assert.Equal(t, Tag{ID: "1", Text: "#home"}, d.Tags[0])
	assert.Equal(t, Tag{ID: "2", Text: "#urgent"}, d.Tags[1])
	assert.Equal(t, "2026-03-14", d.Deadline)
	assert.Equal(t, task.PriorityHigh, d.Priority)
	assert.Equal(t, "we are moving next month", d.OriginalTaskDescription)
	assert.True(t, f.Editing())
}

func TestNewFormFromAIDraft(t *testing.T) {
	seed := Draft{
		Title: "water the plants",
		Subtasks: []task.Subtask{
			{ID: "x", Value: "fill the can"},
		},
	}

	f := NewForm(FromAIDraft{Draft: seed})

	d := f.Draft()
	assert.Equal(t, "water the plants", d.Title)
	require.Len(t, d.Subtasks, 1)
	assert.NotNil(t, d.Tags)
	assert.False(t, f.Editing())
}

func TestAddSubtaskFocusAppliedOnce(t *testing.T) {
	f := NewForm(Empty{})
	f.TakeFocus() // consume the mount focus

	id := f.AddSubtask()
	require.NotEmpty(t, id)

	focus, ok := f.TakeFocus()
	require.True(t, ok)
	assert.Equal(t, FocusSubtask, focus.Field)
	assert.Equal(t, id, focus.SubtaskID)

	_, ok = f.TakeFocus()
	assert.False(t, ok)
}

func TestEditSubtaskKeepsIdentityAndOrder(t *testing.T) {
	f := NewForm(Empty{})
	first := f.AddSubtask()
	second := f.AddSubtask()
	third := f.AddSubtask()

	f.EditSubtask(second, "buy paint")
	f.EditSubtask("no-such-id", "ignored")

	d := f.Draft()
	require.Len(t, d.Subtasks, 3)
	assert.Equal(t, first, d.Subtasks[0].ID)
	assert.Equal(t, second, d.Subtasks[1].ID)
	assert.Equal(t, "buy paint", d.Subtasks[1].Value)
	assert.Equal(t, third, d.Subtasks[2].ID)
}

func TestDeleteSubtaskPreservesRemaining(t *testing.T) {
	f := NewForm(Empty{})
	first := f.AddSubtask()
	second := f.AddSubtask()
	third := f.AddSubtask()
	f.EditSubtask(first, "one")
	f.EditSubtask(third, "three")

	f.DeleteSubtask(second)

	d := f.Draft()
	require.Len(t, d.Subtasks, 2)
	assert.Equal(t, first, d.Subtasks[0].ID)
	assert.Equal(t, third, d.Subtasks[1].ID)
}

func TestSetTitleClampsLength(t *testing.T) {
	f := NewForm(Empty{})

	long := make([]rune, task.MaxTitleLen+10)
	for i := range long {
		long[i] = 'a'
	}
	f.SetTitle(string(long))

	assert.Len(t, []rune(f.Draft().Title), task.MaxTitleLen)
}

func TestFinalize(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

	f := NewForm(Empty{})
	f.SetTitle("clean the garage")
	kept := f.AddSubtask()
	f.EditSubtask(kept, "sort the shelves")
	f.AddSubtask() // left empty, must be dropped
	f.SetDeadline("2026-02-01")
	require.NoError(t, f.TagInput("home"))
	require.NoError(t, f.CommitTag())

	got := f.Finalize(now)

	assert.Equal(t, "clean the garage", got.Title)
	require.Len(t, got.Subtasks, 1)
	assert.Equal(t, kept, got.Subtasks[0].ID)
	assert.Equal(t, []string{"#home"}, got.Tags)
	require.NotNil(t, got.Deadline)
	assert.Equal(t, "2026-02-01", got.Deadline.Format("2006-01-02"))
	assert.Equal(t, task.PriorityNone, got.Priority)
	assert.Equal(t, now, got.CreationDate)
	assert.Nil(t, got.EditDate)

	// The form resets after hand-off.
	d := f.Draft()
	assert.Empty(t, d.Title)
	assert.Empty(t, d.Subtasks)
	focus, ok := f.TakeFocus()
	require.True(t, ok)
	assert.Equal(t, FocusTitle, focus.Field)
}

func TestFinalizeEditStampsEditDate(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	existing := &task.Task{
		ID:                      "01TASK",
		Title:                   "old title",
		Tags:                    []string{"#home"},
		Priority:                task.PriorityLow,
		OriginalTaskDescription: "original request text",
		CreationDate:            now.AddDate(0, -1, 0),
	}

	f := NewForm(FromExisting{Task: existing})
	f.SetTitle("new title")
	got := f.Finalize(now)

	assert.Equal(t, "new title", got.Title)
	require.NotNil(t, got.EditDate)
	assert.Equal(t, now, *got.EditDate)
	assert.Equal(t, "original request text", got.OriginalTaskDescription)
}

func TestResetClearsPendingState(t *testing.T) {
	f := NewForm(Empty{})
	f.SetTitle("something")
	require.NoError(t, f.TagInput("ho"))
	f.SelectImage("photo.png", []byte{1, 2, 3})

	f.Reset()

	assert.Empty(t, f.Draft().Title)
	assert.Empty(t, f.PendingTag())
	_, _, ok := f.PendingImage()
	assert.False(t, ok)
}

func TestClearImageDropsReference(t *testing.T) {
	f := NewForm(FromExisting{Task: &task.Task{
		Title:    "with image",
		ImageURL: "/api/tasks/image/old.png",
	}})

	f.ClearImage()

	assert.Empty(t, f.Draft().ImageURL)
}
