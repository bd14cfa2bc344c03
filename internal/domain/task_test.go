package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Run("valid task", func(t *testing.T) {
		creatorID := uuid.New()
		task, err := NewTask(creatorID, "Prepare release notes")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, TaskStatusNew, task.Status)
		assert.Equal(t, TaskPriorityMedium, task.Priority)
		assert.Equal(t, creatorID, task.CreatorID)
		assert.Nil(t, task.AssigneeID)
		assert.Nil(t, task.VerifierID)
		assert.False(t, task.IsDeleted())
	})

	t.Run("empty title", func(t *testing.T) {
		_, err := NewTask(uuid.New(), "")
		assert.ErrorIs(t, err, ErrTaskTitleEmpty)
	})

	t.Run("empty creator", func(t *testing.T) {
		_, err := NewTask(uuid.Nil, "title")
		assert.ErrorIs(t, err, ErrTaskCreatorEmpty)
	})
}

func TestTaskValidate_Status(t *testing.T) {
	task, err := NewTask(uuid.New(), "title")
	require.NoError(t, err)

	for _, status := range TaskStatuses {
		task.Status = status
		assert.NoError(t, task.Validate(), "status %s should validate", status)
	}

	// The workflow is permissive: a status outside the vocabulary is stored
	// as-is, it just routes no notifications. Only an empty status is invalid.
	task.Status = TaskStatus("archived")
	assert.NoError(t, task.Validate())

	task.Status = ""
	assert.ErrorIs(t, task.Validate(), ErrInvalidTaskStatus)
}

func TestTaskClone(t *testing.T) {
	assignee := uuid.New()
	due := time.Now().UTC().Add(24 * time.Hour)

	task, err := NewTask(uuid.New(), "title")
	require.NoError(t, err)
	task.AssigneeID = &assignee
	task.DueAt = &due

	clone := task.Clone()

	// Mutating the clone must not touch the original snapshot.
	other := uuid.New()
	clone.AssigneeID = &other
	*clone.DueAt = due.Add(time.Hour)

	assert.Equal(t, assignee, *task.AssigneeID)
	assert.Equal(t, due, *task.DueAt)
}
