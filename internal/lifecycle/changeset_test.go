package lifecycle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/taskflow-app/taskflow-api/internal/domain"
)

func TestClassifyAssignment(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	sameAsA := userA

	cases := []struct {
		name string
		old  *uuid.UUID
		new  *uuid.UUID
		want AssignmentKind
	}{
		{"nil to nil", nil, nil, AssignmentNoChange},
		{"nil to user", nil, &userA, AssignmentAssigned},
		{"user to nil", &userA, nil, AssignmentUnassigned},
		{"same user", &userA, &sameAsA, AssignmentNoChange},
		{"different user", &userA, &userB, AssignmentReassigned},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyAssignment(tc.old, tc.new))
		})
	}
}

func TestChangeSet(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		cs := NewChangeSet()
		assert.True(t, cs.Empty())
		assert.False(t, cs.Has(FieldStatus))
	})

	t.Run("created set is not empty", func(t *testing.T) {
		cs := NewChangeSet()
		cs.Created = true
		assert.False(t, cs.Empty())
	})

	t.Run("status change accessor", func(t *testing.T) {
		cs := NewChangeSet()
		cs.record(FieldStatus, domain.TaskStatusDoing, domain.TaskStatusVerified)

		old, new, ok := cs.StatusChange()
		assert.True(t, ok)
		assert.Equal(t, domain.TaskStatusDoing, old)
		assert.Equal(t, domain.TaskStatusVerified, new)
	})

	t.Run("user change accessor", func(t *testing.T) {
		userA := uuid.New()
		userB := uuid.New()
		cs := NewChangeSet()
		cs.record(FieldAssigneeID, &userA, &userB)

		old, new, kind := cs.UserChange(FieldAssigneeID)
		assert.Equal(t, AssignmentReassigned, kind)
		assert.Equal(t, userA, *old)
		assert.Equal(t, userB, *new)
	})

	t.Run("user change on missing field", func(t *testing.T) {
		cs := NewChangeSet()
		_, _, kind := cs.UserChange(FieldVerifierID)
		assert.Equal(t, AssignmentNoChange, kind)
	})
}
