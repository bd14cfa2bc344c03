package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/content"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// TaskPatch is a partial update to a task. Pointer fields are applied only
// when non-nil; the nullable references (assignee, verifier, dates) carry an
// explicit Set flag so a patch can distinguish "leave untouched" from
// "clear".
type TaskPatch struct {
	Title    *string
	Status   *domain.TaskStatus
	Priority *domain.TaskPriority

	// Rich-text documents; applied when non-nil, normalized through the
	// content resolver before diffing.
	Description    json.RawMessage
	ExpectedResult json.RawMessage

	AssigneeID  *uuid.UUID
	AssigneeSet bool

	VerifierID  *uuid.UUID
	VerifierSet bool

	DueAt    *time.Time
	DueSet   bool
	StartAt  *time.Time
	StartSet bool

	IsRepeating     *bool
	RepeatFrequency *string

	// ResolvedReportID marks a completion report as resolved by this update;
	// approval or rejection is derived from the status landing alongside it.
	ResolvedReportID *uuid.UUID
}

// StateMachine applies create and update patches to task snapshots and
// derives the resulting change set.
//
// The machine is deliberately permissive about status values: it accepts
// whatever status a caller requests and reacts to the value it observes
// landing, rather than enforcing a table of allowed transitions. Side
// effects (activity entries, notifications) are keyed off the resulting
// state downstream.
type StateMachine struct {
	resolver *content.Resolver
	logger   *slog.Logger
}

// NewStateMachine creates a StateMachine using the given content resolver
// for rich-text normalization.
func NewStateMachine(resolver *content.Resolver, logger *slog.Logger) *StateMachine {
	if resolver == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("resolver cannot be nil for StateMachine")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StateMachine")
	}
	return &StateMachine{
		resolver: resolver,
		logger:   logger.With(slog.String("component", "task_state_machine")),
	}
}

// ApplyCreate builds a new task from the patch, forcing status NEW, and
// returns it with the synthetic created change set. Rich-text fields are
// normalized through the resolver using the request's shared file cursor.
func (m *StateMachine) ApplyCreate(
	ctx context.Context,
	patch TaskPatch,
	creatorID uuid.UUID,
	cursor *content.FileCursor,
) (*domain.Task, ChangeSet, error) {
	title := ""
	if patch.Title != nil {
		title = *patch.Title
	}

	task, err := domain.NewTask(creatorID, title)
	if err != nil {
		return nil, ChangeSet{}, err
	}

	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.AssigneeSet {
		task.AssigneeID = patch.AssigneeID
	}
	if patch.VerifierSet {
		task.VerifierID = patch.VerifierID
	}
	if patch.DueSet {
		task.DueAt = patch.DueAt
	}
	if patch.StartSet {
		task.StartAt = patch.StartAt
	}
	if patch.IsRepeating != nil {
		task.IsRepeating = *patch.IsRepeating
	}
	if patch.RepeatFrequency != nil {
		task.RepeatFrequency = *patch.RepeatFrequency
	}

	if patch.Description != nil {
		normalized, err := m.normalize(ctx, patch.Description, cursor)
		if err != nil {
			return nil, ChangeSet{}, err
		}
		task.Description = normalized
	}
	if patch.ExpectedResult != nil {
		normalized, err := m.normalize(ctx, patch.ExpectedResult, cursor)
		if err != nil {
			return nil, ChangeSet{}, err
		}
		task.ExpectedResult = normalized
	}

	// The synthetic created fact: downstream consumers see creation as a
	// status change into NEW, but the recorder writes no entries for it.
	cs := NewChangeSet()
	cs.Created = true
	cs.record(FieldStatus, nil, task.Status)

	return task, cs, nil
}

// ApplyUpdate applies the patch to a copy of the task snapshot and returns
// the updated task plus the per-field change set. The snapshot itself is
// left untouched. Any requested status value is accepted; a status change
// is recorded at most once, and only when the landing value differs from
// the old one.
func (m *StateMachine) ApplyUpdate(
	ctx context.Context,
	snapshot *domain.Task,
	patch TaskPatch,
	actorID uuid.UUID,
	cursor *content.FileCursor,
) (*domain.Task, ChangeSet, error) {
	task := snapshot.Clone()
	cs := NewChangeSet()

	if patch.Title != nil && *patch.Title != task.Title {
		cs.record(FieldTitle, task.Title, *patch.Title)
		task.Title = *patch.Title
	}

	if patch.Status != nil && *patch.Status != task.Status {
		cs.record(FieldStatus, task.Status, *patch.Status)
		task.Status = *patch.Status
	}

	if patch.Priority != nil && *patch.Priority != task.Priority {
		cs.record(FieldPriority, task.Priority, *patch.Priority)
		task.Priority = *patch.Priority
	}

	if patch.AssigneeSet {
		if ClassifyAssignment(task.AssigneeID, patch.AssigneeID) != AssignmentNoChange {
			cs.record(FieldAssigneeID, task.AssigneeID, patch.AssigneeID)
			task.AssigneeID = patch.AssigneeID
		}
	}

	if patch.VerifierSet {
		if ClassifyAssignment(task.VerifierID, patch.VerifierID) != AssignmentNoChange {
			cs.record(FieldVerifierID, task.VerifierID, patch.VerifierID)
			task.VerifierID = patch.VerifierID
		}
	}

	if patch.DueSet && !timesEqual(task.DueAt, patch.DueAt) {
		cs.record(FieldDueDate, task.DueAt, patch.DueAt)
		task.DueAt = patch.DueAt
	}

	if patch.StartSet && !timesEqual(task.StartAt, patch.StartAt) {
		cs.record(FieldStartDate, task.StartAt, patch.StartAt)
		task.StartAt = patch.StartAt
	}

	if patch.IsRepeating != nil && *patch.IsRepeating != task.IsRepeating {
		cs.record(FieldIsRepeating, task.IsRepeating, *patch.IsRepeating)
		task.IsRepeating = *patch.IsRepeating
	}
	if patch.RepeatFrequency != nil && *patch.RepeatFrequency != task.RepeatFrequency {
		cs.record(FieldRepeatFrequency, task.RepeatFrequency, *patch.RepeatFrequency)
		task.RepeatFrequency = *patch.RepeatFrequency
	}

	if patch.Description != nil {
		normalized, err := m.normalize(ctx, patch.Description, cursor)
		if err != nil {
			return nil, ChangeSet{}, err
		}
		if !bytes.Equal(normalized, task.Description) {
			cs.record(FieldDescription, string(task.Description), string(normalized))
			task.Description = normalized
		}
	}

	if patch.ExpectedResult != nil {
		normalized, err := m.normalize(ctx, patch.ExpectedResult, cursor)
		if err != nil {
			return nil, ChangeSet{}, err
		}
		if !bytes.Equal(normalized, task.ExpectedResult) {
			cs.record(FieldExpectedResult, string(task.ExpectedResult), string(normalized))
			task.ExpectedResult = normalized
		}
	}

	if patch.ResolvedReportID != nil {
		cs.record(FieldResolvedReport, nil, *patch.ResolvedReportID)
	}

	if !cs.Empty() {
		task.UpdatedAt = time.Now().UTC()
	}

	return task, cs, nil
}

// normalize parses a rich-text field, resolves temporary blob references
// through the shared cursor, and re-serializes it. Leftover uploaded files
// are the caller's concern; exhaustion inside the walk only warns.
func (m *StateMachine) normalize(
	ctx context.Context,
	raw json.RawMessage,
	cursor *content.FileCursor,
) (json.RawMessage, error) {
	doc, err := content.ParseDocument(raw)
	if err != nil {
		return nil, err
	}

	if cursor == nil {
		cursor = content.NewFileCursor(nil)
	}

	if err := m.resolver.Resolve(ctx, doc, cursor); err != nil {
		return nil, fmt.Errorf("failed to resolve document references: %w", err)
	}

	return doc.Marshal()
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
