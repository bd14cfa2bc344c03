// Package activity derives the immutable activity trail from task
// mutations: every recognized field change in a change set becomes one
// typed, append-only log entry.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// entryPayload is the persisted JSONB payload shape: {action, target} for
// reference-like changes, {action, content} for document changes.
type entryPayload struct {
	Action  domain.ActivityAction `json:"action"`
	Target  string                `json:"target,omitempty"`
	Content string                `json:"content,omitempty"`
}

// Recorder turns change sets into persisted activity log entries.
type Recorder struct {
	users  store.UserStore
	logger *slog.Logger
}

// NewRecorder creates a Recorder that resolves user references through the
// given directory.
func NewRecorder(users store.UserStore, logger *slog.Logger) *Recorder {
	if users == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("users cannot be nil for Recorder")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Recorder")
	}
	return &Recorder{
		users:  users,
		logger: logger.With(slog.String("component", "activity_recorder")),
	}
}

// Record persists one entry per recognized changed field through the given
// store handle (typically transaction-scoped) and returns the entries
// written. The synthetic created change set produces no entries: creation
// is not a change from a prior state.
//
// Entry building is best-effort with per-field isolation: a failure to
// build one field's entry is logged and skipped, and never aborts the
// entries for the other changed fields. A persistence failure is different:
// the store handle is transaction-scoped and the first failed insert dooms
// the transaction, so the error propagates instead of being skipped.
func (r *Recorder) Record(
	ctx context.Context,
	logStore store.ActivityLogStore,
	taskID, actorID uuid.UUID,
	cs lifecycle.ChangeSet,
) ([]*domain.ActivityLogEntry, error) {
	if cs.Created {
		return nil, nil
	}

	entries := make([]*domain.ActivityLogEntry, 0, len(cs.Fields))
	for _, field := range orderedFields(cs) {
		change := cs.Fields[field]

		payload, ok, err := r.buildPayload(ctx, field, change, cs)
		if err != nil {
			r.logger.Error("failed to build activity payload, skipping field",
				"field", field,
				"task_id", taskID,
				"error", err)
			continue
		}
		if !ok {
			// Unrecognized field: ignored, not an error.
			continue
		}

		raw, err := json.Marshal(payload)
		if err != nil {
			r.logger.Error("failed to marshal activity payload, skipping field",
				"field", field,
				"task_id", taskID,
				"error", err)
			continue
		}

		entry, err := domain.NewActivityLogEntry(taskID, actorID, payload.Action, raw)
		if err != nil {
			r.logger.Error("failed to build activity entry, skipping field",
				"field", field,
				"task_id", taskID,
				"error", err)
			continue
		}

		if err := logStore.Create(ctx, entry); err != nil {
			r.logger.Error("failed to persist activity entry",
				"field", field,
				"task_id", taskID,
				"error", err)
			return entries, fmt.Errorf("failed to persist activity entry for field %s: %w", field, err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// RecordCommentAdded persists the comment-added entry for a new comment.
func (r *Recorder) RecordCommentAdded(
	ctx context.Context,
	logStore store.ActivityLogStore,
	comment *domain.Comment,
) (*domain.ActivityLogEntry, error) {
	payload := entryPayload{
		Action: domain.ActivityActionAddComment,
		Target: comment.ID.String(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comment payload: %w", err)
	}

	entry, err := domain.NewActivityLogEntry(comment.TaskID, comment.AuthorID, payload.Action, raw)
	if err != nil {
		return nil, err
	}

	if err := logStore.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// recognizedFields lists the change-set fields the recorder logs, in the
// order entries are written.
var recognizedFields = []string{
	lifecycle.FieldStatus,
	lifecycle.FieldAssigneeID,
	lifecycle.FieldVerifierID,
	lifecycle.FieldDueDate,
	lifecycle.FieldPriority,
	lifecycle.FieldTitle,
	lifecycle.FieldDescription,
	lifecycle.FieldExpectedResult,
	lifecycle.FieldResolvedReport,
}

// orderedFields returns the change set's fields in a stable order,
// recognized fields first.
func orderedFields(cs lifecycle.ChangeSet) []string {
	fields := make([]string, 0, len(cs.Fields))
	seen := make(map[string]bool, len(cs.Fields))
	for _, field := range recognizedFields {
		if cs.Has(field) {
			fields = append(fields, field)
			seen[field] = true
		}
	}
	for field := range cs.Fields {
		if !seen[field] {
			fields = append(fields, field)
		}
	}
	return fields
}

// buildPayload constructs the payload for one changed field. The second
// return value is false for fields the recorder does not recognize.
func (r *Recorder) buildPayload(
	ctx context.Context,
	field string,
	change lifecycle.Change,
	cs lifecycle.ChangeSet,
) (entryPayload, bool, error) {
	switch field {
	case lifecycle.FieldStatus:
		status, _ := change.New.(domain.TaskStatus)
		return entryPayload{Action: domain.ActivityActionChangeStatus, Target: string(status)}, true, nil

	case lifecycle.FieldAssigneeID:
		target, err := r.userTarget(ctx, change)
		if err != nil {
			return entryPayload{}, true, err
		}
		return entryPayload{Action: domain.ActivityActionChangeAssignee, Target: target}, true, nil

	case lifecycle.FieldVerifierID:
		target, err := r.userTarget(ctx, change)
		if err != nil {
			return entryPayload{}, true, err
		}
		return entryPayload{Action: domain.ActivityActionChangeVerifier, Target: target}, true, nil

	case lifecycle.FieldDueDate:
		target := ""
		if due, ok := change.New.(*time.Time); ok && due != nil {
			target = due.UTC().Format(time.RFC3339)
		}
		return entryPayload{Action: domain.ActivityActionChangeDueDate, Target: target}, true, nil

	case lifecycle.FieldPriority:
		priority, _ := change.New.(domain.TaskPriority)
		return entryPayload{Action: domain.ActivityActionChangePriority, Target: string(priority)}, true, nil

	case lifecycle.FieldTitle:
		title, _ := change.New.(string)
		return entryPayload{Action: domain.ActivityActionChangeTitle, Target: title}, true, nil

	case lifecycle.FieldDescription:
		content, _ := change.New.(string)
		return entryPayload{Action: domain.ActivityActionChangeDescription, Content: content}, true, nil

	case lifecycle.FieldExpectedResult:
		content, _ := change.New.(string)
		return entryPayload{Action: domain.ActivityActionChangeExpected, Content: content}, true, nil

	case lifecycle.FieldResolvedReport:
		// Approval or rejection is derived from the status the task landed
		// in alongside the resolution.
		target := "rejected"
		if _, newStatus, ok := cs.StatusChange(); ok && newStatus == domain.TaskStatusVerified {
			target = "approved"
		}
		return entryPayload{Action: domain.ActivityActionResolveReport, Target: target}, true, nil

	default:
		return entryPayload{}, false, nil
	}
}

// userTarget resolves the new user reference of an assignment change to a
// display name. An unassignment has no user to resolve.
func (r *Recorder) userTarget(ctx context.Context, change lifecycle.Change) (string, error) {
	newID, _ := change.New.(*uuid.UUID)
	if newID == nil {
		return "unassigned", nil
	}

	user, err := r.users.GetByID(ctx, *newID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve user %s: %w", *newID, err)
	}

	return user.Name(), nil
}
