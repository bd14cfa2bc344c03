package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// fakeUserStore is an in-memory user directory.
type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

// fakeActivityStore collects created entries; optionally fails on a given action.
type fakeActivityStore struct {
	entries      []*domain.ActivityLogEntry
	failOnAction domain.ActivityAction
}

func (f *fakeActivityStore) Create(ctx context.Context, entry *domain.ActivityLogEntry) error {
	if f.failOnAction != "" && entry.Action == f.failOnAction {
		return errors.New("insert failed")
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeActivityStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.ActivityLogEntry, error) {
	return f.entries, nil
}

func (f *fakeActivityStore) WithTx(tx *sql.Tx) store.ActivityLogStore { return f }

func newTestRecorder(t *testing.T, users *fakeUserStore) (*Recorder, *logger.TestLogBuffer) {
	t.Helper()
	log, buf := logger.NewTestLogger(t)
	return NewRecorder(users, log), buf
}

func decodePayload(t *testing.T, entry *domain.ActivityLogEntry) map[string]string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(entry.Payload, &payload))
	return payload
}

func TestRecord(t *testing.T) {
	taskID := uuid.New()
	actorID := uuid.New()

	t.Run("one entry per recognized changed field", func(t *testing.T) {
		assignee, err := domain.NewUser("dana@example.com", "Dana")
		require.NoError(t, err)
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{assignee.ID: assignee}}
		recorder, _ := newTestRecorder(t, users)
		logStore := &fakeActivityStore{}

		due := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldStatus] = lifecycle.Change{Old: domain.TaskStatusNew, New: domain.TaskStatusDoing}
		cs.Fields[lifecycle.FieldAssigneeID] = lifecycle.Change{Old: (*uuid.UUID)(nil), New: &assignee.ID}
		cs.Fields[lifecycle.FieldDueDate] = lifecycle.Change{Old: (*time.Time)(nil), New: &due}
		cs.Fields[lifecycle.FieldTitle] = lifecycle.Change{Old: "a", New: "b"}

		entries, err := recorder.Record(context.Background(), logStore, taskID, actorID, cs)
		require.NoError(t, err)

		require.Len(t, entries, 4)
		byAction := make(map[domain.ActivityAction]map[string]string)
		for _, entry := range entries {
			assert.Equal(t, taskID, entry.TaskID)
			assert.Equal(t, actorID, entry.ActorID)
			byAction[entry.Action] = decodePayload(t, entry)
		}

		assert.Equal(t, "doing", byAction[domain.ActivityActionChangeStatus]["target"])
		assert.Equal(t, "Dana", byAction[domain.ActivityActionChangeAssignee]["target"])
		assert.Equal(t, "2026-09-15T12:00:00Z", byAction[domain.ActivityActionChangeDueDate]["target"])
		assert.Equal(t, "b", byAction[domain.ActivityActionChangeTitle]["target"])
	})

	t.Run("created change set yields zero entries", func(t *testing.T) {
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
		recorder, _ := newTestRecorder(t, users)
		logStore := &fakeActivityStore{}

		cs := lifecycle.NewChangeSet()
		cs.Created = true
		cs.Fields[lifecycle.FieldStatus] = lifecycle.Change{Old: nil, New: domain.TaskStatusNew}

		entries, err := recorder.Record(context.Background(), logStore, taskID, actorID, cs)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Empty(t, logStore.entries)
	})

	t.Run("unrecognized fields are ignored", func(t *testing.T) {
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
		recorder, _ := newTestRecorder(t, users)
		logStore := &fakeActivityStore{}

		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldIsRepeating] = lifecycle.Change{Old: false, New: true}
		cs.Fields[lifecycle.FieldStartDate] = lifecycle.Change{Old: nil, New: nil}
		cs.Fields[lifecycle.FieldPriority] = lifecycle.Change{Old: domain.TaskPriorityLow, New: domain.TaskPriorityHigh}

		entries, err := recorder.Record(context.Background(), logStore, taskID, actorID, cs)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.ActivityActionChangePriority, entries[0].Action)
	})

	t.Run("per-field failure does not abort siblings", func(t *testing.T) {
		// The assignee no longer exists in the directory: that field's entry
		// is skipped, the status entry still lands.
		missing := uuid.New()
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
		recorder, buf := newTestRecorder(t, users)
		logStore := &fakeActivityStore{}

		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldStatus] = lifecycle.Change{Old: domain.TaskStatusNew, New: domain.TaskStatusDoing}
		cs.Fields[lifecycle.FieldAssigneeID] = lifecycle.Change{Old: (*uuid.UUID)(nil), New: &missing}

		entries, err := recorder.Record(context.Background(), logStore, taskID, actorID, cs)
		require.NoError(t, err)

		require.Len(t, entries, 1)
		assert.Equal(t, domain.ActivityActionChangeStatus, entries[0].Action)
		assert.True(t, buf.ContainsMessage("failed to build activity payload, skipping field"))
	})

	t.Run("persistence failure propagates", func(t *testing.T) {
		// Unlike a payload-build failure, a failed insert dooms the
		// surrounding transaction, so Record reports it to the caller.
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
		recorder, buf := newTestRecorder(t, users)
		logStore := &fakeActivityStore{failOnAction: domain.ActivityActionChangeStatus}

		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldStatus] = lifecycle.Change{Old: domain.TaskStatusNew, New: domain.TaskStatusDoing}
		cs.Fields[lifecycle.FieldTitle] = lifecycle.Change{Old: "a", New: "b"}

		entries, err := recorder.Record(context.Background(), logStore, taskID, actorID, cs)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to persist activity entry")
		assert.Empty(t, entries, "the status entry fails first, nothing is written")
		assert.True(t, buf.ContainsMessage("failed to persist activity entry"))
	})

	t.Run("unassignment resolves to unassigned", func(t *testing.T) {
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
		recorder, _ := newTestRecorder(t, users)
		logStore := &fakeActivityStore{}

		prev := uuid.New()
		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldAssigneeID] = lifecycle.Change{Old: &prev, New: (*uuid.UUID)(nil)}

		entries, err := recorder.Record(context.Background(), logStore, taskID, actorID, cs)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "unassigned", decodePayload(t, entries[0])["target"])
	})

	t.Run("report resolution derives outcome from landing status", func(t *testing.T) {
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
		recorder, _ := newTestRecorder(t, users)
		reportID := uuid.New()

		approve := lifecycle.NewChangeSet()
		approve.Fields[lifecycle.FieldStatus] = lifecycle.Change{Old: domain.TaskStatusPendingVerification, New: domain.TaskStatusVerified}
		approve.Fields[lifecycle.FieldResolvedReport] = lifecycle.Change{Old: nil, New: reportID}

		logStore := &fakeActivityStore{}
		entries, err := recorder.Record(context.Background(), logStore, taskID, actorID, approve)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "approved", decodePayload(t, entries[1])["target"])

		reject := lifecycle.NewChangeSet()
		reject.Fields[lifecycle.FieldStatus] = lifecycle.Change{Old: domain.TaskStatusPendingVerification, New: domain.TaskStatusVerificationFailed}
		reject.Fields[lifecycle.FieldResolvedReport] = lifecycle.Change{Old: nil, New: reportID}

		logStore = &fakeActivityStore{}
		entries, err = recorder.Record(context.Background(), logStore, taskID, actorID, reject)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "rejected", decodePayload(t, entries[1])["target"])
	})
}

func TestRecordCommentAdded(t *testing.T) {
	users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
	recorder, _ := newTestRecorder(t, users)
	logStore := &fakeActivityStore{}

	comment, err := domain.NewComment(
		uuid.New(), uuid.New(), nil,
		domain.CommentTypeComment,
		json.RawMessage(`{"content":[{"type":"paragraph","text":"hi"}]}`),
	)
	require.NoError(t, err)

	entry, err := recorder.RecordCommentAdded(context.Background(), logStore, comment)
	require.NoError(t, err)

	assert.Equal(t, domain.ActivityActionAddComment, entry.Action)
	assert.Equal(t, comment.TaskID, entry.TaskID)
	assert.Equal(t, comment.AuthorID, entry.ActorID)
	assert.Equal(t, comment.ID.String(), decodePayload(t, entry)["target"])
}
