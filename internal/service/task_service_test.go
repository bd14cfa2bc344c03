package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow-app/taskflow-api/internal/activity"
	"github.com/taskflow-app/taskflow-api/internal/content"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// stubTaskStore backs the non-transactional service paths in unit tests.
type stubTaskStore struct {
	tasks   map[uuid.UUID]*domain.Task
	listErr error
	deleted []uuid.UUID
}

func newStubTaskStore() *stubTaskStore {
	return &stubTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *stubTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.tasks[task.ID] = task
	return nil
}

func (s *stubTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (s *stubTaskStore) Update(_ context.Context, task *domain.Task) error {
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *stubTaskStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TaskStatus) error {
	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = status
	return nil
}

func (s *stubTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubTaskStore) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Task, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*domain.Task
	for _, task := range s.tasks {
		if task.CreatorID == userID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (s *stubTaskStore) ListByStatus(context.Context, domain.TaskStatus) ([]*domain.Task, error) {
	return nil, nil
}

func (s *stubTaskStore) ListDueSoon(context.Context, time.Duration) ([]*domain.Task, error) {
	return nil, nil
}

func (s *stubTaskStore) ListRepeatingVerified(context.Context) ([]*domain.Task, error) {
	return nil, nil
}

func (s *stubTaskStore) WithTx(*sql.Tx) store.TaskStore { return s }

// stubActivityStore collects entries without a database.
type stubActivityStore struct {
	entries []*domain.ActivityLogEntry
}

func (s *stubActivityStore) Create(_ context.Context, entry *domain.ActivityLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubActivityStore) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.ActivityLogEntry, error) {
	var out []*domain.ActivityLogEntry
	for _, entry := range s.entries {
		if entry.TaskID == taskID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *stubActivityStore) WithTx(*sql.Tx) store.ActivityLogStore { return s }

// stubUserStore resolves every ID to a fixed display name.
type stubUserStore struct{}

func (stubUserStore) Create(context.Context, *domain.User) error { return nil }

func (stubUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return &domain.User{ID: id, Email: "user@example.com", DisplayName: "User"}, nil
}

// stubDispatcher records dispatch calls.
type stubDispatcher struct {
	mu       sync.Mutex
	changes  []lifecycle.ChangeSet
	comments []*domain.Comment
}

func (d *stubDispatcher) Dispatch(_ context.Context, _ *domain.Task, cs lifecycle.ChangeSet, _ uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes = append(d.changes, cs)
}

func (d *stubDispatcher) DispatchCommentAdded(_ context.Context, _ *domain.Task, comment *domain.Comment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.comments = append(d.comments, comment)
}

// noopBlobStore satisfies the resolver for tests without uploads.
type noopBlobStore struct{}

func (noopBlobStore) Put(_ context.Context, path string, _ []byte) (string, error) {
	return "http://blobs.test/" + path, nil
}

func newTestTaskService(t *testing.T, tasks store.TaskStore) (*TaskService, *stubActivityStore, *stubDispatcher) {
	t.Helper()
	log, _ := logger.NewTestLogger(t)

	// sql.Open does not connect; only transactional paths would touch it.
	db, err := sql.Open("pgx", "postgres://localhost/unused")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	activityLog := &stubActivityStore{}
	dispatcher := &stubDispatcher{}
	resolver := content.NewResolver(noopBlobStore{}, log)
	machine := lifecycle.NewStateMachine(resolver, log)
	recorder := activity.NewRecorder(stubUserStore{}, log)

	svc := NewTaskService(db, tasks, activityLog, machine, recorder, dispatcher, log)
	return svc, activityLog, dispatcher
}

func TestTaskService_GetTask(t *testing.T) {
	tasks := newStubTaskStore()
	svc, _, _ := newTestTaskService(t, tasks)

	t.Run("returns the task", func(t *testing.T) {
		task, err := domain.NewTask(uuid.New(), "Existing")
		require.NoError(t, err)
		require.NoError(t, tasks.Create(context.Background(), task))

		got, err := svc.GetTask(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
	})

	t.Run("maps missing task to ErrTaskNotFound", func(t *testing.T) {
		_, err := svc.GetTask(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestTaskService_ListTasks(t *testing.T) {
	t.Run("clamps pagination bounds", func(t *testing.T) {
		tasks := newStubTaskStore()
		svc, _, _ := newTestTaskService(t, tasks)

		_, err := svc.ListTasks(context.Background(), uuid.New(), -5, -1)
		require.NoError(t, err)
		_, err = svc.ListTasks(context.Background(), uuid.New(), 10_000, 0)
		require.NoError(t, err)
	})

	t.Run("wraps store failures", func(t *testing.T) {
		tasks := newStubTaskStore()
		tasks.listErr = errors.New("db down")
		svc, _, _ := newTestTaskService(t, tasks)

		_, err := svc.ListTasks(context.Background(), uuid.New(), 10, 0)
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "list tasks", svcErr.Operation)
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	tasks := newStubTaskStore()
	svc, _, dispatcher := newTestTaskService(t, tasks)

	task, err := domain.NewTask(uuid.New(), "Doomed")
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))

	require.NoError(t, svc.DeleteTask(context.Background(), uuid.New(), task.ID))
	assert.Equal(t, []uuid.UUID{task.ID}, tasks.deleted)
	assert.Empty(t, dispatcher.changes, "deletion emits no events")

	assert.ErrorIs(t, svc.DeleteTask(context.Background(), uuid.New(), task.ID), ErrTaskNotFound)
}

func TestTaskService_UpdateTask_NoChanges(t *testing.T) {
	tasks := newStubTaskStore()
	svc, activityLog, dispatcher := newTestTaskService(t, tasks)

	task, err := domain.NewTask(uuid.New(), "Stable")
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))

	// An empty patch never opens a transaction, so the unconnected DB
	// handle is not touched.
	got, err := svc.UpdateTask(context.Background(), uuid.New(), task.ID, lifecycle.TaskPatch{}, nil)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Empty(t, activityLog.entries)
	assert.Empty(t, dispatcher.changes)
}

func TestTaskService_UpdateTask_NotFound(t *testing.T) {
	svc, _, _ := newTestTaskService(t, newStubTaskStore())

	_, err := svc.UpdateTask(context.Background(), uuid.New(), uuid.New(), lifecycle.TaskPatch{}, nil)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_UpdateTask_MalformedContent(t *testing.T) {
	tasks := newStubTaskStore()
	svc, _, _ := newTestTaskService(t, tasks)

	task, err := domain.NewTask(uuid.New(), "Richtext")
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))

	patch := lifecycle.TaskPatch{Description: []byte(`{"not":"a document"}`)}
	_, err = svc.UpdateTask(context.Background(), uuid.New(), task.ID, patch, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
