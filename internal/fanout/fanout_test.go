package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/events"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// capturingEmitter records emitted events for assertions.
type capturingEmitter struct {
	mu     sync.Mutex
	events []*events.LifecycleEvent
}

func (e *capturingEmitter) EmitEvent(_ context.Context, event *events.LifecycleEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *capturingEmitter) byName(name string) []*events.LifecycleEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*events.LifecycleEvent
	for _, event := range e.events {
		if event.Name == name {
			out = append(out, event)
		}
	}
	return out
}

func (e *capturingEmitter) all() []*events.LifecycleEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*events.LifecycleEvent(nil), e.events...)
}

func newTestTask(t *testing.T, creatorID uuid.UUID, assigneeID, verifierID *uuid.UUID) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(creatorID, "Quarterly report")
	require.NoError(t, err)
	task.AssigneeID = assigneeID
	task.VerifierID = verifierID
	return task
}

// dispatchAndDrain runs one dispatch through a started dispatcher and
// waits for the workers to drain before returning the captured events.
func dispatchAndDrain(t *testing.T, fn func(d *Dispatcher)) *capturingEmitter {
	t.Helper()
	emitter := &capturingEmitter{}
	log, _ := logger.NewTestLogger(t)
	d := NewDispatcher(emitter, DefaultDispatcherConfig(), log)
	d.Start()
	fn(d)
	d.Stop()
	return emitter
}

func TestRouteForStatus(t *testing.T) {
	creatorID := uuid.New()
	assigneeID := uuid.New()
	verifierID := uuid.New()
	task := newTestTask(t, creatorID, &assigneeID, &verifierID)

	tests := []struct {
		status     domain.TaskStatus
		event      string
		recipients []*uuid.UUID
	}{
		{domain.TaskStatusNew, events.EventTaskCreated, []*uuid.UUID{&assigneeID, &verifierID}},
		{domain.TaskStatusDoing, events.EventTaskDoing, []*uuid.UUID{&verifierID, &creatorID}},
		{domain.TaskStatusPendingVerification, events.EventTaskPendingVerify, []*uuid.UUID{&verifierID}},
		{domain.TaskStatusVerificationFailed, events.EventTaskVerificationFailed, []*uuid.UUID{&assigneeID}},
		{domain.TaskStatusVerified, events.EventTaskVerified, []*uuid.UUID{&assigneeID}},
		{domain.TaskStatusClosed, events.EventTaskClosed, []*uuid.UUID{&assigneeID, &verifierID}},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			route, ok := routeForStatus(tc.status)
			require.True(t, ok)
			assert.Equal(t, tc.event, route.event)
			assert.Equal(t, tc.recipients, route.recipients(task))
			assert.NotEmpty(t, route.title)
			assert.NotEmpty(t, route.content(task))
		})
	}

	t.Run("unknown status has no route", func(t *testing.T) {
		_, ok := routeForStatus(domain.TaskStatus("archived"))
		assert.False(t, ok)
	})
}

func TestCollectRecipients(t *testing.T) {
	actorID := uuid.New()
	otherID := uuid.New()

	t.Run("drops nils", func(t *testing.T) {
		got := collectRecipients(actorID, []*uuid.UUID{nil, &otherID, nil})
		assert.Equal(t, []uuid.UUID{otherID}, got)
	})

	t.Run("suppresses the actor", func(t *testing.T) {
		got := collectRecipients(actorID, []*uuid.UUID{&actorID, &otherID})
		assert.Equal(t, []uuid.UUID{otherID}, got)
	})

	t.Run("deduplicates overlapping roles", func(t *testing.T) {
		got := collectRecipients(actorID, []*uuid.UUID{&otherID, &otherID, &otherID})
		assert.Equal(t, []uuid.UUID{otherID}, got)
	})

	t.Run("empty when everyone is suppressed", func(t *testing.T) {
		got := collectRecipients(actorID, []*uuid.UUID{&actorID, nil})
		assert.Empty(t, got)
	})
}

func TestDispatcher_CreatedFact(t *testing.T) {
	creatorID := uuid.New()
	assigneeID := uuid.New()
	verifierID := uuid.New()
	task := newTestTask(t, creatorID, &assigneeID, &verifierID)

	cs := lifecycle.NewChangeSet()
	cs.Created = true
	cs.Fields[lifecycle.FieldStatus] = lifecycle.Change{Old: nil, New: domain.TaskStatusNew}

	emitter := dispatchAndDrain(t, func(d *Dispatcher) {
		d.Dispatch(context.Background(), task, cs, creatorID)
	})

	created := emitter.byName(events.EventTaskCreated)
	require.Len(t, created, 1)
	assert.Equal(t, task.ID, created[0].TaskID)
	assert.Equal(t, creatorID, created[0].ActorID)
	assert.ElementsMatch(t, []uuid.UUID{assigneeID, verifierID}, created[0].RecipientIDs)
	assert.Equal(t, domain.NotificationTypeTaskCreated, created[0].NotificationType)
}

func TestDispatcher_StatusChange(t *testing.T) {
	creatorID := uuid.New()
	assigneeID := uuid.New()
	verifierID := uuid.New()
	task := newTestTask(t, creatorID, &assigneeID, &verifierID)
	task.Status = domain.TaskStatusDoing

	cs := lifecycle.NewChangeSet()
	cs.Fields[lifecycle.FieldStatus] = lifecycle.Change{
		Old: domain.TaskStatusNew,
		New: domain.TaskStatusDoing,
	}

	emitter := dispatchAndDrain(t, func(d *Dispatcher) {
		d.Dispatch(context.Background(), task, cs, assigneeID)
	})

	all := emitter.all()
	require.Len(t, all, 1)
	assert.Equal(t, events.EventTaskDoing, all[0].Name)
	assert.ElementsMatch(t, []uuid.UUID{verifierID, creatorID}, all[0].RecipientIDs)
}

func TestDispatcher_UnknownStatusProducesNothing(t *testing.T) {
	creatorID := uuid.New()
	task := newTestTask(t, creatorID, nil, nil)

	cs := lifecycle.NewChangeSet()
	cs.Fields[lifecycle.FieldStatus] = lifecycle.Change{
		Old: domain.TaskStatusNew,
		New: domain.TaskStatus("archived"),
	}

	emitter := dispatchAndDrain(t, func(d *Dispatcher) {
		d.Dispatch(context.Background(), task, cs, creatorID)
	})

	assert.Empty(t, emitter.all())
}

func TestDispatcher_Assignment(t *testing.T) {
	creatorID := uuid.New()
	oldAssignee := uuid.New()
	newAssignee := uuid.New()

	t.Run("fresh assignment notifies the new assignee", func(t *testing.T) {
		task := newTestTask(t, creatorID, &newAssignee, nil)
		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldAssigneeID] = lifecycle.Change{Old: (*uuid.UUID)(nil), New: &newAssignee}

		emitter := dispatchAndDrain(t, func(d *Dispatcher) {
			d.Dispatch(context.Background(), task, cs, creatorID)
		})

		assigned := emitter.byName(events.EventTaskAssigned)
		require.Len(t, assigned, 1)
		assert.Equal(t, []uuid.UUID{newAssignee}, assigned[0].RecipientIDs)
		assert.Empty(t, emitter.byName(events.EventTaskUnassigned))
	})

	t.Run("reassignment produces two distinct events", func(t *testing.T) {
		task := newTestTask(t, creatorID, &newAssignee, nil)
		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldAssigneeID] = lifecycle.Change{Old: &oldAssignee, New: &newAssignee}

		emitter := dispatchAndDrain(t, func(d *Dispatcher) {
			d.Dispatch(context.Background(), task, cs, creatorID)
		})

		unassigned := emitter.byName(events.EventTaskUnassigned)
		require.Len(t, unassigned, 1)
		assert.Equal(t, []uuid.UUID{oldAssignee}, unassigned[0].RecipientIDs)

		assigned := emitter.byName(events.EventTaskAssigned)
		require.Len(t, assigned, 1)
		assert.Equal(t, []uuid.UUID{newAssignee}, assigned[0].RecipientIDs)

		assert.Len(t, emitter.all(), 2)
	})

	t.Run("unassignment notifies the previous holder", func(t *testing.T) {
		task := newTestTask(t, creatorID, nil, nil)
		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldAssigneeID] = lifecycle.Change{Old: &oldAssignee, New: (*uuid.UUID)(nil)}

		emitter := dispatchAndDrain(t, func(d *Dispatcher) {
			d.Dispatch(context.Background(), task, cs, creatorID)
		})

		unassigned := emitter.byName(events.EventTaskUnassigned)
		require.Len(t, unassigned, 1)
		assert.Equal(t, []uuid.UUID{oldAssignee}, unassigned[0].RecipientIDs)
	})

	t.Run("self-assignment is suppressed", func(t *testing.T) {
		task := newTestTask(t, creatorID, &creatorID, nil)
		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldAssigneeID] = lifecycle.Change{Old: (*uuid.UUID)(nil), New: &creatorID}

		emitter := dispatchAndDrain(t, func(d *Dispatcher) {
			d.Dispatch(context.Background(), task, cs, creatorID)
		})

		assert.Empty(t, emitter.all())
	})

	t.Run("verifier change routes by role", func(t *testing.T) {
		verifierID := uuid.New()
		task := newTestTask(t, creatorID, nil, &verifierID)
		cs := lifecycle.NewChangeSet()
		cs.Fields[lifecycle.FieldVerifierID] = lifecycle.Change{Old: (*uuid.UUID)(nil), New: &verifierID}

		emitter := dispatchAndDrain(t, func(d *Dispatcher) {
			d.Dispatch(context.Background(), task, cs, creatorID)
		})

		assigned := emitter.byName(events.EventTaskAssigned)
		require.Len(t, assigned, 1)
		assert.Equal(t, []uuid.UUID{verifierID}, assigned[0].RecipientIDs)
		assert.Contains(t, assigned[0].Content, "verifier")
	})
}

func TestDispatcher_CommentAdded(t *testing.T) {
	creatorID := uuid.New()
	assigneeID := uuid.New()
	verifierID := uuid.New()
	task := newTestTask(t, creatorID, &assigneeID, &verifierID)

	t.Run("notifies participants minus the author", func(t *testing.T) {
		comment, err := domain.NewComment(task.ID, assigneeID, nil, domain.CommentTypeComment, []byte(`{"content":[{"type":"text","text":"hi"}]}`))
		require.NoError(t, err)

		emitter := dispatchAndDrain(t, func(d *Dispatcher) {
			d.DispatchCommentAdded(context.Background(), task, comment)
		})

		added := emitter.byName(events.EventTaskCommentAdded)
		require.Len(t, added, 1)
		assert.ElementsMatch(t, []uuid.UUID{creatorID, verifierID}, added[0].RecipientIDs)
		assert.Equal(t, domain.NotificationTypeTaskComment, added[0].NotificationType)
	})

	t.Run("completion report uses its own template", func(t *testing.T) {
		report, err := domain.NewComment(task.ID, assigneeID, nil, domain.CommentTypeCompletionReport, []byte(`{"content":[{"type":"text","text":"done"}]}`))
		require.NoError(t, err)

		emitter := dispatchAndDrain(t, func(d *Dispatcher) {
			d.DispatchCommentAdded(context.Background(), task, report)
		})

		added := emitter.byName(events.EventTaskCommentAdded)
		require.Len(t, added, 1)
		assert.Equal(t, "Completion report submitted", added[0].Title)
	})
}

func TestDispatcher_Reminder(t *testing.T) {
	creatorID := uuid.New()
	assigneeID := uuid.New()
	task := newTestTask(t, creatorID, &assigneeID, &creatorID)

	emitter := dispatchAndDrain(t, func(d *Dispatcher) {
		d.DispatchReminder(context.Background(), task, ReminderDueSoon)
	})

	reminders := emitter.byName(events.EventTaskDueSoon)
	require.Len(t, reminders, 1)
	assert.Equal(t, uuid.Nil, reminders[0].ActorID)
	assert.ElementsMatch(t, []uuid.UUID{assigneeID, creatorID}, reminders[0].RecipientIDs)
	assert.Equal(t, domain.NotificationTypeTaskReminder, reminders[0].NotificationType)
}

func TestDispatcher_DispatchAfterStopIsDropped(t *testing.T) {
	creatorID := uuid.New()
	assigneeID := uuid.New()
	task := newTestTask(t, creatorID, &assigneeID, nil)

	emitter := &capturingEmitter{}
	log, logs := logger.NewTestLogger(t)
	d := NewDispatcher(emitter, DefaultDispatcherConfig(), log)
	d.Start()
	d.Stop()

	d.DispatchReminder(context.Background(), task, ReminderDueSoon)

	assert.Empty(t, emitter.all())
	assert.True(t, logs.ContainsMessage("dispatcher stopped, dropping event"))
}

type fakeNotificationStore struct {
	mu        sync.Mutex
	records   []*domain.NotificationRecord
	failUsers map[uuid.UUID]error
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{failUsers: make(map[uuid.UUID]error)}
}

func (s *fakeNotificationStore) Create(_ context.Context, record *domain.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failUsers[record.UserID]; ok {
		return err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *fakeNotificationStore) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]*domain.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.NotificationRecord
	for _, record := range s.records {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) Delete(_ context.Context, _, _ uuid.UUID) error {
	return store.ErrNotificationNotFound
}

type fakeSubscriptionStore struct {
	subs map[uuid.UUID]*domain.PushSubscription
}

func (s *fakeSubscriptionStore) Upsert(_ context.Context, sub *domain.PushSubscription) error {
	s.subs[sub.UserID] = sub
	return nil
}

func (s *fakeSubscriptionStore) GetByUser(_ context.Context, userID uuid.UUID) (*domain.PushSubscription, error) {
	sub, ok := s.subs[userID]
	if !ok {
		return nil, store.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *fakeSubscriptionStore) Delete(_ context.Context, userID uuid.UUID) error {
	if _, ok := s.subs[userID]; !ok {
		return store.ErrSubscriptionNotFound
	}
	delete(s.subs, userID)
	return nil
}

type fakePushSender struct {
	mu   sync.Mutex
	sent []uuid.UUID
	err  error
}

func (p *fakePushSender) Send(_ context.Context, sub *domain.PushSubscription, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, sub.UserID)
	return nil
}

func TestNotificationHandler_HandleEvent(t *testing.T) {
	taskID := uuid.New()
	userA := uuid.New()
	userB := uuid.New()

	newEvent := func(recipients ...uuid.UUID) *events.LifecycleEvent {
		return events.NewLifecycleEvent(
			events.EventTaskDoing,
			taskID,
			uuid.New(),
			recipients,
			"Task in progress",
			"Work started",
			domain.NotificationTypeTaskStatus,
			true,
		)
	}

	t.Run("persists one record per recipient", func(t *testing.T) {
		notifications := newFakeNotificationStore()
		subscriptions := &fakeSubscriptionStore{subs: map[uuid.UUID]*domain.PushSubscription{}}
		log, _ := logger.NewTestLogger(t)
		handler := NewNotificationHandler(notifications, subscriptions, nil, log)

		err := handler.HandleEvent(context.Background(), newEvent(userA, userB))
		require.NoError(t, err)
		assert.Len(t, notifications.records, 2)
	})

	t.Run("one failing recipient does not block the rest", func(t *testing.T) {
		notifications := newFakeNotificationStore()
		notifications.failUsers[userA] = errors.New("insert failed")
		subscriptions := &fakeSubscriptionStore{subs: map[uuid.UUID]*domain.PushSubscription{}}
		log, logs := logger.NewTestLogger(t)
		handler := NewNotificationHandler(notifications, subscriptions, nil, log)

		err := handler.HandleEvent(context.Background(), newEvent(userA, userB))
		assert.Error(t, err)

		require.Len(t, notifications.records, 1)
		assert.Equal(t, userB, notifications.records[0].UserID)
		assert.True(t, logs.ContainsMessage("failed to persist notification record, skipping recipient"))
	})

	t.Run("pushes only to subscribed recipients", func(t *testing.T) {
		notifications := newFakeNotificationStore()
		sub, err := domain.NewPushSubscription(userA, "https://push.example.com/abc", nil)
		require.NoError(t, err)
		subscriptions := &fakeSubscriptionStore{subs: map[uuid.UUID]*domain.PushSubscription{userA: sub}}
		push := &fakePushSender{}
		log, _ := logger.NewTestLogger(t)
		handler := NewNotificationHandler(notifications, subscriptions, push, log)

		err = handler.HandleEvent(context.Background(), newEvent(userA, userB))
		require.NoError(t, err)

		assert.Len(t, notifications.records, 2)
		assert.Equal(t, []uuid.UUID{userA}, push.sent)
	})

	t.Run("push failure does not undo the record", func(t *testing.T) {
		notifications := newFakeNotificationStore()
		sub, err := domain.NewPushSubscription(userA, "https://push.example.com/abc", nil)
		require.NoError(t, err)
		subscriptions := &fakeSubscriptionStore{subs: map[uuid.UUID]*domain.PushSubscription{userA: sub}}
		push := &fakePushSender{err: errors.New("endpoint gone")}
		log, logs := logger.NewTestLogger(t)
		handler := NewNotificationHandler(notifications, subscriptions, push, log)

		err = handler.HandleEvent(context.Background(), newEvent(userA))
		require.NoError(t, err)

		assert.Len(t, notifications.records, 1)
		assert.True(t, logs.ContainsMessage("push delivery failed, notification record stands"))
	})
}
