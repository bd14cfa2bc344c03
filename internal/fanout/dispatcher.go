package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/events"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
)

// DispatcherConfig holds configuration for the dispatcher's delivery workers.
type DispatcherConfig struct {
	// WorkerCount determines how many goroutines drain the delivery queue.
	WorkerCount int

	// QueueSize determines the buffer size of the in-memory delivery queue.
	QueueSize int
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		WorkerCount: 2,
		QueueSize:   256,
	}
}

// Dispatcher maps lifecycle changes to notification events and hands them
// to delivery workers. Dispatch is fire-and-forget from the caller's
// perspective: the caller returns once events are queued, and there is no
// ordering guarantee between two deliveries fired from the same change set.
type Dispatcher struct {
	emitter events.Emitter
	queue   chan *events.LifecycleEvent
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	config  DispatcherConfig
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher publishing through the given emitter.
func NewDispatcher(emitter events.Emitter, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if emitter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("emitter cannot be nil for Dispatcher")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Dispatcher")
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultDispatcherConfig().WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultDispatcherConfig().QueueSize
	}

	return &Dispatcher{
		emitter: emitter,
		queue:   make(chan *events.LifecycleEvent, config.QueueSize),
		config:  config,
		logger:  logger.With(slog.String("component", "fanout_dispatcher")),
	}
}

// Start launches the delivery workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.config.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop closes the delivery queue and waits for in-flight deliveries to
// drain. Further Dispatch calls become no-ops.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// worker drains the queue, publishing each event to the emitter. Once
// fanned out a delivery cannot be retracted; handler errors are logged by
// the emitter and never surface anywhere else.
func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for event := range d.queue {
		if err := d.emitter.EmitEvent(context.Background(), event); err != nil {
			d.logger.Error("event delivery reported errors",
				"worker_id", id,
				"event_id", event.ID,
				"event_name", event.Name,
				"error", err)
		}
	}
}

// enqueue hands one event to the workers without blocking the caller.
func (d *Dispatcher) enqueue(event *events.LifecycleEvent) {
	if len(event.RecipientIDs) == 0 {
		d.logger.Debug("event has no recipients after suppression, skipping",
			"event_name", event.Name,
			"task_id", event.TaskID)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("dispatcher stopped, dropping event",
			"event_name", event.Name,
			"task_id", event.TaskID)
		return
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Error("delivery queue full, dropping event",
			"event_name", event.Name,
			"task_id", event.TaskID)
	}
}

// Dispatch derives notification events from a change set and queues them
// for delivery. It covers the created fact, the status landing, and both
// assignment roles; a reassignment always produces two events, an
// unassignment notice to the previous holder and an assignment notice to
// the new one, never a single combined event.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	task *domain.Task,
	cs lifecycle.ChangeSet,
	actorID uuid.UUID,
) {
	if _, newStatus, ok := cs.StatusChange(); ok {
		if route, known := routeForStatus(newStatus); known {
			d.enqueue(events.NewLifecycleEvent(
				route.event,
				task.ID,
				actorID,
				collectRecipients(actorID, route.recipients(task)),
				route.title,
				route.content(task),
				route.notificationType,
				true,
			))
		} else {
			d.logger.Warn("no notification route for status, skipping",
				"task_id", task.ID,
				"status", newStatus)
		}
	}

	d.dispatchAssignment(task, cs, actorID, lifecycle.FieldAssigneeID, "assignee")
	d.dispatchAssignment(task, cs, actorID, lifecycle.FieldVerifierID, "verifier")
}

// dispatchAssignment queues the events for one role's assignment change.
func (d *Dispatcher) dispatchAssignment(
	task *domain.Task,
	cs lifecycle.ChangeSet,
	actorID uuid.UUID,
	field, role string,
) {
	old, new, kind := cs.UserChange(field)

	switch kind {
	case lifecycle.AssignmentAssigned:
		d.enqueueAssigned(task, actorID, new, role)
	case lifecycle.AssignmentUnassigned:
		d.enqueueUnassigned(task, actorID, old, role)
	case lifecycle.AssignmentReassigned:
		d.enqueueUnassigned(task, actorID, old, role)
		d.enqueueAssigned(task, actorID, new, role)
	}
}

func (d *Dispatcher) enqueueAssigned(task *domain.Task, actorID uuid.UUID, userID *uuid.UUID, role string) {
	d.enqueue(events.NewLifecycleEvent(
		events.EventTaskAssigned,
		task.ID,
		actorID,
		collectRecipients(actorID, []*uuid.UUID{userID}),
		"Task assigned to you",
		fmt.Sprintf("You are now %s on task %q", role, task.Title),
		domain.NotificationTypeTaskAssigned,
		true,
	))
}

func (d *Dispatcher) enqueueUnassigned(task *domain.Task, actorID uuid.UUID, userID *uuid.UUID, role string) {
	d.enqueue(events.NewLifecycleEvent(
		events.EventTaskUnassigned,
		task.ID,
		actorID,
		collectRecipients(actorID, []*uuid.UUID{userID}),
		"Task unassigned",
		fmt.Sprintf("You are no longer %s on task %q", role, task.Title),
		domain.NotificationTypeTaskAssigned,
		true,
	))
}

// DispatchCommentAdded queues the comment notification: it fans out to the
// task's assignee, creator and verifier minus the comment author, with its
// own template, bypassing the status route table.
func (d *Dispatcher) DispatchCommentAdded(
	ctx context.Context,
	task *domain.Task,
	comment *domain.Comment,
) {
	title := "New comment"
	content := fmt.Sprintf("New comment on task %q", task.Title)
	if comment.IsCompletionReport() {
		title = "Completion report submitted"
		content = fmt.Sprintf("A completion report was submitted for task %q", task.Title)
	}

	d.enqueue(events.NewLifecycleEvent(
		events.EventTaskCommentAdded,
		task.ID,
		comment.AuthorID,
		collectRecipients(comment.AuthorID, []*uuid.UUID{task.AssigneeID, &task.CreatorID, task.VerifierID}),
		title,
		content,
		domain.NotificationTypeTaskComment,
		true,
	))
}

// ReminderKind identifies one reconciliation scan's reminder template.
type ReminderKind int

// Reminder kinds, one per reconciliation scan.
const (
	ReminderDueSoon ReminderKind = iota
	ReminderVerificationStalled
	ReminderAwaitingVerification
	ReminderAwaitingClose
)

// reminderTemplate returns the event name, title and content for a
// reminder kind.
func reminderTemplate(kind ReminderKind, task *domain.Task) (string, string, string) {
	switch kind {
	case ReminderDueSoon:
		return events.EventTaskDueSoon,
			"Task due soon",
			fmt.Sprintf("Task %q is approaching its due date", task.Title)
	case ReminderVerificationStalled:
		return events.EventTaskVerificationFailed,
			"Task needs rework",
			fmt.Sprintf("Task %q failed verification and is waiting for rework", task.Title)
	case ReminderAwaitingVerification:
		return events.EventTaskPendingVerify,
			"Task awaiting verification",
			fmt.Sprintf("Task %q is still waiting to be verified", task.Title)
	default:
		return events.EventTaskVerified,
			"Task ready to close",
			fmt.Sprintf("Task %q is verified and can be closed", task.Title)
	}
}

// DispatchReminder queues a scheduler-synthesized reminder. Reminders have
// no acting user and always target the task's assignee, verifier and
// creator (de-duplicated).
func (d *Dispatcher) DispatchReminder(ctx context.Context, task *domain.Task, kind ReminderKind) {
	event, title, content := reminderTemplate(kind, task)

	d.enqueue(events.NewLifecycleEvent(
		event,
		task.ID,
		uuid.Nil,
		collectRecipients(uuid.Nil, []*uuid.UUID{task.AssigneeID, task.VerifierID, &task.CreatorID}),
		title,
		content,
		domain.NotificationTypeTaskReminder,
		true,
	))
}
