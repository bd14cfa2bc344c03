// Package scheduler runs the periodic reconciliation loops: reminder scans
// over task state and the daily reset of repeating tasks. The scheduler
// acts with no user identity; every event it produces carries a nil actor.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/fanout"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// ReminderDispatcher queues scheduler-synthesized reminders for delivery.
type ReminderDispatcher interface {
	DispatchReminder(ctx context.Context, task *domain.Task, kind fanout.ReminderKind)
}

// Config holds the reconciler's tick intervals and scan windows.
type Config struct {
	// ReminderInterval is how often the reminder scan runs.
	ReminderInterval time.Duration

	// ResetInterval is how often the repeating-task reset runs.
	ResetInterval time.Duration

	// DueSoonWindow is the forward-looking window for the near-due scan.
	DueSoonWindow time.Duration
}

// DefaultConfig returns the production tick intervals: reminders hourly,
// resets daily, near-due lookahead of one day.
func DefaultConfig() Config {
	return Config{
		ReminderInterval: time.Hour,
		ResetInterval:    24 * time.Hour,
		DueSoonWindow:    24 * time.Hour,
	}
}

// Reconciler periodically scans task state and synthesizes the reminders
// and resets that no user action triggers. Scans are stateless: a task
// still matching a scan condition on the next tick is reminded again, and
// a task matching several conditions gets several reminders. The scans
// provide no exactly-once guarantee and do not try to.
type Reconciler struct {
	tasks      store.TaskStore
	dispatcher ReminderDispatcher
	config     Config
	logger     *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewReconciler creates a Reconciler over the given task store.
func NewReconciler(
	tasks store.TaskStore,
	dispatcher ReminderDispatcher,
	config Config,
	logger *slog.Logger,
) *Reconciler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task store cannot be nil for Reconciler")
	}
	if dispatcher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("dispatcher cannot be nil for Reconciler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Reconciler")
	}

	defaults := DefaultConfig()
	if config.ReminderInterval <= 0 {
		config.ReminderInterval = defaults.ReminderInterval
	}
	if config.ResetInterval <= 0 {
		config.ResetInterval = defaults.ResetInterval
	}
	if config.DueSoonWindow <= 0 {
		config.DueSoonWindow = defaults.DueSoonWindow
	}

	return &Reconciler{
		tasks:      tasks,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger.With(slog.String("component", "reconciler")),
		stop:       make(chan struct{}),
	}
}

// Start launches the reminder and reset loops.
func (r *Reconciler) Start() {
	r.wg.Add(2)
	go r.loop(r.config.ReminderInterval, r.RunReminderScan)
	go r.loop(r.config.ResetInterval, r.RunRepeatingReset)
	r.logger.Info("reconciler started",
		"reminder_interval", r.config.ReminderInterval,
		"reset_interval", r.config.ResetInterval)
}

// Stop halts both loops and waits for any in-flight scan to finish.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	r.logger.Info("reconciler stopped")
}

// loop runs fn on every tick until the reconciler is stopped.
func (r *Reconciler) loop(interval time.Duration, fn func(ctx context.Context)) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			fn(context.Background())
		}
	}
}

// RunReminderScan executes one pass of all four reminder scans. A failing
// list query skips that scan only; the remaining scans still run.
func (r *Reconciler) RunReminderScan(ctx context.Context) {
	r.scanDueSoon(ctx)
	r.scanStatus(ctx, domain.TaskStatusVerificationFailed, fanout.ReminderVerificationStalled, nil)
	r.scanStatus(ctx, domain.TaskStatusPendingVerification, fanout.ReminderAwaitingVerification, nil)
	r.scanStatus(ctx, domain.TaskStatusVerified, fanout.ReminderAwaitingClose, func(task *domain.Task) bool {
		return !task.IsRepeating
	})
}

// scanDueSoon reminds about NEW tasks whose due date is inside the window.
func (r *Reconciler) scanDueSoon(ctx context.Context) {
	tasks, err := r.tasks.ListDueSoon(ctx, r.config.DueSoonWindow)
	if err != nil {
		r.logger.Error("due-soon scan failed", "error", err)
		return
	}

	for _, task := range tasks {
		r.dispatcher.DispatchReminder(ctx, task, fanout.ReminderDueSoon)
	}
	if len(tasks) > 0 {
		r.logger.Debug("due-soon reminders dispatched", "count", len(tasks))
	}
}

// scanStatus reminds about every task sitting in the given status,
// optionally filtered.
func (r *Reconciler) scanStatus(
	ctx context.Context,
	status domain.TaskStatus,
	kind fanout.ReminderKind,
	include func(task *domain.Task) bool,
) {
	tasks, err := r.tasks.ListByStatus(ctx, status)
	if err != nil {
		r.logger.Error("status scan failed", "status", status, "error", err)
		return
	}

	dispatched := 0
	for _, task := range tasks {
		if include != nil && !include(task) {
			continue
		}
		r.dispatcher.DispatchReminder(ctx, task, kind)
		dispatched++
	}
	if dispatched > 0 {
		r.logger.Debug("status reminders dispatched", "status", status, "count", dispatched)
	}
}

// RunRepeatingReset executes one pass of the daily reset: every verified
// repeating task goes back to NEW through a direct status write. The reset
// deliberately emits no events; assignees would otherwise be re-notified
// about a task they already hold. One failing task does not stop the rest.
func (r *Reconciler) RunRepeatingReset(ctx context.Context) {
	tasks, err := r.tasks.ListRepeatingVerified(ctx)
	if err != nil {
		r.logger.Error("repeating reset scan failed", "error", err)
		return
	}

	reset := 0
	for _, task := range tasks {
		if err := r.tasks.UpdateStatus(ctx, task.ID, domain.TaskStatusNew); err != nil {
			r.logger.Error("failed to reset repeating task, skipping",
				"task_id", task.ID,
				"error", err)
			continue
		}
		reset++
	}
	if reset > 0 {
		r.logger.Info("repeating tasks reset", "count", reset)
	}
}
