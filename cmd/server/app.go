package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskflow-app/taskflow-api/internal/activity"
	"github.com/taskflow-app/taskflow-api/internal/config"
	"github.com/taskflow-app/taskflow-api/internal/content"
	"github.com/taskflow-app/taskflow-api/internal/events"
	"github.com/taskflow-app/taskflow-api/internal/fanout"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
	"github.com/taskflow-app/taskflow-api/internal/platform/objectstore"
	"github.com/taskflow-app/taskflow-api/internal/platform/postgres"
	"github.com/taskflow-app/taskflow-api/internal/platform/webpush"
	"github.com/taskflow-app/taskflow-api/internal/scheduler"
	"github.com/taskflow-app/taskflow-api/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 15 * time.Second

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskService         *service.TaskService
	commentService      *service.CommentService
	notificationService *service.NotificationService

	dispatcher *fanout.Dispatcher
	reconciler *scheduler.Reconciler
}

// newApplication wires every component of the service, from the database
// connection to the background loops. Nothing is started yet; Run does that.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	taskStore := postgres.NewPostgresTaskStore(db, logger)
	commentStore := postgres.NewPostgresCommentStore(db, logger)
	activityStore := postgres.NewPostgresActivityLogStore(db, logger)
	notificationStore := postgres.NewPostgresNotificationStore(db, logger)
	subscriptionStore := postgres.NewPostgresPushSubscriptionStore(db, logger)
	userStore := postgres.NewPostgresUserStore(db, logger)

	blobs, err := objectstore.NewDiskStore(cfg.Storage.Root, cfg.Storage.BaseURL, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}

	resolver := content.NewResolver(blobs, logger)
	machine := lifecycle.NewStateMachine(resolver, logger)
	recorder := activity.NewRecorder(userStore, logger)

	emitter := events.NewInMemoryEmitter(logger)
	pushSender := webpush.NewSender(nil, logger)
	emitter.RegisterHandler(fanout.NewNotificationHandler(
		notificationStore, subscriptionStore, pushSender, logger))

	dispatcher := fanout.NewDispatcher(emitter, fanout.DispatcherConfig{
		WorkerCount: cfg.Fanout.WorkerCount,
		QueueSize:   cfg.Fanout.QueueSize,
	}, logger)

	reconciler := scheduler.NewReconciler(taskStore, dispatcher, scheduler.Config{
		ReminderInterval: cfg.Scheduler.ReminderInterval(),
		ResetInterval:    cfg.Scheduler.ResetInterval(),
		DueSoonWindow:    cfg.Scheduler.DueSoonWindow(),
	}, logger)

	return &application{
		config: cfg,
		logger: logger,
		db:     db,

		taskService: service.NewTaskService(
			db, taskStore, activityStore, machine, recorder, dispatcher, logger),
		commentService: service.NewCommentService(
			db, taskStore, commentStore, activityStore, resolver, machine, recorder, dispatcher, logger),
		notificationService: service.NewNotificationService(
			notificationStore, subscriptionStore, logger),

		dispatcher: dispatcher,
		reconciler: reconciler,
	}, nil
}

// Run starts the delivery workers, the reconciliation loops and the HTTP
// server, then blocks until SIGINT or SIGTERM triggers a graceful shutdown.
func (app *application) Run() error {
	app.dispatcher.Start()
	app.reconciler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		app.logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		app.logger.Error("server failed", "error", err)
		app.shutdownBackground()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful shutdown failed", "error", err)
	}

	app.shutdownBackground()
	app.logger.Info("server stopped")
	return nil
}

// shutdownBackground stops the loops before the queue, so nothing new is
// enqueued while the workers drain, then closes the database.
func (app *application) shutdownBackground() {
	app.reconciler.Stop()
	app.dispatcher.Stop()
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}
