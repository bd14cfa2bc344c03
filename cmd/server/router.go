package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/taskflow-app/taskflow-api/internal/api"
	apimiddleware "github.com/taskflow-app/taskflow-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(app.taskService)
	commentHandler := api.NewCommentHandler(app.commentService)
	notificationHandler := api.NewNotificationHandler(app.notificationService)

	r.Route("/api", func(r chi.Router) {
		r.Use(apimiddleware.ActorMiddleware)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.CreateTask)
			r.Get("/", taskHandler.ListTasks)
			r.Get("/{id}", taskHandler.GetTask)
			r.Patch("/{id}", taskHandler.UpdateTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
			r.Get("/{id}/activity", taskHandler.ListActivity)
			r.Post("/{id}/comments", commentHandler.CreateComment)
			r.Get("/{id}/comments", commentHandler.ListComments)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.ListNotifications)
			r.Delete("/{id}", notificationHandler.DeleteNotification)
			r.Put("/subscription", notificationHandler.SavePushSubscription)
			r.Delete("/subscription", notificationHandler.RemovePushSubscription)
		})
	})

	// Uploaded files are served straight from the disk store.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(app.config.Storage.Root))))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
