package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/taskflow-app/taskflow-api/internal/api/shared"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/service"
)

// CommentHandler handles comment-related HTTP requests.
type CommentHandler struct {
	commentService CommentService
	validator      *validator.Validate
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		validator:      validator.New(),
	}
}

// CreateComment handles POST /api/tasks/{id}/comments requests. Accepts
// JSON or a multipart form with a payload field plus files parts. A
// completion report additionally moves the task to pending verification.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateCommentRequest
	files, err := shared.DecodePayload(r, &req)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	comment, err := h.commentService.AddComment(r.Context(), actorID, taskID, service.CommentInput{
		ParentID: req.ParentID,
		Type:     domain.CommentType(req.Type),
		Content:  req.Content,
		Files:    files,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, commentToResponse(comment))
}

// ListComments handles GET /api/tasks/{id}/comments requests, returning
// the task's comment thread with replies nested under their parents.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := getActorFromContext(r); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	comments, err := h.commentService.ListComments(r.Context(), taskID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, commentsToResponse(comments))
}
