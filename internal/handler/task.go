package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
	"github.com/BuzzLyutic/task-tracker/internal/service"
	"github.com/BuzzLyutic/task-tracker/internal/store"
	"github.com/BuzzLyutic/task-tracker/pkg/respond"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

type createTaskRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Title    string `json:"title" validate:"required,max=200"`
	Priority int    `json:"priority" validate:"required,min=1,max=10"`
	Due      string `json:"due" validate:"max=32"`
	Status   string `json:"status" validate:"max=32"`
}

type editTaskRequest struct {
	Username string  `json:"username" validate:"max=64"`
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	Priority *int    `json:"priority" validate:"omitempty,min=1,max=10"`
	Due      *string `json:"due" validate:"omitempty,max=32"`
	Status   *string `json:"status" validate:"omitempty,min=1,max=32"`
}

type assignRequest struct {
	From string `json:"from" validate:"required,max=64"`
	To   string `json:"to" validate:"required,max=64"`
}

type unassignRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

type snapshotResponse struct {
	ID      string    `json:"id"`
	TakenAt time.Time `json:"taken_at"`
	Tasks   int       `json:"tasks"`
	Users   int       `json:"users"`
}

type TaskHandler struct {
	service  *service.TaskService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{
		service:  srv,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes is mounted under /api.
func (h *TaskHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Route("/{username}", func(r chi.Router) {
			r.Get("/tasks", h.ListUserTasks)
			r.Post("/undo", h.Undo)
			r.Post("/redo", h.Redo)
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Post("/assign", h.Assign)
			r.Post("/unassign", h.Unassign)
		})
	})

	r.Get("/notifications", h.Notifications)
	r.Delete("/notifications", h.ClearNotifications)
	r.Get("/stats", h.Stats)

	r.Post("/snapshots", h.Save)
	r.Post("/snapshots/latest/restore", h.Load)
	r.Post("/snapshots/{snapshotID}/restore", h.LoadByID)

	return r
}

func (h *TaskHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.Login(req.Username); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, map[string]string{"username": strings.TrimSpace(req.Username)})
}

func (h *TaskHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.service.ListUsers())
}

// ListUserTasks returns the whole list without parameters. q matches a title
// substring; status and priority narrow the result.
func (h *TaskHandler) ListUserTasks(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	query := r.URL.Query()

	var filter model.TaskFilter
	filtered := false
	if status := query.Get("status"); status != "" {
		filter.Status = &status
		filtered = true
	}
	if raw := query.Get("priority"); raw != "" {
		priority, err := strconv.Atoi(raw)
		if err != nil {
			respond.ErrorCode(w, r, http.StatusBadRequest, "validation", "priority must be a number")
			return
		}
		filter.Priority = &priority
		filtered = true
	}

	var tasks []model.Task
	switch q := query.Get("q"); {
	case q != "":
		tasks = h.service.SearchByTitle(username, q)
		if filtered {
			kept := tasks[:0]
			for _, t := range tasks {
				if filter.Match(t) {
					kept = append(kept, t)
				}
			}
			tasks = kept
		}
	case filtered:
		tasks = h.service.FilterTasks(username, filter)
	default:
		tasks = h.service.ListUserTasks(username)
	}

	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Undo(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Undo(chi.URLParam(r, "username"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, entry)
}

func (h *TaskHandler) Redo(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Redo(chi.URLParam(r, "username"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, entry)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.service.CreateTask(req.Username, model.NewTask{
		Title:    req.Title,
		Priority: req.Priority,
		DueDate:  req.Due,
		Status:   req.Status,
	})
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListAllTasks(r.URL.Query().Get("sort"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetTask(id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var req editTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.service.EditTask(req.Username, id, model.TaskUpdate{
		Title:    req.Title,
		Priority: req.Priority,
		DueDate:  req.Due,
		Status:   req.Status,
	})
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if !h.decode(w, r, &req) {
		return
	}

	assigned, err := h.service.AssignTask(req.From, req.To, id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, map[string]bool{"assigned": assigned})
}

func (h *TaskHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var req unassignRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.UnassignTask(req.Username, id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.NoContent(w)
}

func (h *TaskHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.service.Notifications())
}

func (h *TaskHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	h.service.ClearNotifications()
	respond.NoContent(w)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.service.Stats())
}

func (h *TaskHandler) Save(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Save(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, summarize(snap))
}

func (h *TaskHandler) Load(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Load(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, summarize(snap))
}

func (h *TaskHandler) LoadByID(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.LoadByID(r.Context(), chi.URLParam(r, "snapshotID"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, summarize(snap))
}

func summarize(s model.Snapshot) snapshotResponse {
	return snapshotResponse{ID: s.ID, TakenAt: s.TakenAt, Tasks: len(s.Tasks), Users: len(s.Users)}
}

func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respond.ErrorCode(w, r, http.StatusBadRequest, "validation", "task id must be a positive integer")
		return 0, false
	}
	return id, true
}

// decode parses the body and runs the validator. On failure the response is already written.
func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := respond.Decode(r, dst); err != nil {
		respond.ErrorCode(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			respond.ErrorCode(w, r, http.StatusBadRequest, "validation", strings.Join(fields, "; "))
			return false
		}
		respond.ErrorCode(w, r, http.StatusBadRequest, "validation", err.Error())
		return false
	}
	return true
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrConsistencyViolation):
		respond.ErrorCode(w, r, http.StatusConflict, "consistency_violation", err.Error())
	case errors.Is(err, store.ErrNothingToUndo):
		respond.ErrorCode(w, r, http.StatusConflict, "nothing_to_undo", "nothing to undo")
	case errors.Is(err, store.ErrNothingToRedo):
		respond.ErrorCode(w, r, http.StatusConflict, "nothing_to_redo", "nothing to redo")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, repo.ErrorNotFound):
		respond.ErrorCode(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrCapacityExceeded):
		respond.ErrorCode(w, r, http.StatusInsufficientStorage, "capacity_exceeded", err.Error())
	case errors.Is(err, service.ErrValidation):
		respond.ErrorCode(w, r, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, service.ErrPersistenceDisabled):
		respond.ErrorCode(w, r, http.StatusServiceUnavailable, "persistence_disabled", "persistence is not configured")
	case errors.Is(err, repo.ErrorConflict):
		respond.ErrorCode(w, r, http.StatusConflict, "conflict", "conflict")
	default:
		h.logger.Error("internal error",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respond.ErrorCode(w, r, http.StatusInternalServerError, "internal", "internal error")
	}
}
