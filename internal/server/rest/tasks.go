package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var updatableTaskFields = map[string]struct{}{
	"title": {}, "description": {}, "status": {}, "priority": {}, "deadline": {},
}

type createTaskRequest struct {
	Title       string              `json:"title" validate:"min=1,max=100"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    models.TaskPriority `json:"priority" validate:"oneof=low medium high"`
	Deadline    string              `json:"deadline" validate:"required,iso8601,future"`
}

type updateTaskRequest struct {
	Title       *string              `json:"title" validate:"omitnil,min=1,max=100"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status" validate:"omitnil,oneof=pending in_progress completed"`
	Priority    *models.TaskPriority `json:"priority" validate:"omitnil,oneof=low medium high"`
	Deadline    *string              `json:"deadline" validate:"omitnil,iso8601,future"`
}

type taskResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	Deadline    time.Time           `json:"deadline"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func toTaskResponse(t *models.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Deadline:    t.Deadline.UTC(),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

// taskID returns the {id} route variable, answering 400 when it is not a UUID.
func taskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		writeFieldErrors(w, []fieldError{{Path: "id", Location: "params", Msg: "Invalid task ID."}})
		return "", false
	}
	return id, true
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFrom(ctx)

	tasks, err := s.tasks.List(ctx, user.ID)
	if err != nil {
		s.internalError(ctx, w, "List tasks failed", err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := s.tasks.Get(ctx, userFrom(ctx).ID, id)
	if err != nil {
		s.taskError(w, r, "Get task failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTaskRequest
	if errs := decode(w, r, &req); errs != nil {
		writeFieldErrors(w, errs)
		return
	}
	if errs := s.check(&req); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	deadline, _ := parseDeadline(req.Deadline)
	task, err := s.tasks.Create(ctx, userFrom(ctx).ID, &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Deadline:    deadline,
	})
	if err != nil {
		s.taskError(w, r, "Task creation failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeFieldErrors(w, []fieldError{{Path: "body", Location: "body", Msg: "Malformed JSON body."}})
		return
	}

	var fields map[string]json.RawMessage
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			writeFieldErrors(w, []fieldError{{Path: "body", Location: "body", Msg: "Malformed JSON body."}})
			return
		}
	}
	if len(fields) == 0 {
		writeFieldErrors(w, []fieldError{{Path: "payload", Location: "body", Msg: "Payload cannot be empty"}})
		return
	}

	var unknown []fieldError
	for k := range fields {
		if _, ok := updatableTaskFields[k]; !ok {
			unknown = append(unknown, fieldError{Path: k, Location: "body", Msg: "Invalid field"})
		}
	}
	if len(unknown) > 0 {
		sort.Slice(unknown, func(i, j int) bool { return unknown[i].Path < unknown[j].Path })
		writeFieldErrors(w, unknown)
		return
	}

	var req updateTaskRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			writeFieldErrors(w, []fieldError{{Path: typeErr.Field, Location: "body", Msg: "Invalid value."}})
			return
		}
		writeFieldErrors(w, []fieldError{{Path: "body", Location: "body", Msg: "Malformed JSON body."}})
		return
	}
	if errs := s.check(&req); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	patch := models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.Deadline != nil {
		d, _ := parseDeadline(*req.Deadline)
		patch.Deadline = &d
	}

	if _, err := s.tasks.Update(ctx, userFrom(ctx).ID, id, patch); err != nil {
		s.taskError(w, r, "Task update failed", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task updated successfully"})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := s.tasks.Delete(ctx, userFrom(ctx).ID, id); err != nil {
		s.taskError(w, r, "Task deletion failed", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}

func (s *Server) taskError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalError(r.Context(), w, msg, err)
	}
}
