package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-user-api/internal/dto"
	"github.com/yukikurage/task-user-api/internal/services"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// ListTasks returns the tasks matching where/sort/select/skip/limit, or their
// count when count=true
func (h *TaskHandler) ListTasks(c *gin.Context) {
	result, err := h.service.ListTasks(c.Request.Context(), queryParams(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Counted {
		respond(c, http.StatusOK, msgOK, result.Count)
		return
	}
	respond(c, http.StatusOK, msgOK, dto.RenderTasks(result.Items, result.Projection))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, projection, err := h.service.GetTask(c.Request.Context(), c.Param("id"), queryParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgOK, dto.RenderTask(task, projection))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.TaskRequest
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgCreated, task)
}

// ReplaceTask replaces a task
func (h *TaskHandler) ReplaceTask(c *gin.Context) {
	var req dto.TaskRequest
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.service.ReplaceTask(c.Request.Context(), c.Param("id"), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdated, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.service.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDeleted, nil)
}
