package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-user-api/internal/dto"
	"github.com/yukikurage/task-user-api/internal/services"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// ListUsers returns the users matching the query parameters, or their count
func (h *UserHandler) ListUsers(c *gin.Context) {
	result, err := h.service.ListUsers(c.Request.Context(), queryParams(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Counted {
		respond(c, http.StatusOK, msgOK, result.Count)
		return
	}
	respond(c, http.StatusOK, msgOK, dto.RenderUsers(result.Items, result.Projection))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, projection, err := h.service.GetUser(c.Request.Context(), c.Param("id"), queryParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgOK, dto.RenderUser(user, projection))
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.UserRequest
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgCreated, dto.RenderUser(user, nil))
}

// ReplaceUser replaces a user's fields and pending task set
func (h *UserHandler) ReplaceUser(c *gin.Context) {
	var req dto.UserRequest
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.service.ReplaceUser(c.Request.Context(), c.Param("id"), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdated, dto.RenderUser(user, nil))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDeleted, nil)
}
