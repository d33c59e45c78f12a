package dto

import (
	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/query"
	"github.com/yukikurage/task-user-api/internal/services"
)

// UserRequest is the body of POST and PUT /api/users
type UserRequest struct {
	Name         string `json:"name" form:"name"`
	Email        string `json:"email" form:"email"`
	PendingTasks IDList `json:"pendingTasks" form:"pendingTasks"`
}

// ToInput converts the request into service input
func (r UserRequest) ToInput() services.UserInput {
	pending := []string(r.PendingTasks)
	if pending == nil {
		pending = []string{}
	}
	return services.UserInput{
		Name:         r.Name,
		Email:        r.Email,
		PendingTasks: pending,
	}
}

// RenderUser returns the user as sent to clients, restricted to the fields
// kept by projection. pendingTasks is always an array.
func RenderUser(user *models.User, projection *query.Projection) any {
	pending := user.PendingTasks
	if pending == nil {
		pending = []string{}
	}

	if projection == nil {
		rendered := *user
		rendered.PendingTasks = pending
		return rendered
	}

	doc := map[string]any{
		query.IDField:  user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"pendingTasks": pending,
		"dateCreated":  user.DateCreated,
	}
	return project(doc, projection)
}

// RenderUsers renders every user with the same projection
func RenderUsers(users []models.User, projection *query.Projection) []any {
	rendered := make([]any, len(users))
	for i := range users {
		rendered[i] = RenderUser(&users[i], projection)
	}
	return rendered
}
