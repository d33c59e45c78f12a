package dto

import (
	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/query"
	"github.com/yukikurage/task-user-api/internal/services"
)

// TaskRequest is the body of POST and PUT /api/tasks
type TaskRequest struct {
	Name             string    `json:"name" form:"name"`
	Description      string    `json:"description" form:"description"`
	Deadline         Timestamp `json:"deadline" form:"deadline"`
	Completed        Flag      `json:"completed" form:"completed"`
	AssignedUser     *string   `json:"assignedUser" form:"assignedUser"`
	AssignedUserName string    `json:"assignedUserName" form:"assignedUserName"`
}

// ToInput converts the request into service input
func (r TaskRequest) ToInput() services.TaskInput {
	return services.TaskInput{
		Name:             r.Name,
		Description:      r.Description,
		Deadline:         r.Deadline.Ptr(),
		Completed:        bool(r.Completed),
		AssignedUser:     r.AssignedUser,
		AssignedUserName: r.AssignedUserName,
	}
}

// RenderTask returns the task as sent to clients, restricted to the fields
// kept by projection.
func RenderTask(task *models.Task, projection *query.Projection) any {
	if projection == nil {
		return task
	}

	doc := map[string]any{
		query.IDField:      task.ID,
		"name":             task.Name,
		"description":      task.Description,
		"deadline":         task.Deadline,
		"completed":        task.Completed,
		"assignedUser":     task.AssignedUser,
		"assignedUserName": task.AssignedUserName,
		"dateCreated":      task.DateCreated,
	}
	return project(doc, projection)
}

// RenderTasks renders every task with the same projection
func RenderTasks(tasks []models.Task, projection *query.Projection) []any {
	rendered := make([]any, len(tasks))
	for i := range tasks {
		rendered[i] = RenderTask(&tasks[i], projection)
	}
	return rendered
}

func project(doc map[string]any, projection *query.Projection) map[string]any {
	for key := range doc {
		if !projection.Includes(key) {
			delete(doc, key)
		}
	}
	return doc
}
