package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API root and the task and user resources on api
func RegisterRoutes(api *gin.RouterGroup, tasks *TaskHandler, users *UserHandler) {
	api.GET("/", Home)

	taskRoutes := api.Group("/tasks")
	{
		taskRoutes.GET("", tasks.ListTasks)
		taskRoutes.POST("", tasks.CreateTask)
		taskRoutes.GET("/:id", tasks.GetTask)
		taskRoutes.PUT("/:id", tasks.ReplaceTask)
		taskRoutes.DELETE("/:id", tasks.DeleteTask)
	}

	userRoutes := api.Group("/users")
	{
		userRoutes.GET("", users.ListUsers)
		userRoutes.POST("", users.CreateUser)
		userRoutes.GET("/:id", users.GetUser)
		userRoutes.PUT("/:id", users.ReplaceUser)
		userRoutes.DELETE("/:id", users.DeleteUser)
	}
}
