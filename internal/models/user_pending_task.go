package models

import "time"

// UserPendingTask is one member of a user's pendingTasks set in SQL backends.
type UserPendingTask struct {
	UserID    string    `gorm:"primarykey;type:varchar(36)" json:"user_id"`
	TaskID    string    `gorm:"primarykey;type:varchar(36);index" json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
}
