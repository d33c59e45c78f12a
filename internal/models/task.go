package models

import "time"

// UnassignedUserName is the display name stored on tasks without an assignee.
const UnassignedUserName = "unassigned"

type Task struct {
	ID               string    `gorm:"primarykey;type:varchar(36)" json:"_id" bson:"_id"`
	Name             string    `gorm:"type:varchar(255);not null" json:"name" bson:"name"`
	Description      string    `gorm:"type:text" json:"description" bson:"description"`
	Deadline         time.Time `gorm:"not null;index" json:"deadline" bson:"deadline"`
	Completed        bool      `gorm:"not null" json:"completed" bson:"completed"`
	AssignedUser     *string   `gorm:"type:varchar(36);index" json:"assignedUser" bson:"assignedUser"`
	AssignedUserName string    `gorm:"type:varchar(255);not null" json:"assignedUserName" bson:"assignedUserName"`
	DateCreated      time.Time `gorm:"not null" json:"dateCreated" bson:"dateCreated"`
}

// IsAssigned reports whether the task points at a user.
func (t *Task) IsAssigned() bool {
	return t.AssignedUser != nil && *t.AssignedUser != ""
}

// Unassign clears both assignment fields.
func (t *Task) Unassign() {
	t.AssignedUser = nil
	t.AssignedUserName = UnassignedUserName
}

// AssignTo points the task at userID with the given display name.
func (t *Task) AssignTo(userID, userName string) {
	id := userID
	t.AssignedUser = &id
	t.AssignedUserName = userName
}
