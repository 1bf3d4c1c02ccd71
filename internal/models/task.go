package models

import (
	"gorm.io/datatypes"
)

// Task represents a unit of work. Every task references a user, a priority
// and a status; the due date lives in a separate Deadline row that exists
// if and only if HasDeadline is true.
type Task struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Description  string `json:"description" gorm:"not null"`
	HasDeadline  bool   `json:"has_deadline" gorm:"not null;default:false"`
	LeadTimeDays int    `json:"lead_time_days" gorm:"not null;default:0"`
	PriorityID   uint   `json:"priority_id" gorm:"not null"`
	UserID       uint   `json:"user_id" gorm:"not null"`
	StatusID     uint   `json:"status_id" gorm:"not null"`

	// Foreign Key Relations
	Priority *Priority `json:"priority,omitempty" gorm:"foreignKey:PriorityID"`
	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Status   *Status   `json:"status,omitempty" gorm:"foreignKey:StatusID"`

	// One-to-One Relations
	Deadline *Deadline `json:"deadline,omitempty" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`

	// Many-to-Many Relations
	Tags []*Tag `json:"tags,omitempty" gorm:"many2many:task_tags;constraint:OnDelete:CASCADE"`
}

// Deadline is the optional due-date extension of a task, keyed by the task
// itself. Rows are written and removed only by the task write path, never
// independently.
type Deadline struct {
	TaskID  uint           `json:"task_id" gorm:"primaryKey"`
	DueDate datatypes.Date `json:"due_date" gorm:"not null"`
}

// TaskTag is the task/tag junction row. Declared explicitly (instead of
// letting gorm derive it) so the composite key and cascade rules are part of
// the migrated schema; registered via SetupJoinTable.
type TaskTag struct {
	TaskID uint `json:"task_id" gorm:"primaryKey"`
	TagID  uint `json:"tag_id" gorm:"primaryKey"`
}
