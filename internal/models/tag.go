package models

// Tag represents a user-defined label. Names are unique case-insensitively;
// the check runs in the service layer so the conflict can be reported as
// such rather than as a bare constraint error.
type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:50;not null;index:idx_tags_name"`

	// Many-to-Many Relations
	Tasks []*Task `json:"tasks,omitempty" gorm:"many2many:task_tags"`
}
