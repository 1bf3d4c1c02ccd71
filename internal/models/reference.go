package models

// Reference vocabularies: small identity-keyed lookup tables referenced by
// tasks. Users, priorities and statuses are seeded once and treated as fixed;
// tags are user-managed (see tag.go).

// User represents a household member tasks can be assigned to.
type User struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:50;not null"`
}

// Priority represents a priority level (Hoch, Mittel, Niedrig, ...).
type Priority struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:20;not null"`
}

// Status represents a task lifecycle state.
type Status struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:20;not null"`
}

// Well-known status names. The seed installs more (Problem, Beobachten,
// Abstimmung nötig), but only these three drive behavior: StatusCompleted
// excludes tasks from the urgency views and feeds the completion counters,
// StatusInProgress and StatusCompleted anchor the per-user sort buckets.
const (
	StatusOpen       = "Offen"
	StatusInProgress = "In Bearbeitung"
	StatusCompleted  = "Erledigt"
)
