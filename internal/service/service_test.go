package service

import (
	"context"
	"testing"

	"github.com/mkraemer/weekmaster/internal/models"
	"github.com/mkraemer/weekmaster/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixtures holds the ids of the reference rows every test database starts
// with.
type fixtures struct {
	open, inProgress, done uint
	prioHigh, prioMid      uint
	userMS, userRM         uint
	tagWohnung, tagGarten  uint
	tagEinkauf             uint
}

// newTestDB opens an in-memory sqlite database with the migrated schema and
// a minimal reference vocabulary. The pool is pinned to one connection so
// the in-memory database and its foreign_keys pragma survive across
// statements.
func newTestDB(t *testing.T) (*gorm.DB, fixtures) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var f fixtures
	f.prioHigh = mustCreate(t, db, &models.Priority{Name: "Hoch"})
	f.prioMid = mustCreate(t, db, &models.Priority{Name: "Mittel"})
	f.open = mustCreateStatus(t, db, models.StatusOpen)
	f.inProgress = mustCreateStatus(t, db, models.StatusInProgress)
	mustCreateStatus(t, db, "Beobachten")
	f.done = mustCreateStatus(t, db, models.StatusCompleted)
	f.userMS = mustCreateUser(t, db, "MS")
	f.userRM = mustCreateUser(t, db, "RM")
	f.tagWohnung = mustCreateTag(t, db, "Wohnung")
	f.tagGarten = mustCreateTag(t, db, "Garten")
	f.tagEinkauf = mustCreateTag(t, db, "Einkauf")
	return db, f
}

func mustCreate(t *testing.T, db *gorm.DB, p *models.Priority) uint {
	t.Helper()
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create priority: %v", err)
	}
	return p.ID
}

func mustCreateStatus(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	s := models.Status{Name: name}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create status: %v", err)
	}
	return s.ID
}

func mustCreateUser(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	u := models.User{Name: name}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func mustCreateTag(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	tag := models.Tag{Name: name}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	return tag.ID
}

// baseInput is a valid task input without a deadline or tags.
func baseInput(f fixtures) TaskInput {
	return TaskInput{
		Description: "Spülmittel im Supermarkt kaufen",
		UserID:      f.userMS,
		PriorityID:  f.prioMid,
		StatusID:    f.open,
	}
}

func mustCreateTask(t *testing.T, svc *TaskService, in TaskInput) *TaskRow {
	t.Helper()
	row, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return row
}

/// assertDeadlineInvariant checks the central consistency rule: a deadline
// row exists for a task exactly when its has_deadline flag is set.
func assertDeadlineInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var tasks []models.Task
	if err := db.Preload("Deadline").Find(&tasks).Error; err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	for _, task := range tasks {
		if task.HasDeadline != (task.Deadline != nil) {
			t.Errorf("task %d: has_deadline=%v but deadline row present=%v",
				task.ID, task.HasDeadline, task.Deadline != nil)
		}
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
