package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mkraemer/weekmaster/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskService owns the task lifecycle: every write that touches the task row
// together with its deadline or tag associations runs in one transaction, so
// the has_deadline flag and the deadline row can never drift apart and a
// reader never observes a half-applied change.
type TaskService struct {
	db *gorm.DB
}

// NewTaskService creates a TaskService writing through db.
func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

// TaskInput carries the full field set of a task write. Updates replace all
// fields; there is no partial merge except UpdateStatus.
type TaskInput struct {
	Description  string `json:"description"`
	HasDeadline  bool   `json:"has_deadline"`
	DueDate      string `json:"due_date"`
	LeadTimeDays int    `json:"lead_time_days"`
	UserID       uint   `json:"user_id"`
	PriorityID   uint   `json:"priority_id"`
	StatusID     uint   `json:"status_id"`
	TagIDs       []uint `json:"tag_ids"`
}

// validate checks the input before any write and parses the due date.
func (in TaskInput) validate() (time.Time, error) {
	if strings.TrimSpace(in.Description) == "" {
		return time.Time{}, validationErrorf("description is required")
	}
	if in.UserID == 0 {
		return time.Time{}, validationErrorf("user id is required")
	}
	if in.PriorityID == 0 {
		return time.Time{}, validationErrorf("priority id is required")
	}
	if in.StatusID == 0 {
		return time.Time{}, validationErrorf("status id is required")
	}
	if in.LeadTimeDays < 0 {
		return time.Time{}, validationErrorf("lead time days must not be negative")
	}
	if !in.HasDeadline {
		return time.Time{}, nil
	}
	if in.DueDate == "" {
		return time.Time{}, validationErrorf("due date is required when has_deadline is set")
	}
	due, err := time.Parse(dateLayout, in.DueDate)
	if err != nil {
		return time.Time{}, validationErrorf("due date must be formatted as %s", dateLayout)
	}
	return due, nil
}

func (in TaskInput) apply(task *models.Task) {
	task.Description = in.Description
	task.HasDeadline = in.HasDeadline
	task.LeadTimeDays = in.LeadTimeDays
	task.PriorityID = in.PriorityID
	task.UserID = in.UserID
	task.StatusID = in.StatusID
}

// Create inserts a task with its deadline and tag associations and returns
// the canonical joined row.
func (s *TaskService) Create(ctx context.Context, in TaskInput) (*TaskRow, error) {
	due, err := in.validate()
	if err != nil {
		return nil, err
	}

	var task models.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTagsExist(tx, in.TagIDs); err != nil {
			return err
		}
		in.apply(&task)
		if err := tx.Create(&task).Error; err != nil {
			return storageErr("create task", err)
		}
		if err := syncDeadline(tx, task.ID, in.HasDeadline, due); err != nil {
			return err
		}
		return replaceTags(tx, task.ID, in.TagIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.taskRow(ctx, task.ID)
}

// Update replaces every field of an existing task, keeps the deadline row in
// lockstep with the has_deadline flag, and swaps the tag selection
// wholesale. Calling it twice with the same input is a no-op the second
// time.
func (s *TaskService) Update(ctx context.Context, id uint, in TaskInput) (*TaskRow, error) {
	due, err := in.validate()
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "task", ID: id}
			}
			return storageErr("load task", err)
		}
		if err := ensureTagsExist(tx, in.TagIDs); err != nil {
			return err
		}
		in.apply(&task)
		if err := tx.Save(&task).Error; err != nil {
			return storageErr("update task", err)
		}
		if err := syncDeadline(tx, task.ID, in.HasDeadline, due); err != nil {
			return err
		}
		return replaceTags(tx, task.ID, in.TagIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.taskRow(ctx, id)
}

// UpdateStatus changes only the status column.
func (s *TaskService) UpdateStatus(ctx context.Context, id, statusID uint) (*TaskRow, error) {
	if statusID == 0 {
		return nil, validationErrorf("status id is required")
	}
	res := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", id).
		Update("status_id", statusID)
	if res.Error != nil {
		return nil, storageErr("update task status", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &NotFoundError{Resource: "task", ID: id}
	}
	return s.taskRow(ctx, id)
}

// Delete removes a task and returns its last joined row. The deadline and
// tag association rows go with it through the schema's cascade rules, not
// through application code.
func (s *TaskService) Delete(ctx context.Context, id uint) (*TaskRow, error) {
	row, err := s.taskRow(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return nil, storageErr("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &NotFoundError{Resource: "task", ID: id}
	}
	return row, nil
}

func (s *TaskService) taskRow(ctx context.Context, id uint) (*TaskRow, error) {
	query := s.db.WithContext(ctx).
		Preload("User").
		Preload("Priority").
		Preload("Status").
		Preload("Deadline").
		Preload("Tags")
	return loadTaskRow(query, id)
}

// ensureTagsExist rejects the whole write when any requested tag id has no
// tag row. Silently dropping unknown ids would lose user intent.
func ensureTagsExist(tx *gorm.DB, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	var existing []uint
	err := tx.Model(&models.Tag{}).Where("id IN ?", tagIDs).Pluck("id", &existing).Error
	if err != nil {
		return storageErr("check tags", err)
	}
	known := make(map[uint]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	for _, id := range tagIDs {
		if !known[id] {
			return validationErrorf("tag %d does not exist", id)
		}
	}
	return nil
}

// syncDeadline upserts the deadline row when the task is flagged and removes
// it otherwise. Idempotent in both directions.
func syncDeadline(tx *gorm.DB, taskID uint, hasDeadline bool, due time.Time) error {
	if hasDeadline {
		deadline := models.Deadline{TaskID: taskID, DueDate: datatypes.Date(due)}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"due_date"}),
		}).Create(&deadline).Error
		if err != nil {
			return storageErr("upsert deadline", err)
		}
		return nil
	}
	if err := tx.Where("task_id = ?", taskID).Delete(&models.Deadline{}).Error; err != nil {
		return storageErr("delete deadline", err)
	}
	return nil
}

// replaceTags swaps the task's tag selection: delete all junction rows, then
// insert the new set. Replace, not merge.
func replaceTags(tx *gorm.DB, taskID uint, tagIDs []uint) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskTag{}).Error; err != nil {
		return storageErr("clear task tags", err)
	}
	seen := make(map[uint]bool, len(tagIDs))
	links := make([]models.TaskTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true
		links = append(links, models.TaskTag{TaskID: taskID, TagID: tagID})
	}
	if len(links) == 0 {
		return nil
	}
	if err := tx.Create(&links).Error; err != nil {
		return storageErr("insert task tags", err)
	}
	return nil
}
