package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mkraemer/weekmaster/internal/models"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// urgencyWindowDays is the rolling window of the urgent view and the
// dashboard's due-this-week counter, inclusive on both ends.
const urgencyWindowDays = 7

// ViewService answers the read-only aggregation queries. It never mutates
// anything; each method fetches one row set and reduces it in memory, which
// keeps the contracts identical across database engines.
type ViewService struct {
	db *gorm.DB

	// now is swapped out in tests to pin the rolling windows.
	now func() time.Time
}

// NewViewService creates a ViewService reading from db.
func NewViewService(db *gorm.DB) *ViewService {
	return &ViewService{db: db, now: time.Now}
}

// TaskRow is the canonical joined representation of a task: reference names
// resolved, deadline date attached, tag names concatenated alphabetically.
type TaskRow struct {
	ID           uint   `json:"id"`
	Description  string `json:"description"`
	HasDeadline  bool   `json:"has_deadline"`
	DueDate      string `json:"due_date,omitempty"`
	LeadTimeDays int    `json:"lead_time_days"`
	UserName     string `json:"user_name"`
	PriorityName string `json:"priority_name"`
	StatusName   string `json:"status_name"`
	Tags         string `json:"tags"`
}

// UrgentTaskRow is a task due within the urgency window, with a
// human-readable label for the remaining time.
type UrgentTaskRow struct {
	ID           uint   `json:"id"`
	Description  string `json:"description"`
	DueDate      string `json:"due_date"`
	UserName     string `json:"user_name"`
	PriorityName string `json:"priority_name"`
	StatusName   string `json:"status_name"`
	DueInfo      string `json:"due_info"`
}

// UserTaskRow is a task of one user; every row carries the completed and
// overall totals computed over that user's entire result set.
type UserTaskRow struct {
	ID             uint   `json:"id"`
	Description    string `json:"description"`
	DueDate        string `json:"due_date,omitempty"`
	PriorityName   string `json:"priority_name"`
	StatusName     string `json:"status_name"`
	CompletedTotal int    `json:"completed_total"`
	TaskTotal      int    `json:"task_total"`
}

// TagTaskRow is a task reached through one tag.
type TagTaskRow struct {
	ID           uint   `json:"id"`
	Description  string `json:"description"`
	DueDate      string `json:"due_date,omitempty"`
	UserName     string `json:"user_name"`
	PriorityName string `json:"priority_name"`
	StatusName   string `json:"status_name"`
	TagName      string `json:"tag_name"`
}

// DashboardStats is the single-row dashboard aggregate.
type DashboardStats struct {
	TotalTasks        int            `json:"total_tasks"`
	OpenTasks         int            `json:"open_tasks"`
	InProgressTasks   int            `json:"in_progress_tasks"`
	CompletedTasks    int            `json:"completed_tasks"`
	NotCompletedTasks int            `json:"not_completed_tasks"`
	OverdueTasks      int            `json:"overdue_tasks"`
	DueThisWeek       int            `json:"due_this_week"`
	CompletionRate    float64        `json:"completion_rate"`
	ByStatus          map[string]int `json:"by_status"`
}

// PriorityStat is one slice of the per-priority distribution.
type PriorityStat struct {
	PriorityID       uint    `json:"priority_id"`
	PriorityName     string  `json:"priority_name"`
	TaskCount        int     `json:"task_count"`
	CompletedCount   int     `json:"completed_count"`
	CompletedPercent float64 `json:"completed_percent"`
}

func (s *ViewService) tasksQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("User").
		Preload("Priority").
		Preload("Status").
		Preload("Deadline").
		Preload("Tags")
}

// ListTasks returns every task as a joined row, ordered by due date
// ascending with tasks lacking a deadline last.
func (s *ViewService) ListTasks(ctx context.Context) ([]TaskRow, error) {
	var tasks []models.Task
	if err := s.tasksQuery(ctx).Find(&tasks).Error; err != nil {
		return nil, storageErr("list tasks", err)
	}
	sortByDueDate(tasks)
	rows := make([]TaskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, buildTaskRow(t))
	}
	return rows, nil
}

// GetTask returns the canonical joined row of a single task.
func (s *ViewService) GetTask(ctx context.Context, id uint) (*TaskRow, error) {
	return loadTaskRow(s.tasksQuery(ctx), id)
}

// UrgentTasks returns the non-completed tasks due within the next seven days
// (today inclusive), ordered by due date then priority id.
func (s *ViewService) UrgentTasks(ctx context.Context) ([]UrgentTaskRow, error) {
	var tasks []models.Task
	if err := s.tasksQuery(ctx).Find(&tasks).Error; err != nil {
		return nil, storageErr("list urgent tasks", err)
	}
	today := dateOnly(s.now())

	urgent := tasks[:0]
	for _, t := range tasks {
		due, ok := dueDateOf(t)
		if !ok || statusName(t) == models.StatusCompleted {
			continue
		}
		days := daysBetween(today, due)
		if days < 0 || days > urgencyWindowDays {
			continue
		}
		urgent = append(urgent, t)
	}
	sort.SliceStable(urgent, func(i, j int) bool {
		di, _ := dueDateOf(urgent[i])
		dj, _ := dueDateOf(urgent[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return urgent[i].PriorityID < urgent[j].PriorityID
	})

	rows := make([]UrgentTaskRow, 0, len(urgent))
	for _, t := range urgent {
		due, _ := dueDateOf(t)
		rows = append(rows, UrgentTaskRow{
			ID:           t.ID,
			Description:  t.Description,
			DueDate:      due.Format(dateLayout),
			UserName:     userName(t),
			PriorityName: priorityName(t),
			StatusName:   statusName(t),
			DueInfo:      urgencyLabel(daysBetween(today, due)),
		})
	}
	return rows, nil
}

// urgencyLabel renders the remaining days the way the frontend displays
// them: Heute fällig! / Morgen fällig! / Fällig in N Tagen.
func urgencyLabel(days int) string {
	switch days {
	case 0:
		return "Heute fällig!"
	case 1:
		return "Morgen fällig!"
	default:
		return fmt.Sprintf("Fällig in %d Tagen", days)
	}
}

// TasksByUser returns one user's tasks with running totals over the whole
// result set. Ordering: in-progress tasks first, completed last, due date
// ascending with missing deadlines at the end within each bucket.
func (s *ViewService) TasksByUser(ctx context.Context, userID uint) ([]UserTaskRow, error) {
	var tasks []models.Task
	if err := s.tasksQuery(ctx).Where("user_id = ?", userID).Find(&tasks).Error; err != nil {
		return nil, storageErr("list tasks by user", err)
	}

	completed := 0
	for _, t := range tasks {
		if statusName(t) == models.StatusCompleted {
			completed++
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		bi, bj := statusBucket(statusName(tasks[i])), statusBucket(statusName(tasks[j]))
		if bi != bj {
			return bi < bj
		}
		return dueBefore(tasks[i], tasks[j])
	})

	rows := make([]UserTaskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, UserTaskRow{
			ID:             t.ID,
			Description:    t.Description,
			DueDate:        formatDueDate(t),
			PriorityName:   priorityName(t),
			StatusName:     statusName(t),
			CompletedTotal: completed,
			TaskTotal:      len(tasks),
		})
	}
	return rows, nil
}

func statusBucket(name string) int {
	switch name {
	case models.StatusInProgress:
		return 1
	case models.StatusCompleted:
		return 3
	default:
		return 2
	}
}

// TasksByTag returns the tasks carrying the given tag, ordered by due date
// ascending with missing deadlines last. An unknown tag yields an empty
// list, matching the listing contract.
func (s *ViewService) TasksByTag(ctx context.Context, tagID uint) ([]TagTaskRow, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []TagTaskRow{}, nil
		}
		return nil, storageErr("load tag", err)
	}

	var tasks []models.Task
	err := s.tasksQuery(ctx).
		Joins("JOIN task_tags ON task_tags.task_id = tasks.id").
		Where("task_tags.tag_id = ?", tagID).
		Find(&tasks).Error
	if err != nil {
		return nil, storageErr("list tasks by tag", err)
	}
	sortByDueDate(tasks)

	rows := make([]TagTaskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, TagTaskRow{
			ID:           t.ID,
			Description:  t.Description,
			DueDate:      formatDueDate(t),
			UserName:     userName(t),
			PriorityName: priorityName(t),
			StatusName:   statusName(t),
			TagName:      tag.Name,
		})
	}
	return rows, nil
}

// DashboardStats computes the summary counters over all tasks.
func (s *ViewService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).Preload("Status").Preload("Deadline").Find(&tasks).Error
	if err != nil {
		return nil, storageErr("load dashboard stats", err)
	}
	today := dateOnly(s.now())

	stats := DashboardStats{ByStatus: map[string]int{}}
	stats.TotalTasks = len(tasks)
	for _, t := range tasks {
		name := statusName(t)
		stats.ByStatus[name]++
		switch name {
		case models.StatusOpen:
			stats.OpenTasks++
		case models.StatusInProgress:
			stats.InProgressTasks++
		case models.StatusCompleted:
			stats.CompletedTasks++
		}
		if due, ok := dueDateOf(t); ok && name != models.StatusCompleted {
			days := daysBetween(today, due)
			if days < 0 {
				stats.OverdueTasks++
			} else if days <= urgencyWindowDays {
				stats.DueThisWeek++
			}
		}
	}
	stats.NotCompletedTasks = stats.TotalTasks - stats.CompletedTasks
	if stats.TotalTasks > 0 {
		stats.CompletionRate = round(float64(stats.CompletedTasks)/float64(stats.TotalTasks)*100, 2)
	}
	return &stats, nil
}

// RecentTasks returns the 10 newest tasks. There is no created-at column;
// a higher id means created later.
func (s *ViewService) RecentTasks(ctx context.Context) ([]TaskRow, error) {
	var tasks []models.Task
	err := s.tasksQuery(ctx).Order("id DESC").Limit(10).Find(&tasks).Error
	if err != nil {
		return nil, storageErr("list recent tasks", err)
	}
	rows := make([]TaskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, buildTaskRow(t))
	}
	return rows, nil
}

// PriorityDistribution returns per-priority task and completion counts,
// including priorities without any task, ordered by priority id.
func (s *ViewService) PriorityDistribution(ctx context.Context) ([]PriorityStat, error) {
	var priorities []models.Priority
	if err := s.db.WithContext(ctx).Order("id").Find(&priorities).Error; err != nil {
		return nil, storageErr("list priorities", err)
	}
	var tasks []models.Task
	if err := s.db.WithContext(ctx).Preload("Status").Find(&tasks).Error; err != nil {
		return nil, storageErr("load priority distribution", err)
	}

	totals := map[uint]int{}
	completed := map[uint]int{}
	for _, t := range tasks {
		totals[t.PriorityID]++
		if statusName(t) == models.StatusCompleted {
			completed[t.PriorityID]++
		}
	}

	stats := make([]PriorityStat, 0, len(priorities))
	for _, p := range priorities {
		stat := PriorityStat{
			PriorityID:     p.ID,
			PriorityName:   p.Name,
			TaskCount:      totals[p.ID],
			CompletedCount: completed[p.ID],
		}
		if stat.TaskCount > 0 {
			stat.CompletedPercent = round(float64(stat.CompletedCount)/float64(stat.TaskCount)*100, 1)
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// ListUsers returns all users ordered by name, for selection lists.
func (s *ViewService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("name").Find(&users).Error; err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// ListPriorities returns all priorities ordered by id.
func (s *ViewService) ListPriorities(ctx context.Context) ([]models.Priority, error) {
	var priorities []models.Priority
	if err := s.db.WithContext(ctx).Order("id").Find(&priorities).Error; err != nil {
		return nil, storageErr("list priorities", err)
	}
	return priorities, nil
}

// ListStatuses returns all statuses ordered by id.
func (s *ViewService) ListStatuses(ctx context.Context) ([]models.Status, error) {
	var statuses []models.Status
	if err := s.db.WithContext(ctx).Order("id").Find(&statuses).Error; err != nil {
		return nil, storageErr("list statuses", err)
	}
	return statuses, nil
}

// loadTaskRow fetches one task through an already-preloading query and maps
// it. Shared by GetTask and the write paths' canonical re-reads.
func loadTaskRow(query *gorm.DB, id uint) (*TaskRow, error) {
	var task models.Task
	if err := query.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: id}
		}
		return nil, storageErr("load task", err)
	}
	row := buildTaskRow(task)
	return &row, nil
}

func buildTaskRow(t models.Task) TaskRow {
	return TaskRow{
		ID:           t.ID,
		Description:  t.Description,
		HasDeadline:  t.HasDeadline,
		DueDate:      formatDueDate(t),
		LeadTimeDays: t.LeadTimeDays,
		UserName:     userName(t),
		PriorityName: priorityName(t),
		StatusName:   statusName(t),
		Tags:         tagList(t),
	}
}

// tagList concatenates the task's tag names alphabetically, comma-separated.
// Untagged tasks yield an empty string, not an omitted row.
func tagList(t models.Task) string {
	if len(t.Tags) == 0 {
		return ""
	}
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func userName(t models.Task) string {
	if t.User == nil {
		return ""
	}
	return t.User.Name
}

func priorityName(t models.Task) string {
	if t.Priority == nil {
		return ""
	}
	return t.Priority.Name
}

func statusName(t models.Task) string {
	if t.Status == nil {
		return ""
	}
	return t.Status.Name
}

func dueDateOf(t models.Task) (time.Time, bool) {
	if t.Deadline == nil {
		return time.Time{}, false
	}
	return dateOnly(time.Time(t.Deadline.DueDate)), true
}

func formatDueDate(t models.Task) string {
	due, ok := dueDateOf(t)
	if !ok {
		return ""
	}
	return due.Format(dateLayout)
}

// sortByDueDate orders tasks by due date ascending, tasks without a deadline
// last, id as a stable tie-break.
func sortByDueDate(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !dueBefore(tasks[i], tasks[j]) && !dueBefore(tasks[j], tasks[i]) {
			return tasks[i].ID < tasks[j].ID
		}
		return dueBefore(tasks[i], tasks[j])
	})
}

func dueBefore(a, b models.Task) bool {
	da, oka := dueDateOf(a)
	db, okb := dueDateOf(b)
	switch {
	case oka && okb:
		return da.Before(db)
	case oka:
		return true
	default:
		return false
	}
}

// dateOnly normalizes a timestamp to its calendar date in UTC so day
// arithmetic is immune to time zones and DST.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func round(x float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(x*factor) / factor
}
