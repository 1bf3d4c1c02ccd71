package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mkraemer/weekmaster/internal/models"
	"gorm.io/gorm"
)

// autocompleteLimit caps tag autocomplete results.
const autocompleteLimit = 10

// TagService manages the tag vocabulary. Tag names are unique
// case-insensitively; a tag still referenced by tasks cannot be deleted.
type TagService struct {
	db *gorm.DB
}

// NewTagService creates a TagService over db.
func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// TagInfo is a tag with its usage count and display label.
type TagInfo struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	TaskCount int    `json:"task_count"`
	UsageInfo string `json:"usage_info"`
}

// List returns all tags with usage counts, ordered by name.
func (s *TagService) List(ctx context.Context) ([]TagInfo, error) {
	return s.matchTags(ctx, "")
}

// Search returns tags whose name contains the query, case-insensitively.
func (s *TagService) Search(ctx context.Context, query string) ([]TagInfo, error) {
	if strings.TrimSpace(query) == "" {
		return nil, validationErrorf("query parameter q is required")
	}
	return s.matchTags(ctx, query)
}

// Autocomplete returns at most limit (capped at 10) matching tags, the most
// used first, ties broken alphabetically.
func (s *TagService) Autocomplete(ctx context.Context, query string, limit int) ([]TagInfo, error) {
	infos, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].TaskCount != infos[j].TaskCount {
			return infos[i].TaskCount > infos[j].TaskCount
		}
		return infos[i].Name < infos[j].Name
	})
	if limit <= 0 || limit > autocompleteLimit {
		limit = autocompleteLimit
	}
	if len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// Create inserts a new tag, rejecting case-insensitive duplicates.
func (s *TagService) Create(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("tag name is required")
	}
	var tag models.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, name, 0); err != nil {
			return err
		}
		tag = models.Tag{Name: name}
		if err := tx.Create(&tag).Error; err != nil {
			return storageErr("create tag", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// Rename changes a tag's name, with the same duplicate check excluding the
// tag itself.
func (s *TagService) Rename(ctx context.Context, id uint, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("tag name is required")
	}
	var tag models.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "tag", ID: id}
			}
			return storageErr("load tag", err)
		}
		if err := ensureNameFree(tx, name, id); err != nil {
			return err
		}
		tag.Name = name
		if err := tx.Save(&tag).Error; err != nil {
			return storageErr("rename tag", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// Delete removes an unused tag. A tag still attached to tasks is a conflict
// reporting the exact reference count; it is never cascaded away.
func (s *TagService) Delete(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "tag", ID: id}
			}
			return storageErr("load tag", err)
		}
		var refs int64
		if err := tx.Model(&models.TaskTag{}).Where("tag_id = ?", id).Count(&refs).Error; err != nil {
			return storageErr("count tag references", err)
		}
		if refs > 0 {
			return &ConflictError{Message: fmt.Sprintf("tag is still used by %d tasks", refs)}
		}
		if err := tx.Delete(&models.Tag{}, id).Error; err != nil {
			return storageErr("delete tag", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func ensureNameFree(tx *gorm.DB, name string, selfID uint) error {
	var count int64
	query := tx.Model(&models.Tag{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if selfID != 0 {
		query = query.Where("id <> ?", selfID)
	}
	if err := query.Count(&count).Error; err != nil {
		return storageErr("check tag name", err)
	}
	if count > 0 {
		return &ConflictError{Message: fmt.Sprintf("tag %q already exists", name)}
	}
	return nil
}

// matchTags loads tags (optionally filtered by a substring) together with
// their usage counts, ordered by name.
func (s *TagService) matchTags(ctx context.Context, query string) ([]TagInfo, error) {
	db := s.db.WithContext(ctx)

	tags := []models.Tag{}
	q := db.Order("name")
	if query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if err := q.Find(&tags).Error; err != nil {
		return nil, storageErr("list tags", err)
	}

	type usage struct {
		TagID uint
		N     int
	}
	var usages []usage
	err := db.Model(&models.TaskTag{}).
		Select("tag_id, COUNT(*) AS n").
		Group("tag_id").
		Scan(&usages).Error
	if err != nil {
		return nil, storageErr("count tag usage", err)
	}
	counts := make(map[uint]int, len(usages))
	for _, u := range usages {
		counts[u.TagID] = u.N
	}

	infos := make([]TagInfo, 0, len(tags))
	for _, tag := range tags {
		n := counts[tag.ID]
		infos = append(infos, TagInfo{
			ID:        tag.ID,
			Name:      tag.Name,
			TaskCount: n,
			UsageInfo: usageInfo(n),
		})
	}
	return infos, nil
}

// usageInfo renders the usage count the way the tag overview displays it.
func usageInfo(n int) string {
	switch n {
	case 0:
		return "Nicht verwendet"
	case 1:
		return "1 Aufgabe"
	default:
		return fmt.Sprintf("%d Aufgaben", n)
	}
}
