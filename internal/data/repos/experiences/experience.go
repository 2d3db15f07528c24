package experiences

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

// RecentQuery selects posts newest first.
type RecentQuery struct {
	// Since bounds created_at from below when non-zero.
	Since time.Time
	// Limit caps the result; 0 means no cap.
	Limit            int
	RequireEmbedding bool
	ExcludeID        uuid.UUID
	// Theme keeps only posts whose themes contain this keyword.
	Theme string
}

type ExperienceRepo interface {
	Create(dbc dbctx.Context, rows []*types.Experience) ([]*types.Experience, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Experience, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Experience, error)

	FindRecent(dbc dbctx.Context, q RecentQuery) ([]*types.Experience, error)
	// TopByMeToos orders by me-too count then recency.
	TopByMeToos(dbc dbctx.Context, theme string, limit int) ([]*types.Experience, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type experienceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExperienceRepo(db *gorm.DB, baseLog *logger.Logger) ExperienceRepo {
	return &experienceRepo{db: db, log: baseLog.With("repo", "ExperienceRepo")}
}

func (r *experienceRepo) Create(dbc dbctx.Context, rows []*types.Experience) ([]*types.Experience, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Experience{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *experienceRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Experience, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Experience
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByIDs returns rows in the order of ids; unknown ids are skipped.
func (r *experienceRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Experience, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Experience{}
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*types.Experience
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Experience, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *experienceRepo) FindRecent(dbc dbctx.Context, q RecentQuery) ([]*types.Experience, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	query := t.WithContext(dbc.Ctx).Model(&types.Experience{})
	if !q.Since.IsZero() {
		query = query.Where("created_at >= ?", q.Since)
	}
	if q.RequireEmbedding {
		query = query.Where("embedding IS NOT NULL")
	}
	if q.ExcludeID != uuid.Nil {
		query = query.Where("id <> ?", q.ExcludeID)
	}
	query = withTheme(query, q.Theme)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	var out []*types.Experience
	if err := query.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *experienceRepo) TopByMeToos(dbc dbctx.Context, theme string, limit int) ([]*types.Experience, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	query := withTheme(t.WithContext(dbc.Ctx).Model(&types.Experience{}), theme)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []*types.Experience
	if err := query.Order("me_toos DESC").Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *experienceRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Model(&types.Experience{}).Where("id = ?", id).Updates(updates).Error
}

// NormalizeTheme is the form themes are stored in: lowercased and trimmed.
func NormalizeTheme(theme string) string {
	return strings.ToLower(strings.TrimSpace(theme))
}

// withTheme keeps rows whose themes array holds the keyword as an element.
func withTheme(q *gorm.DB, theme string) *gorm.DB {
	theme = NormalizeTheme(theme)
	if theme == "" {
		return q
	}
	if q.Dialector.Name() == "postgres" {
		elem, _ := json.Marshal([]string{theme})
		return q.Where("themes @> ?::jsonb", string(elem))
	}
	return q.Where("EXISTS (SELECT 1 FROM json_each(experience.themes) WHERE json_each.value = ?)", theme)
}
