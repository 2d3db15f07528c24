package experiences

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

type GroupSummaryRepo interface {
	GetBySignature(dbc dbctx.Context, sig string) (*types.GroupSummary, error)
	// Upsert writes summary, count and updated_at keyed by signature.
	Upsert(dbc dbctx.Context, row *types.GroupSummary) error
}

type groupSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupSummaryRepo(db *gorm.DB, baseLog *logger.Logger) GroupSummaryRepo {
	return &groupSummaryRepo{db: db, log: baseLog.With("repo", "GroupSummaryRepo")}
}

func (r *groupSummaryRepo) GetBySignature(dbc dbctx.Context, sig string) (*types.GroupSummary, error) {
	sig = strings.TrimSpace(sig)
	if sig == "" {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.GroupSummary
	err := t.WithContext(dbc.Ctx).Where("sig = ?", sig).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *groupSummaryRepo) Upsert(dbc dbctx.Context, row *types.GroupSummary) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || strings.TrimSpace(row.Signature) == "" {
		return nil
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sig"}},
		DoUpdates: clause.AssignmentColumns([]string{"summary", "count", "updated_at"}),
	}).Create(row).Error
}
