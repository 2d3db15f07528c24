package experiences

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

type ClusterRepo interface {
	// ReplaceAll swaps the whole cluster set. Callers pass a transaction so
	// readers never observe a mix of old and new rows.
	ReplaceAll(dbc dbctx.Context, rows []*types.Cluster) ([]*types.Cluster, error)

	GetAll(dbc dbctx.Context) ([]*types.Cluster, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Cluster, error)
	TopBySize(dbc dbctx.Context, limit int) ([]*types.Cluster, error)
}

type clusterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClusterRepo(db *gorm.DB, baseLog *logger.Logger) ClusterRepo {
	return &clusterRepo{db: db, log: baseLog.With("repo", "ClusterRepo")}
}

func (r *clusterRepo) ReplaceAll(dbc dbctx.Context, rows []*types.Cluster) ([]*types.Cluster, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	t = t.WithContext(dbc.Ctx)
	if err := t.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&types.Cluster{}).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*types.Cluster{}, nil
	}
	if err := t.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *clusterRepo) GetAll(dbc dbctx.Context) ([]*types.Cluster, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Cluster
	if err := t.WithContext(dbc.Ctx).Order("size DESC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clusterRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Cluster, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Cluster
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *clusterRepo) TopBySize(dbc dbctx.Context, limit int) ([]*types.Cluster, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	query := t.WithContext(dbc.Ctx).Order("size DESC").Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []*types.Cluster
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
