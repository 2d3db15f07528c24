package identity

import (
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

type UserIdentityRepo interface {
	// Touch records a sighting of the (ip hash, fingerprint hash) pair,
	// creating the row on first sight and bumping last_seen afterwards.
	Touch(dbc dbctx.Context, ipHash, fingerprintHash, userAgent string) error
	GetByPair(dbc dbctx.Context, ipHash, fingerprintHash string) (*types.UserIdentity, error)
}

type userIdentityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserIdentityRepo(db *gorm.DB, baseLog *logger.Logger) UserIdentityRepo {
	return &userIdentityRepo{
		db:  db,
		log: baseLog.With("repo", "UserIdentityRepo"),
	}
}

func (r *userIdentityRepo) Touch(dbc dbctx.Context, ipHash, fingerprintHash, userAgent string) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	ipHash = strings.TrimSpace(ipHash)
	fingerprintHash = strings.TrimSpace(fingerprintHash)
	if ipHash == "" && fingerprintHash == "" {
		return nil
	}
	now := time.Now().UTC()
	update := func() (int64, error) {
		res := txx.WithContext(dbc.Ctx).
			Model(&types.UserIdentity{}).
			Where("ip_hash = ? AND fingerprint_hash = ?", ipHash, fingerprintHash).
			Updates(map[string]interface{}{"user_agent": userAgent, "last_seen": now})
		return res.RowsAffected, res.Error
	}

	n, err := update()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	row := &types.UserIdentity{
		IPHash:          ipHash,
		FingerprintHash: fingerprintHash,
		UserAgent:       userAgent,
		CreatedAt:       now,
		LastSeen:        now,
	}
	err = txx.WithContext(dbc.Ctx).Create(row).Error
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return err
	}
	// Lost the insert race to a concurrent request for the same pair.
	_, err = update()
	return err
}

func (r *userIdentityRepo) GetByPair(dbc dbctx.Context, ipHash, fingerprintHash string) (*types.UserIdentity, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.UserIdentity
	if err := txx.WithContext(dbc.Ctx).
		Where("ip_hash = ? AND fingerprint_hash = ?", ipHash, fingerprintHash).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
