package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserIdentity records an anonymous (ip hash, fingerprint hash) pair.
type UserIdentity struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IPHash          string    `gorm:"column:ip_hash;not null;default:'';uniqueIndex:idx_user_identity_pair,priority:1" json:"-"`
	FingerprintHash string    `gorm:"column:fingerprint_hash;not null;default:'';uniqueIndex:idx_user_identity_pair,priority:2" json:"-"`
	UserAgent       string    `gorm:"column:user_agent;not null;default:''" json:"userAgent"`
	CreatedAt       time.Time `gorm:"not null" json:"createdAt"`
	LastSeen        time.Time `gorm:"column:last_seen;not null;index" json:"lastSeen"`
}

func (UserIdentity) TableName() string { return "user_identity" }

func (u *UserIdentity) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
