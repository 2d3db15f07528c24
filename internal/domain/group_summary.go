package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroupSummary caches the generated summary for one bucket membership.
// It is stale once Count differs from the live group size.
type GroupSummary struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Signature string    `gorm:"column:sig;not null;uniqueIndex" json:"sig"`
	Summary   string    `gorm:"column:summary;type:text;not null;default:''" json:"summary"`
	Count     int       `gorm:"column:count;not null;default:0" json:"count"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (GroupSummary) TableName() string { return "group_summary" }

func (g *GroupSummary) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
