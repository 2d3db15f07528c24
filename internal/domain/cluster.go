package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Cluster is one topic cluster from the latest recluster run. The whole set is
// replaced per run.
type Cluster struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Label     string         `gorm:"column:label;not null;default:''" json:"label"`
	Centroid  datatypes.JSON `gorm:"column:centroid;type:jsonb" json:"-"`
	Size      int            `gorm:"column:size;not null;default:0;index" json:"size"`
	SampleIDs datatypes.JSON `gorm:"column:sample_ids;type:jsonb" json:"-"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
}

func (Cluster) TableName() string { return "cluster" }

func (c *Cluster) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Cluster) CentroidVector() []float32 { return floatsFromJSON(c.Centroid) }

func (c *Cluster) SetCentroid(v []float32) { c.Centroid = toJSON(v) }

func (c *Cluster) Samples() []uuid.UUID {
	raw := stringsFromJSON(c.SampleIDs)
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func (c *Cluster) SetSamples(ids []uuid.UUID) {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}
	c.SampleIDs = toJSON(raw)
}
