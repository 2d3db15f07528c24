package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Experience is one anonymous post.
type Experience struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Text      string         `gorm:"column:text;type:text;not null" json:"text"`
	Themes    datatypes.JSON `gorm:"column:themes;type:jsonb" json:"-"`
	Sentiment string         `gorm:"column:sentiment;not null;default:neutral" json:"sentiment"`
	Summary   string         `gorm:"column:summary;type:text" json:"summary"`
	MeToos    int            `gorm:"column:me_toos;not null;default:0;index" json:"meToos"`

	// Embedding is NULL when the text service could not embed the post.
	Embedding    datatypes.JSON `gorm:"column:embedding;type:jsonb" json:"-"`
	ClusterLabel string         `gorm:"column:cluster_label;index" json:"clusterLabel,omitempty"`

	SessionID       string `gorm:"column:session_id;index" json:"-"`
	IPHash          string `gorm:"column:ip_hash;index" json:"-"`
	FingerprintHash string `gorm:"column:fingerprint_hash;index" json:"-"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Experience) TableName() string { return "experience" }

func (e *Experience) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Experience) ThemeList() []string { return stringsFromJSON(e.Themes) }

func (e *Experience) SetThemes(themes []string) {
	if themes == nil {
		themes = []string{}
	}
	e.Themes = toJSON(themes)
}

func (e *Experience) Vector() []float32 { return floatsFromJSON(e.Embedding) }

// SetVector stores v, or clears the column for an empty vector.
func (e *Experience) SetVector(v []float32) {
	if len(v) == 0 {
		e.Embedding = nil
		return
	}
	e.Embedding = toJSON(v)
}

func (e *Experience) HasEmbedding() bool { return len(e.Vector()) > 0 }
