package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Experience{},
		&types.Cluster{},
		&types.GroupSummary{},
		&types.UserIdentity{},
	)
}

// EnsureIndexes adds the composite indexes the feed queries lean on.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_experience_created_me_toos", `CREATE INDEX IF NOT EXISTS idx_experience_created_me_toos ON experience(created_at, me_toos);`},
		{"idx_cluster_size_updated", `CREATE INDEX IF NOT EXISTS idx_cluster_size_updated ON cluster(size, updated_at);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
