package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/sharedexperiences-backend/internal/data/db"
	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB returns an isolated database for one test. With TEST_POSTGRES_DSN set it
// is a postgres transaction rolled back on cleanup; otherwise a fresh
// in-memory sqlite database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN")); dsn != "" {
		return postgresTx(tb, dsn)
	}
	name := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	svc, err := db.Open(Logger(tb), db.Config{Driver: db.DriverSQLite, SQLitePath: name})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })
	gdb := svc.DB().Session(&gorm.Session{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return gdb
}

func postgresTx(tb testing.TB, dsn string) *gorm.DB {
	tb.Helper()
	pgOnce.Do(func() {
		pgDB, pgErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if pgErr != nil {
			return
		}
		pgErr = db.AutoMigrateAll(pgDB)
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	tx := pgDB.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	// Wipe rows committed by earlier runs; the rollback restores them.
	for _, table := range []string{"experience", "cluster", "group_summary", "user_identity"} {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			tb.Fatalf("clear %s: %v", table, err)
		}
	}
	return tx
}

// SeedExperience inserts a post created at the given time.
func SeedExperience(tb testing.TB, ctx context.Context, tx *gorm.DB, text string, themes []string, vec []float32, createdAt time.Time) *types.Experience {
	tb.Helper()
	e := &types.Experience{
		ID:        uuid.New(),
		Text:      text,
		Sentiment: types.SentimentNeutral,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	e.SetThemes(themes)
	e.SetVector(vec)
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed experience: %v", err)
	}
	return e
}
