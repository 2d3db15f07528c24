package db

import (
	"testing"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	svc, err := Open(logger.Nop(), Config{Driver: DriverSQLite, SQLitePath: "file:migrate_test?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if svc.Driver() != DriverSQLite {
		t.Fatalf("driver: want=%s got=%s", DriverSQLite, svc.Driver())
	}
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	if err := EnsureIndexes(svc.DB()); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	for _, table := range []string{"experience", "cluster", "group_summary", "user_identity"} {
		if !svc.DB().Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(logger.Nop(), Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestPostgresDSNDefaultsSSLMode(t *testing.T) {
	cfg := Config{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n"}
	want := "postgres://u:p@h:5432/n?sslmode=disable"
	if got := cfg.postgresDSN(); got != want {
		t.Fatalf("dsn: want=%s got=%s", want, got)
	}
}
