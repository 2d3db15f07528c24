package identity

import (
	"context"
	"testing"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos/testutil"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
)

func TestUserIdentityRepoTouch(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewUserIdentityRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	if err := repo.Touch(dbc, "", "", "ua"); err != nil {
		t.Fatalf("Touch empty: %v", err)
	}
	if got, _ := repo.GetByPair(dbc, "", ""); got != nil {
		t.Fatalf("empty pair should not be stored")
	}

	if err := repo.Touch(dbc, "ip1", "fp1", "ua-1"); err != nil {
		t.Fatalf("Touch create: %v", err)
	}
	first, err := repo.GetByPair(dbc, "ip1", "fp1")
	if err != nil || first == nil {
		t.Fatalf("GetByPair: err=%v got=%v", err, first)
	}

	if err := repo.Touch(dbc, "ip1", "fp1", "ua-2"); err != nil {
		t.Fatalf("Touch update: %v", err)
	}
	second, err := repo.GetByPair(dbc, "ip1", "fp1")
	if err != nil || second == nil {
		t.Fatalf("GetByPair after update: err=%v got=%v", err, second)
	}
	if second.ID != first.ID || second.UserAgent != "ua-2" {
		t.Fatalf("Touch should update in place: first=%+v second=%+v", first, second)
	}
	if second.LastSeen.Before(first.LastSeen) {
		t.Fatalf("last_seen moved backwards")
	}
}
