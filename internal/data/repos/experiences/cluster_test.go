package experiences

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos/testutil"
	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
)

func newCluster(label string, size int) *types.Cluster {
	c := &types.Cluster{Label: label, Size: size}
	c.SetCentroid([]float32{1, 0})
	c.SetSamples([]uuid.UUID{uuid.New()})
	return c
}

func TestClusterRepoReplaceAll(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewClusterRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	if _, err := repo.ReplaceAll(dbc, []*types.Cluster{newCluster("first", 2), newCluster("second", 7)}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	top, err := repo.TopBySize(dbc, 1)
	if err != nil || len(top) != 1 || top[0].Label != "second" {
		t.Fatalf("TopBySize: err=%v got=%v", err, top)
	}
	byID, err := repo.GetByID(dbc, top[0].ID)
	if err != nil || byID == nil || len(byID.CentroidVector()) != 2 {
		t.Fatalf("GetByID: err=%v got=%v", err, byID)
	}

	if _, err := repo.ReplaceAll(dbc, []*types.Cluster{newCluster("third", 3)}); err != nil {
		t.Fatalf("ReplaceAll again: %v", err)
	}
	all, err := repo.GetAll(dbc)
	if err != nil || len(all) != 1 || all[0].Label != "third" {
		t.Fatalf("GetAll after replace: err=%v got=%v", err, all)
	}
}

func TestClusterRepoReplaceAllRollsBack(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewClusterRepo(db, testutil.Logger(t))

	if _, err := repo.ReplaceAll(dbctx.Context{Ctx: ctx}, []*types.Cluster{newCluster("kept", 4)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("boom")
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.ReplaceAll(dbctx.Context{Ctx: ctx, Tx: tx}, []*types.Cluster{newCluster("lost", 9)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("transaction: want=%v got=%v", boom, err)
	}

	all, err := repo.GetAll(dbctx.Context{Ctx: ctx})
	if err != nil || len(all) != 1 || all[0].Label != "kept" {
		t.Fatalf("prior set should survive: err=%v got=%v", err, all)
	}
}
