package experiences

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos/testutil"
	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
)

func TestExperienceRepoFindRecent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewExperienceRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	now := time.Now().UTC()
	old := testutil.SeedExperience(t, ctx, db, "an old hiking trip", []string{"hiking"}, []float32{1, 0}, now.Add(-48*time.Hour))
	mid := testutil.SeedExperience(t, ctx, db, "cooking dinner alone", []string{"cooking", "alone"}, nil, now.Add(-2*time.Hour))
	fresh := testutil.SeedExperience(t, ctx, db, "hiking with friends", []string{"hiking", "friends"}, []float32{0, 1}, now.Add(-time.Minute))

	rows, err := repo.FindRecent(dbc, RecentQuery{})
	if err != nil {
		t.Fatalf("FindRecent: %v", err)
	}
	if len(rows) != 3 || rows[0].ID != fresh.ID || rows[2].ID != old.ID {
		t.Fatalf("FindRecent order: got=%v", ids(rows))
	}

	rows, err = repo.FindRecent(dbc, RecentQuery{Since: now.Add(-24 * time.Hour)})
	if err != nil || len(rows) != 2 {
		t.Fatalf("FindRecent since: err=%v len=%d", err, len(rows))
	}

	rows, err = repo.FindRecent(dbc, RecentQuery{RequireEmbedding: true, ExcludeID: fresh.ID})
	if err != nil || len(rows) != 1 || rows[0].ID != old.ID {
		t.Fatalf("FindRecent embedded excluding fresh: err=%v got=%v", err, ids(rows))
	}

	rows, err = repo.FindRecent(dbc, RecentQuery{Theme: "  Hiking "})
	if err != nil || len(rows) != 2 {
		t.Fatalf("FindRecent theme: err=%v got=%v", err, ids(rows))
	}

	rows, err = repo.FindRecent(dbc, RecentQuery{Limit: 1})
	if err != nil || len(rows) != 1 || rows[0].ID != fresh.ID {
		t.Fatalf("FindRecent limit: err=%v got=%v", err, ids(rows))
	}

	got, err := repo.GetByID(dbc, mid.ID)
	if err != nil || got == nil || got.Text != mid.Text {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID missing: err=%v got=%v", err, missing)
	}

	ordered, err := repo.GetByIDs(dbc, []uuid.UUID{old.ID, uuid.New(), fresh.ID})
	if err != nil || len(ordered) != 2 || ordered[0].ID != old.ID || ordered[1].ID != fresh.ID {
		t.Fatalf("GetByIDs order: err=%v got=%v", err, ids(ordered))
	}
}

func TestExperienceRepoTopByMeToos(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewExperienceRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	now := time.Now().UTC()
	a := testutil.SeedExperience(t, ctx, db, "a", []string{"work"}, nil, now.Add(-3*time.Hour))
	b := testutil.SeedExperience(t, ctx, db, "b", []string{"work"}, nil, now.Add(-2*time.Hour))
	c := testutil.SeedExperience(t, ctx, db, "c", []string{"sleep"}, nil, now.Add(-1*time.Hour))

	if err := repo.UpdateFields(dbc, a.ID, map[string]interface{}{"me_toos": 5}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	rows, err := repo.TopByMeToos(dbc, "", 10)
	if err != nil {
		t.Fatalf("TopByMeToos: %v", err)
	}
	want := []uuid.UUID{a.ID, c.ID, b.ID}
	for i := range want {
		if rows[i].ID != want[i] {
			t.Fatalf("TopByMeToos[%d]: want=%s got=%s", i, want[i], rows[i].ID)
		}
	}

	rows, err = repo.TopByMeToos(dbc, "work", 10)
	if err != nil || len(rows) != 2 {
		t.Fatalf("TopByMeToos theme: err=%v got=%v", err, ids(rows))
	}
}

func TestExperienceRepoThemeMatchesWholeElement(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewExperienceRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	now := time.Now().UTC()
	selfCare := testutil.SeedExperience(t, ctx, db, "a slow self-care sunday", []string{"self-care"}, nil, now.Add(-3*time.Minute))
	cafe := testutil.SeedExperience(t, ctx, db, "reading in a café", []string{"café", "reading"}, nil, now.Add(-2*time.Minute))
	testutil.SeedExperience(t, ctx, db, "another long day at work", []string{"work"}, nil, now.Add(-time.Minute))
	testutil.SeedExperience(t, ctx, db, "100% done_with it", []string{"100%_done"}, nil, now)

	cases := []struct {
		theme string
		want  []uuid.UUID
	}{
		{"self-care", []uuid.UUID{selfCare.ID}},
		{" Self-Care ", []uuid.UUID{selfCare.ID}},
		{"café", []uuid.UUID{cafe.ID}},
		{"CAFÉ", []uuid.UUID{cafe.ID}},
		{"caf", nil},
		{"self", nil},
		{"%", nil},
		{"_ork", nil},
	}
	for _, tc := range cases {
		rows, err := repo.FindRecent(dbc, RecentQuery{Theme: tc.theme})
		if err != nil {
			t.Fatalf("FindRecent(%q): %v", tc.theme, err)
		}
		if len(rows) != len(tc.want) {
			t.Fatalf("FindRecent(%q): want=%v got=%v", tc.theme, tc.want, ids(rows))
		}
		for i := range rows {
			if rows[i].ID != tc.want[i] {
				t.Fatalf("FindRecent(%q): want=%v got=%v", tc.theme, tc.want, ids(rows))
			}
		}
	}

	rows, err := repo.TopByMeToos(dbc, "café", 10)
	if err != nil || len(rows) != 1 || rows[0].ID != cafe.ID {
		t.Fatalf("TopByMeToos café: err=%v got=%v", err, ids(rows))
	}
}

func TestNormalizeTheme(t *testing.T) {
	if got := NormalizeTheme(" Self-Care "); got != "self-care" {
		t.Fatalf("NormalizeTheme: want=self-care got=%q", got)
	}
	if got := NormalizeTheme("CAFÉ"); got != "café" {
		t.Fatalf("NormalizeTheme: want=café got=%q", got)
	}
}

func ids(rows []*types.Experience) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
