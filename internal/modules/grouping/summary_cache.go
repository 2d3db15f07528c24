package grouping

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos"
	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/similarity"
	"github.com/yungbote/sharedexperiences-backend/internal/observability"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
	"github.com/yungbote/sharedexperiences-backend/internal/services"
)

const summaryInputTexts = 6

// Signature identifies a group by membership: sorted ids joined with "|",
// SHA-1 hex encoded. Input order does not matter.
func Signature(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func memberIDs(g similarity.Group) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// SummaryCache is a read-through cache of generated group summaries. Rows
// are never evicted; a row is regenerated once its count no longer matches
// the group size.
type SummaryCache struct {
	log  *logger.Logger
	repo repos.GroupSummaryRepo
	text services.TextService
	now  func() time.Time
}

func NewSummaryCache(log *logger.Logger, repo repos.GroupSummaryRepo, text services.TextService) *SummaryCache {
	return &SummaryCache{
		log:  log.With("service", "SummaryCache"),
		repo: repo,
		text: text,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Summarize returns the cached summary for g, generating and storing a new
// one on a miss or when the cached count is stale. A cancelled ctx returns
// its error and writes nothing.
func (c *SummaryCache) Summarize(ctx context.Context, g similarity.Group) (string, error) {
	sig := Signature(memberIDs(g))
	cached, err := c.repo.GetBySignature(dbctx.New(ctx), sig)
	if err != nil {
		return "", fmt.Errorf("load group summary: %w", err)
	}
	if cached != nil && cached.Count == g.Size() {
		observability.Current().IncSummaryCache("hit")
		return cached.Summary, nil
	}
	if cached != nil {
		observability.Current().IncSummaryCache("stale")
	} else {
		observability.Current().IncSummaryCache("miss")
	}

	summary, err := c.text.SummarizeGroup(ctx, g.Texts(summaryInputTexts))
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	row := &types.GroupSummary{Signature: sig, Summary: summary, Count: g.Size(), UpdatedAt: c.now()}
	if err := c.repo.Upsert(dbctx.New(ctx), row); err != nil {
		return "", fmt.Errorf("store group summary: %w", err)
	}
	c.log.Debug("group summary generated", "sig", sig, "count", g.Size())
	return summary, nil
}
