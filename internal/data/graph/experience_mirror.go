package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/neo4jdb"
)

// SimilarEdge is one weighted SIMILAR relation from a source post.
type SimilarEdge struct {
	TargetID uuid.UUID
	Weight   float64
}

// ExperienceMirror keeps an optional graph copy of posts, their themes and
// strong similarity links. Callers treat every error as non-fatal.
type ExperienceMirror interface {
	UpsertPost(ctx context.Context, e *types.Experience) error
	UpsertSimilarity(ctx context.Context, sourceID uuid.UUID, edges []SimilarEdge) error
	// SimilarTo returns neighbor ids ordered by edge weight, strongest first.
	SimilarTo(ctx context.Context, id uuid.UUID, limit int) ([]uuid.UUID, error)
	Enabled() bool
}

// NewExperienceMirror returns a no-op mirror when client is nil.
func NewExperienceMirror(client *neo4jdb.Client, baseLog *logger.Logger) ExperienceMirror {
	if client == nil || client.Driver == nil {
		return NoopMirror{}
	}
	return &neo4jMirror{client: client, log: baseLog.With("service", "ExperienceMirror")}
}

type neo4jMirror struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func (m *neo4jMirror) Enabled() bool { return true }

func (m *neo4jMirror) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return m.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: m.client.Database,
	})
}

// EnsureSchema creates the uniqueness constraints. Failures are logged only.
func (m *neo4jMirror) EnsureSchema(ctx context.Context) {
	session := m.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	stmts := []string{
		`CREATE CONSTRAINT post_id_unique IF NOT EXISTS FOR (p:Post) REQUIRE p.id IS UNIQUE`,
		`CREATE CONSTRAINT theme_name_unique IF NOT EXISTS FOR (t:Theme) REQUIRE t.name IS UNIQUE`,
	}
	for _, q := range stmts {
		if res, err := session.Run(ctx, q, nil); err != nil {
			m.log.Warn("neo4j schema init failed (continuing)", "error", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}
}

func postNode(e *types.Experience, now string) map[string]any {
	return map[string]any{
		"id":         e.ID.String(),
		"created_at": e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"me_toos":    int64(e.MeToos),
		"sentiment":  e.Sentiment,
		"synced_at":  now,
	}
}

func themeNames(e *types.Experience) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, t := range e.ThemeList() {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func similarRels(sourceID uuid.UUID, edges []SimilarEdge, now string) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.TargetID == uuid.Nil || e.TargetID == sourceID {
			continue
		}
		out = append(out, map[string]any{
			"a":         sourceID.String(),
			"b":         e.TargetID.String(),
			"weight":    e.Weight,
			"synced_at": now,
		})
	}
	return out
}

func (m *neo4jMirror) UpsertPost(ctx context.Context, e *types.Experience) error {
	if e == nil || e.ID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	node := postNode(e, now)
	themes := themeNames(e)

	session := m.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if res, err := tx.Run(ctx, `
MERGE (p:Post {id: $post.id})
SET p += $post
`, map[string]any{"post": node}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(themes) > 0 {
			res, err := tx.Run(ctx, `
MATCH (p:Post {id: $id})
UNWIND $themes AS name
MERGE (t:Theme {name: name})
MERGE (p)-[e:HAS_THEME]->(t)
SET e.synced_at = $synced_at
`, map[string]any{"id": e.ID.String(), "themes": themes, "synced_at": now})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j upsert post %s: %w", e.ID, err)
	}
	return nil
}

func (m *neo4jMirror) UpsertSimilarity(ctx context.Context, sourceID uuid.UUID, edges []SimilarEdge) error {
	if sourceID == uuid.Nil || len(edges) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	rels := similarRels(sourceID, edges, time.Now().UTC().Format(time.RFC3339Nano))
	if len(rels) == 0 {
		return nil
	}

	session := m.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:Post {id: r.a})
MATCH (b:Post {id: r.b})
MERGE (a)-[s:SIMILAR]-(b)
SET s.weight = r.weight, s.synced_at = r.synced_at
`, map[string]any{"rels": rels})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4j upsert similarity %s: %w", sourceID, err)
	}
	return nil
}

func (m *neo4jMirror) SimilarTo(ctx context.Context, id uuid.UUID, limit int) ([]uuid.UUID, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := m.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	raw, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Post {id: $id})-[r:SIMILAR]-(b:Post)
RETURN b.id AS id, r.weight AS w
ORDER BY w DESC
LIMIT $limit
`, map[string]any{"id": id.String(), "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(records))
		for _, rec := range records {
			v, ok := rec.Get("id")
			if !ok {
				continue
			}
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j similar to %s: %w", id, err)
	}
	return parseIDs(raw.([]string)), nil
}

func parseIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// NoopMirror is used when the graph store is disabled.
type NoopMirror struct{}

func (NoopMirror) Enabled() bool                                                    { return false }
func (NoopMirror) UpsertPost(context.Context, *types.Experience) error              { return nil }
func (NoopMirror) UpsertSimilarity(context.Context, uuid.UUID, []SimilarEdge) error { return nil }
func (NoopMirror) SimilarTo(context.Context, uuid.UUID, int) ([]uuid.UUID, error) {
	return []uuid.UUID{}, nil
}
