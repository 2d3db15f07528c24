package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/similarity"
	"github.com/yungbote/sharedexperiences-backend/internal/observability"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/openai"
)

// Categorization is the text service's view of a single post.
type Categorization struct {
	Themes    []string `json:"themes"`
	Sentiment string   `json:"sentiment"`
	Summary   string   `json:"summary"`
}

// TextService wraps the external language model. Categorize and Embed report
// absence with false and never fail the caller. SummarizeGroup and
// LabelCluster fall back to keyword text and only return an error when ctx
// is done.
type TextService interface {
	Categorize(ctx context.Context, text string) (*Categorization, bool)
	Embed(ctx context.Context, text string) ([]float32, bool)
	SummarizeGroup(ctx context.Context, texts []string) (string, error)
	LabelCluster(ctx context.Context, texts []string) (string, error)
	Provider() string
}

const (
	maxCategoryThemes  = 5
	summaryGroupTexts  = 6
	summaryMaxRunes    = 160
	labelExampleTexts  = 5
	labelMaxRunes      = 80
	fallbackNoKeywords = "Similar experiences from users."
)

const (
	categorizeSystem = `You categorize short anonymous posts. Reply with strict JSON: {"themes":["..."],"sentiment":"positive|neutral|negative","summary":"..."}. Keep 3-5 themes as short keywords.`
	summarizeSystem  = `You summarize what multiple short anonymous posts have in common. Respond with ONE concise sentence (max 18 words). Keep wording stable and neutral; avoid rephrasing if similar.`
	labelSystem      = `You are labeling a group of short anonymous posts. Produce a concise 3-6 word label capturing the shared context. Respond with plain text only.`
)

type textService struct {
	log      *logger.Logger
	llm      openai.Client
	provider string
}

// NewTextService builds a service over llm. A nil llm yields the local,
// model-free service.
func NewTextService(log *logger.Logger, llm openai.Client, provider string) (TextService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	provider = strings.TrimSpace(provider)
	if llm == nil {
		provider = "local"
	}
	return &textService{
		log:      log.With("service", "TextService", "provider", provider),
		llm:      llm,
		provider: provider,
	}, nil
}

func NewLocalTextService(log *logger.Logger) TextService {
	svc, _ := NewTextService(log, nil, "local")
	return svc
}

func (s *textService) Provider() string { return s.provider }

func (s *textService) observe(op string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.Current().ObserveTextService(s.provider, op, status, time.Since(started))
}

func (s *textService) Categorize(ctx context.Context, text string) (*Categorization, bool) {
	if s.llm == nil || strings.TrimSpace(text) == "" {
		return nil, false
	}
	started := time.Now()
	obj, err := s.llm.GenerateJSON(ctx, categorizeSystem, "Post: "+text, openai.GenOptions{Temperature: 0.2, MaxTokens: 200})
	s.observe("categorize", started, err)
	if err != nil {
		s.log.Warn("categorize failed, using local heuristics", "error", err)
		return nil, false
	}
	cat, ok := parseCategorization(obj)
	if !ok {
		s.log.Warn("categorize returned malformed payload, using local heuristics")
	}
	return cat, ok
}

func parseCategorization(obj map[string]any) (*Categorization, bool) {
	rawThemes, ok := obj["themes"].([]any)
	if !ok {
		return nil, false
	}
	sentiment, _ := obj["sentiment"].(string)
	summary, _ := obj["summary"].(string)
	if strings.TrimSpace(sentiment) == "" || strings.TrimSpace(summary) == "" {
		return nil, false
	}
	themes := make([]string, 0, maxCategoryThemes)
	for _, t := range rawThemes {
		s := strings.ToLower(strings.TrimSpace(fmt.Sprint(t)))
		if t == nil || s == "" {
			continue
		}
		themes = append(themes, s)
		if len(themes) == maxCategoryThemes {
			break
		}
	}
	return &Categorization{
		Themes:    themes,
		Sentiment: types.NormalizeSentiment(strings.ToLower(strings.TrimSpace(sentiment))),
		Summary:   strings.TrimSpace(summary),
	}, true
}

func (s *textService) Embed(ctx context.Context, text string) ([]float32, bool) {
	if s.llm == nil || strings.TrimSpace(text) == "" {
		return nil, false
	}
	started := time.Now()
	vecs, err := s.llm.Embed(ctx, []string{text})
	s.observe("embed", started, err)
	if err != nil {
		s.log.Warn("embed failed, continuing without embedding", "error", err)
		return nil, false
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, false
	}
	return vecs[0], true
}

func numbered(texts []string, n int) string {
	var b strings.Builder
	for i, t := range texts {
		if i >= n {
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, t)
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// KeywordSummary is the model-free group summary.
func KeywordSummary(texts []string) string {
	kws := similarity.TopKeywords(texts, 4)
	if len(kws) == 0 {
		return fallbackNoKeywords
	}
	return "Experiences about " + strings.Join(kws, ", ") + "."
}

func (s *textService) SummarizeGroup(ctx context.Context, texts []string) (string, error) {
	if len(texts) == 0 {
		return "", nil
	}
	if s.llm == nil {
		return KeywordSummary(texts), nil
	}
	started := time.Now()
	out, err := s.llm.GenerateText(ctx, summarizeSystem, numbered(texts, summaryGroupTexts), openai.GenOptions{Temperature: 0, MaxTokens: 40})
	s.observe("summarize", started, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		s.log.Warn("group summary failed, using keywords", "error", err)
		return KeywordSummary(texts), nil
	}
	out = truncateRunes(strings.TrimSpace(out), summaryMaxRunes)
	if out == "" {
		return KeywordSummary(texts), nil
	}
	return out, nil
}

func (s *textService) LabelCluster(ctx context.Context, texts []string) (string, error) {
	if len(texts) == 0 {
		return "", nil
	}
	if len(texts) > labelExampleTexts {
		texts = texts[:labelExampleTexts]
	}
	if s.llm == nil {
		return similarity.KeywordLabel(texts, 3), nil
	}
	started := time.Now()
	out, err := s.llm.GenerateText(ctx, labelSystem, numbered(texts, labelExampleTexts), openai.GenOptions{Temperature: 0, MaxTokens: 24})
	s.observe("label", started, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		s.log.Warn("cluster label failed, using keywords", "error", err)
		return similarity.KeywordLabel(texts, 3), nil
	}
	out = truncateRunes(strings.TrimSpace(out), labelMaxRunes)
	if out == "" {
		return similarity.KeywordLabel(texts, 3), nil
	}
	return out, nil
}

// LocalCategorize derives themes, sentiment and summary without a model.
func LocalCategorize(text string) Categorization {
	return Categorization{
		Themes:    similarity.ExtractThemes(text),
		Sentiment: similarity.Sentiment(text),
		Summary:   similarity.Summarize(text),
	}
}

// Merge overlays the fields a model returned on top of local values.
func (c Categorization) Merge(model *Categorization) Categorization {
	if model == nil {
		return c
	}
	out := c
	if len(model.Themes) > 0 {
		out.Themes = model.Themes
	}
	if model.Sentiment != "" {
		out.Sentiment = model.Sentiment
	}
	if model.Summary != "" {
		out.Summary = model.Summary
	}
	return out
}
