package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/openai"
)

type Config struct {
	APIKey     string
	Model      string
	EmbedModel string
	Timeout    time.Duration
	// RequestsPerSecond throttles outbound calls; 0 disables the limiter.
	RequestsPerSecond float64
}

// Client adapts the Gemini API to the openai.Client shape so the text
// service can use either provider.
type Client struct {
	log        *logger.Logger
	genai      *genai.Client
	model      string
	embedModel string
	timeout    time.Duration
	limiter    *rate.Limiter
}

var _ openai.Client = (*Client)(nil)

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("gemini: logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing api key")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Client{
		log:        log.With("client", "GeminiClient", "model", model),
		genai:      gc,
		model:      model,
		embedModel: strings.TrimSpace(cfg.EmbedModel),
		timeout:    timeout,
		limiter:    limiter,
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return ctx.Err()
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	if c.embedModel == "" {
		return nil, fmt.Errorf("gemini: no embedding model configured")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(inputs))
	for _, in := range inputs {
		s := strings.TrimSpace(in)
		if s == "" {
			s = " "
		}
		contents = append(contents, genai.NewContentFromText(s, genai.RoleUser))
	}
	resp, err := c.genai.Models.EmbedContent(ctx, c.embedModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}
	if resp == nil || len(resp.Embeddings) != len(inputs) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini embeddings: requested=%d returned=%d", len(inputs), got)
	}
	out := make([][]float32, len(inputs))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("gemini embeddings missing index %d", i)
		}
		out[i] = e.Values
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, system, user string, opts openai.GenOptions, jsonMode bool) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if jsonMode {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}
	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			result.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(result.String()), nil
}

func (c *Client) GenerateText(ctx context.Context, system, user string, opts openai.GenOptions) (string, error) {
	return c.generate(ctx, system, user, opts, false)
}

func (c *Client) GenerateJSON(ctx context.Context, system, user string, opts openai.GenOptions) (map[string]any, error) {
	content, err := c.generate(ctx, system, user, opts, true)
	if err != nil {
		return nil, err
	}
	return decodeJSONObject(content)
}

// decodeJSONObject tolerates a fenced ```json block around the object.
func decodeJSONObject(content string) (map[string]any, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		s = "{}"
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("gemini: decode json content: %w", err)
	}
	return out, nil
}
