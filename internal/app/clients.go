package app

import (
	"context"
	"fmt"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/gemini"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/neo4jdb"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/openai"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/redislock"
)

type Clients struct {
	LLM      openai.Client
	Provider string
	Neo4j    *neo4jdb.Client
	Locker   redislock.Locker
}

// wireLLM returns (nil, "local", nil) when the selected provider has no key.
func wireLLM(ctx context.Context, log *logger.Logger, cfg LLMConfig) (openai.Client, string, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, "local", nil
		}
		c, err := gemini.NewClient(ctx, log, gemini.Config{
			APIKey:            cfg.GeminiAPIKey,
			Model:             cfg.GeminiModelCategorize,
			EmbedModel:        cfg.GeminiModelEmbed,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, "", err
		}
		return c, ProviderGemini, nil
	case ProviderDeepSeek:
		if cfg.DeepSeekAPIKey == "" {
			return nil, "local", nil
		}
		c, err := openai.NewClient(log, openai.Config{
			BaseURL:           cfg.DeepSeekBaseURL,
			APIKey:            cfg.DeepSeekAPIKey,
			Model:             cfg.DeepSeekModelCategorize,
			EmbedModel:        cfg.DeepSeekModelEmbed,
			Timeout:           cfg.Timeout,
			MaxRetries:        cfg.MaxRetries,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, "", err
		}
		return c, ProviderDeepSeek, nil
	case ProviderOpenAI, "":
		if cfg.OpenAIAPIKey == "" {
			return nil, "local", nil
		}
		c, err := openai.NewClient(log, openai.Config{
			BaseURL:           cfg.OpenAIBaseURL,
			APIKey:            cfg.OpenAIAPIKey,
			Model:             cfg.OpenAIModelCategorize,
			EmbedModel:        cfg.OpenAIModelEmbed,
			Timeout:           cfg.Timeout,
			MaxRetries:        cfg.MaxRetries,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, "", err
		}
		return c, ProviderOpenAI, nil
	default:
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	llm, provider, err := wireLLM(ctx, log, cfg.LLM)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm client: %w", err)
	}
	if llm == nil {
		log.Warn("no LLM key configured, using local text heuristics", "provider", cfg.LLM.Provider)
	}
	out.LLM, out.Provider = llm, provider

	// The graph mirror is optional; a connection failure disables it.
	out.Neo4j, err = neo4jdb.New(log, neo4jdb.Config{
		Enabled:  cfg.Neo4j.Enabled,
		URI:      cfg.Neo4j.URI,
		User:     cfg.Neo4j.User,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		log.Warn("neo4j unavailable, graph mirror disabled", "error", err)
		out.Neo4j = nil
	}

	out.Locker, err = redislock.New(log, redislock.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init redis lock: %w", err)
	}
	if out.Locker == nil {
		out.Locker = redislock.Noop{}
	}
	return out, nil
}
