package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/sharedexperiences-backend/internal/data/db"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/clustering"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/grouping"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/similarity"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/envutil"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

type LLMConfig struct {
	Provider string

	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIModelCategorize string
	OpenAIModelEmbed      string

	DeepSeekAPIKey          string
	DeepSeekBaseURL         string
	DeepSeekModelCategorize string
	DeepSeekModelEmbed      string

	GeminiAPIKey          string
	GeminiModelCategorize string
	GeminiModelEmbed      string

	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

type Neo4jConfig struct {
	Enabled  bool
	URI      string
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EngineConfig holds the similarity and clustering tunables. ENGINE_CONFIG_PATH
// may point at a YAML file overriding any of them.
type EngineConfig struct {
	EmbeddingPoolSize  int     `yaml:"embedding_pool_size"`
	ThemePoolSize      int     `yaml:"theme_pool_size"`
	EmbeddingThreshold float64 `yaml:"embedding_threshold"`
	ThemeThreshold     float64 `yaml:"theme_threshold"`

	ClusterK               int           `yaml:"cluster_k"`
	ClusterWindow          time.Duration `yaml:"cluster_window"`
	ClusterMaxPool         int           `yaml:"cluster_max_pool"`
	ClusterAssignThreshold float64       `yaml:"cluster_assign_threshold"`

	GroupPoolSize  int `yaml:"group_pool_size"`
	GroupMaxGroups int `yaml:"group_max_groups"`
}

type Config struct {
	Env            string
	Port           string
	FrontendOrigin string
	ServiceName    string

	DB     db.Config
	LLM    LLMConfig
	Neo4j  Neo4jConfig
	Redis  RedisConfig
	Engine EngineConfig
}

func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		EmbeddingPoolSize:      similarity.DefaultEmbeddingPoolSize,
		ThemePoolSize:          similarity.DefaultThemePoolSize,
		EmbeddingThreshold:     similarity.DefaultEmbeddingThreshold,
		ThemeThreshold:         similarity.DefaultThemeThreshold,
		ClusterK:               clustering.DefaultK,
		ClusterWindow:          clustering.DefaultWindow,
		ClusterMaxPool:         clustering.DefaultMaxPool,
		ClusterAssignThreshold: clustering.DefaultAssignThreshold,
		GroupPoolSize:          grouping.DefaultPoolSize,
		GroupMaxGroups:         grouping.DefaultMaxGroups,
	}
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Env:            envutil.String("APP_ENV", "development"),
		Port:           envutil.String("PORT", "4000"),
		FrontendOrigin: envutil.String("FRONTEND_ORIGIN", "http://localhost:5173"),
		ServiceName:    envutil.String("OTEL_SERVICE_NAME", "sharedexperiences"),
		DB: db.Config{
			Driver:        envutil.String("DB_DRIVER", db.DriverPostgres),
			Host:          envutil.String("POSTGRES_HOST", "localhost"),
			Port:          envutil.String("POSTGRES_PORT", "5432"),
			User:          envutil.String("POSTGRES_USER", "postgres"),
			Password:      envutil.String("POSTGRES_PASSWORD", ""),
			Name:          envutil.String("POSTGRES_NAME", "sharedexperiences"),
			SSLMode:       envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:    envutil.String("SQLITE_PATH", "sharedexperiences.db"),
			SlowThreshold: envutil.Duration("DB_SLOW_THRESHOLD", time.Second),
		},
		LLM: LLMConfig{
			Provider:                strings.ToLower(envutil.String("LLM_PROVIDER", ProviderOpenAI)),
			OpenAIAPIKey:            envutil.String("OPENAI_API_KEY", ""),
			OpenAIBaseURL:           envutil.String("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModelCategorize:   envutil.String("OPENAI_MODEL_CATEGORIZE", "gpt-4o-mini"),
			OpenAIModelEmbed:        envutil.String("OPENAI_MODEL_EMBED", "text-embedding-3-small"),
			DeepSeekAPIKey:          envutil.String("DEEPSEEK_API_KEY", ""),
			DeepSeekBaseURL:         envutil.String("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
			DeepSeekModelCategorize: envutil.String("DEEPSEEK_MODEL_CATEGORIZE", "deepseek-chat"),
			DeepSeekModelEmbed:      envutil.String("DEEPSEEK_MODEL_EMBED", ""),
			GeminiAPIKey:            envutil.String("GEMINI_API_KEY", ""),
			GeminiModelCategorize:   envutil.String("GEMINI_MODEL_CATEGORIZE", "gemini-2.0-flash"),
			GeminiModelEmbed:        envutil.String("GEMINI_MODEL_EMBED", "text-embedding-004"),
			Timeout:                 envutil.Duration("LLM_TIMEOUT", 30*time.Second),
			MaxRetries:              envutil.Int("LLM_MAX_RETRIES", 2),
			RequestsPerSecond:       envutil.Float("LLM_REQUESTS_PER_SECOND", 0),
		},
		Neo4j: Neo4jConfig{
			Enabled:  envutil.Bool("NEO4J_ENABLE", false),
			URI:      envutil.String("NEO4J_URI", ""),
			User:     envutil.String("NEO4J_USER", "neo4j"),
			Password: envutil.String("NEO4J_PASSWORD", ""),
			Database: envutil.String("NEO4J_DATABASE", ""),
		},
		Redis: RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		Engine: defaultEngineConfig(),
	}
	cfg.Engine.ClusterK = envutil.Int("CLUSTER_K", cfg.Engine.ClusterK)

	if path := envutil.String("ENGINE_CONFIG_PATH", ""); path != "" {
		if err := cfg.Engine.loadFile(path); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("engine config loaded", "path", path)
		}
	}
	return cfg, nil
}

// loadFile overlays the YAML document at path. Keys absent from the file
// keep their current values.
func (e *EngineConfig) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read engine config: %w", err)
	}
	if err := yaml.Unmarshal(raw, e); err != nil {
		return fmt.Errorf("parse engine config %s: %w", path, err)
	}
	if e.ClusterK < 1 {
		return fmt.Errorf("engine config: cluster_k must be positive, got %d", e.ClusterK)
	}
	return nil
}

func (e EngineConfig) retriever() similarity.RetrieverConfig {
	return similarity.RetrieverConfig{
		EmbeddingPoolSize:  e.EmbeddingPoolSize,
		ThemePoolSize:      e.ThemePoolSize,
		EmbeddingThreshold: e.EmbeddingThreshold,
		ThemeThreshold:     e.ThemeThreshold,
	}
}

func (e EngineConfig) clustering() clustering.Config {
	return clustering.Config{
		Window:          e.ClusterWindow,
		MaxPool:         e.ClusterMaxPool,
		K:               e.ClusterK,
		AssignThreshold: e.ClusterAssignThreshold,
	}
}

func (e EngineConfig) grouping() grouping.Config {
	return grouping.Config{
		PoolSize:       e.GroupPoolSize,
		MaxGroups:      e.GroupMaxGroups,
		ThemeThreshold: e.ThemeThreshold,
	}
}
