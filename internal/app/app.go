package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/yungbote/sharedexperiences-backend/internal/data/db"
	"github.com/yungbote/sharedexperiences-backend/internal/data/graph"
	"github.com/yungbote/sharedexperiences-backend/internal/data/repos"
	httpapi "github.com/yungbote/sharedexperiences-backend/internal/http"
	httpH "github.com/yungbote/sharedexperiences-backend/internal/http/handlers"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/clustering"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/experiences"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/grouping"
	"github.com/yungbote/sharedexperiences-backend/internal/observability"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
	"github.com/yungbote/sharedexperiences-backend/internal/services"
)

type Usecases struct {
	Engine      *clustering.Engine
	Experiences experiences.Usecases
	Grouping    grouping.Usecases
}

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Repos    repos.Repos
	Clients  Clients
	Text     services.TextService
	Usecases Usecases
	Server   *httpapi.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context)
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	cfg, err := LoadConfig(log)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, log, cfg)
}

func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
	})
	metrics := observability.Init(log)

	log.Info("Opening database...", "driver", cfg.DB.Driver)
	dbService, err := db.Open(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	gdb := dbService.DB()
	if err := db.AutoMigrateAll(gdb); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.EnsureIndexes(gdb); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}

	rs := repos.New(gdb, log)
	text, err := services.NewTextService(log, clients.LLM, clients.Provider)
	if err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("init text service: %w", err)
	}

	mirror := graph.NewExperienceMirror(clients.Neo4j, log)
	if s, ok := mirror.(schemaEnsurer); ok {
		s.EnsureSchema(ctx)
	}

	engine, err := clustering.NewEngine(clustering.EngineDeps{
		Log:         log,
		Experiences: rs.Experience,
		Clusters:    rs.Cluster,
		Tx:          rs.Tx,
		Locker:      clients.Locker,
		Text:        text,
		Config:      cfg.Engine.clustering(),
	})
	if err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("init clustering engine: %w", err)
	}
	uc := Usecases{
		Engine: engine,
		Experiences: experiences.New(experiences.UsecasesDeps{
			Log:         log,
			Experiences: rs.Experience,
			Clusters:    rs.Cluster,
			Text:        text,
			Mirror:      mirror,
			Assigner:    engine,
			Retriever:   cfg.Engine.retriever(),
		}),
		Grouping: grouping.New(grouping.UsecasesDeps{
			Log:         log,
			Experiences: rs.Experience,
			Clusters:    engine,
			Cache:       grouping.NewSummaryCache(log, rs.GroupSummary, text),
			Config:      cfg.Engine.grouping(),
		}),
	}

	server := httpapi.NewServer(httpapi.RouterConfig{
		Log:               log,
		ServiceName:       cfg.ServiceName,
		FrontendOrigin:    cfg.FrontendOrigin,
		Identities:        rs.UserIdentity,
		Metrics:           metrics,
		HealthHandler:     httpH.NewHealthHandler(),
		ExperienceHandler: httpH.NewExperienceHandler(log, uc.Experiences),
		FeedHandler:       httpH.NewFeedHandler(log, uc.Experiences, uc.Grouping),
		AdminHandler:      httpH.NewAdminHandler(log, engine, cfg.Engine.ClusterK),
	})

	log.Info("App wired",
		"provider", text.Provider(),
		"graph_mirror", mirror.Enabled(),
		"cluster_k", cfg.Engine.ClusterK,
	)
	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbService,
		Repos:        rs,
		Clients:      clients,
		Text:         text,
		Usecases:     uc,
		Server:       server,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB.DB())
	}
	addr := net.JoinHostPort("", a.Cfg.Port)
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Clients.Neo4j != nil {
		if err := a.Clients.Neo4j.Close(ctx); err != nil {
			a.Log.Warn("neo4j close failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("db close failed", "error", err)
		}
	}
}
