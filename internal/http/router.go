package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos"
	httpH "github.com/yungbote/sharedexperiences-backend/internal/http/handlers"
	httpMW "github.com/yungbote/sharedexperiences-backend/internal/http/middleware"
	"github.com/yungbote/sharedexperiences-backend/internal/observability"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	ServiceName    string
	FrontendOrigin string
	Identities     repos.UserIdentityRepo
	Metrics        *observability.Metrics

	HealthHandler     *httpH.HealthHandler
	ExperienceHandler *httpH.ExperienceHandler
	FeedHandler       *httpH.FeedHandler
	AdminHandler      *httpH.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.FrontendOrigin))
	r.Use(httpMW.AttachSession(httpMW.SessionConfig{FrontendOrigin: cfg.FrontendOrigin}))
	r.Use(httpMW.RequestLogger(cfg.Log))
	if cfg.Log != nil {
		r.Use(httpMW.TrackIdentity(cfg.Log, cfg.Identities))
	}

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Health
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.HealthCheck)
		}

		// Experiences
		if cfg.ExperienceHandler != nil {
			api.POST("/experiences", cfg.ExperienceHandler.Create)
			api.GET("/experiences/:id/similar", cfg.ExperienceHandler.Similar)
		}

		// Aggregate views
		if cfg.FeedHandler != nil {
			api.GET("/posts", cfg.FeedHandler.Posts)
			api.GET("/trending", cfg.FeedHandler.Trending)
			api.GET("/grouped-summaries", cfg.FeedHandler.GroupedSummaries)
		}

		// Admin
		if cfg.AdminHandler != nil {
			api.POST("/recluster", cfg.AdminHandler.Recluster)
		}
	}

	return r
}
