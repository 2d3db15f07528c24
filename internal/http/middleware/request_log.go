package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/ctxutil"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

// quietRoutes are probed constantly; successful hits log at debug.
var quietRoutes = map[string]bool{
	"/api/health": true,
	"/metrics":    true,
}

// RequestLogger emits one access line per request, leveled by status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeLabel(c)
		status := c.Writer.Status()
		fields := accessFields(c, route, status, time.Since(start))

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		case quietRoutes[route]:
			log.Debug("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func routeLabel(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return c.Request.URL.Path
}

func accessFields(c *gin.Context, route string, status int, dur time.Duration) []interface{} {
	fields := []interface{}{
		"method", c.Request.Method,
		"route", route,
		"status", status,
		"duration_ms", dur.Milliseconds(),
		"bytes", c.Writer.Size(),
	}
	ctx := c.Request.Context()
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.RequestID != "" {
			fields = append(fields, "request_id", td.RequestID)
		}
		if td.TraceID != "" {
			fields = append(fields, "trace_id", td.TraceID)
		}
	}
	if sd := ctxutil.GetSessionData(ctx); sd != nil && sd.SessionID != "" {
		fields = append(fields, "session_id", sd.SessionID)
	}
	if len(c.Errors) > 0 {
		fields = append(fields, "error", c.Errors.String())
	}
	return fields
}
