package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/ctxutil"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

// TrackIdentity records the (ip hash, fingerprint hash) pair of each request.
// Failures are logged and never block the request.
func TrackIdentity(log *logger.Logger, identities repos.UserIdentityRepo) gin.HandlerFunc {
	mwLog := log.With("middleware", "IdentityTracker")
	return func(c *gin.Context) {
		sd := ctxutil.GetSessionData(c.Request.Context())
		if identities != nil && sd != nil && (sd.IPHash != "" || sd.FingerprintHash != "") {
			if err := identities.Touch(dbctx.New(c.Request.Context()), sd.IPHash, sd.FingerprintHash, sd.UserAgent); err != nil {
				mwLog.Warn("identity touch failed", "ip_hash", sd.IPHash, "error", err)
			}
		}
		c.Next()
	}
}
