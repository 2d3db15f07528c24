package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/ctxutil"
)

const (
	SessionCookie     = "sid"
	SessionMaxAge     = 180 * 24 * time.Hour
	headerFingerprint = "X-Client-Fingerprint"
)

type SessionConfig struct {
	// FrontendOrigin decides the cookie policy: an https origin needs
	// SameSite=None and Secure for cross-site requests.
	FrontendOrigin string
}

func (c SessionConfig) crossSite() bool {
	u, err := url.Parse(strings.TrimSpace(c.FrontendOrigin))
	return err == nil && u.Scheme == "https"
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// AttachSession gives every request an anonymous identity. A missing sid
// cookie is minted and set; the client ip and the optional fingerprint
// header are stored only as SHA-256 hex.
func AttachSession(cfg SessionConfig) gin.HandlerFunc {
	crossSite := cfg.crossSite()
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || strings.TrimSpace(sid) == "" {
			sid = uuid.NewString()
			cookie := &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(SessionMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			}
			if crossSite {
				cookie.SameSite = http.SameSiteNoneMode
				cookie.Secure = true
			}
			http.SetCookie(c.Writer, cookie)
		}

		fp := ""
		if raw := c.GetHeader(headerFingerprint); raw != "" {
			fp = hashHex(raw)
		}
		sd := &ctxutil.SessionData{
			SessionID:       sid,
			IPHash:          hashHex(c.ClientIP()),
			FingerprintHash: fp,
			UserAgent:       c.Request.UserAgent(),
		}
		c.Request = c.Request.WithContext(ctxutil.WithSessionData(c.Request.Context(), sd))
		c.Next()
	}
}
