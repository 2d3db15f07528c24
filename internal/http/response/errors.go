package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/apierr"
)

var errInternal = errors.New("Internal server error")

// RespondAPIError writes an *apierr.Error with its own status and code.
// Anything else, and any 5xx, is reported as a generic internal error so
// storage details never reach the client.
func RespondAPIError(c *gin.Context, err error) {
	if ae, ok := apierr.As(err); ok && ae.Status > 0 && ae.Status < http.StatusInternalServerError {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, apierr.CodeInternal, errInternal)
}
