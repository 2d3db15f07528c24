package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/apierr"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/ctxutil"
)

// optionalUUID parses a query or path value. Blank yields uuid.Nil.
func optionalUUID(raw, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierr.BadRequest(apierr.CodeInvalidID, "invalid "+field)
	}
	return id, nil
}

func sessionData(c *gin.Context) ctxutil.SessionData {
	if sd := ctxutil.GetSessionData(c.Request.Context()); sd != nil {
		return *sd
	}
	return ctxutil.SessionData{}
}
