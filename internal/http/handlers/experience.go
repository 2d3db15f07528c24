package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sharedexperiences-backend/internal/http/response"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/experiences"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/apierr"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

var errTextRequired = errors.New("Text is required")

type ExperienceHandler struct {
	log         *logger.Logger
	experiences experiences.Usecases
}

func NewExperienceHandler(log *logger.Logger, uc experiences.Usecases) *ExperienceHandler {
	return &ExperienceHandler{log: log.With("handler", "ExperienceHandler"), experiences: uc}
}

type createExperienceRequest struct {
	Text *string `json:"text"`
}

// POST /api/experiences
func (h *ExperienceHandler) Create(c *gin.Context) {
	var req createExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeTextRequired, errTextRequired)
		return
	}
	res, err := h.experiences.Create(c.Request.Context(), experiences.CreateInput{
		Text:    *req.Text,
		Session: sessionData(c),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/experiences/:id/similar
func (h *ExperienceHandler) Similar(c *gin.Context) {
	id, err := optionalUUID(c.Param("id"), "id")
	if err == nil && id == uuid.Nil {
		err = apierr.BadRequest(apierr.CodeInvalidID, "invalid id")
	}
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	res, err := h.experiences.Similar(c.Request.Context(), id, sessionData(c).SessionID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
