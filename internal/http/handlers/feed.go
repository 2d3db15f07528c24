package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/sharedexperiences-backend/internal/http/response"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/experiences"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/grouping"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

// FeedHandler serves the read-only aggregate views.
type FeedHandler struct {
	log         *logger.Logger
	experiences experiences.Usecases
	grouping    grouping.Usecases
}

func NewFeedHandler(log *logger.Logger, exp experiences.Usecases, grp grouping.Usecases) *FeedHandler {
	return &FeedHandler{log: log.With("handler", "FeedHandler"), experiences: exp, grouping: grp}
}

// GET /api/posts?theme=&cluster=&graphSimilarTo=
func (h *FeedHandler) Posts(c *gin.Context) {
	clusterID, err := optionalUUID(c.Query("cluster"), "cluster")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	similarTo, err := optionalUUID(c.Query("graphSimilarTo"), "graphSimilarTo")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	posts, err := h.experiences.Feed(c.Request.Context(), experiences.FeedQuery{
		Theme:          c.Query("theme"),
		ClusterID:      clusterID,
		GraphSimilarTo: similarTo,
		SessionID:      sessionData(c).SessionID,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, posts)
}

// GET /api/trending
func (h *FeedHandler) Trending(c *gin.Context) {
	out, err := h.experiences.Trending(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/grouped-summaries?theme=&cluster=
func (h *FeedHandler) GroupedSummaries(c *gin.Context) {
	clusterID, err := optionalUUID(c.Query("cluster"), "cluster")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out, err := h.grouping.GroupedSummaries(c.Request.Context(), grouping.GroupedQuery{
		Theme:     c.Query("theme"),
		ClusterID: clusterID,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}
