package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/http/response"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/clustering"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

// Reclusterer recomputes the stored topic clusters.
type Reclusterer interface {
	Recluster(ctx context.Context, k int) (clustering.Result, error)
}

type AdminHandler struct {
	log    *logger.Logger
	engine Reclusterer
	k      int
}

func NewAdminHandler(log *logger.Logger, engine Reclusterer, k int) *AdminHandler {
	return &AdminHandler{log: log.With("handler", "AdminHandler"), engine: engine, k: k}
}

type clusterView struct {
	ID        uuid.UUID   `json:"id"`
	Label     string      `json:"label"`
	Size      int         `json:"size"`
	SampleIDs []uuid.UUID `json:"sampleIds"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type reclusterResponse struct {
	OK       bool          `json:"ok"`
	Clusters []clusterView `json:"clusters"`
}

func clusterViews(rows []*types.Cluster) []clusterView {
	out := make([]clusterView, 0, len(rows))
	for _, c := range rows {
		out = append(out, clusterView{ID: c.ID, Label: c.Label, Size: c.Size, SampleIDs: c.Samples(), UpdatedAt: c.UpdatedAt})
	}
	return out
}

// POST /api/recluster
func (h *AdminHandler) Recluster(c *gin.Context) {
	res, err := h.engine.Recluster(c.Request.Context(), h.k)
	if err != nil {
		h.log.Warn("recluster failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, reclusterResponse{OK: true, Clusters: clusterViews(res.Clusters)})
}
