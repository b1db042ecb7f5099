package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/geotrail/trailnet-backend-go/internal/models"
	"github.com/geotrail/trailnet-backend-go/internal/service"
	"github.com/geotrail/trailnet-backend-go/pkg/response"
)

// TopologyHandler handles HTTP requests for topologies
type TopologyHandler struct {
	service *service.TopologyService
}

// NewTopologyHandler creates a new topology handler
func NewTopologyHandler(service *service.TopologyService) *TopologyHandler {
	return &TopologyHandler{service: service}
}

type topologyRequest struct {
	Kind         models.TopologyKind  `json:"kind"`
	Offset       float64              `json:"offset"`
	Aggregations []models.Aggregation `json:"aggregations" binding:"required"`
}

// CreateTopology handles POST /api/v1/topologies
func (h *TopologyHandler) CreateTopology(c *gin.Context) {
	var req topologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = models.KindLine
	}
	t, err := h.service.Create(kind, req.Offset, req.Aggregations)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, t)
}

// Resnap handles PUT /api/v1/topologies/:id/resnap
func (h *TopologyHandler) Resnap(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid topology ID", err)
		return
	}
	var req topologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	t, err := h.service.Resnap(id, req.Aggregations)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, t)
}

// GetDerived handles GET /api/v1/topologies/:id/derived.
// A degraded topology still answers with its last computed values; the
// state field tells the caller they are stale.
func (h *TopologyHandler) GetDerived(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid topology ID", err)
		return
	}
	derived, err := h.service.Derived(id)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, derived)
}

// GetProfile handles GET /api/v1/topologies/:id/profile
func (h *TopologyHandler) GetProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid topology ID", err)
		return
	}
	profile, err := h.service.Profile(id)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, profile)
}
