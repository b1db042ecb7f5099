package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/geotrail/trailnet-backend-go/internal/network"
	"github.com/geotrail/trailnet-backend-go/internal/service"
	"github.com/geotrail/trailnet-backend-go/pkg/response"
)

// PathHandler handles HTTP requests for path segments and network mutations
type PathHandler struct {
	service *service.NetworkService
}

// NewPathHandler creates a new path handler
func NewPathHandler(service *service.NetworkService) *PathHandler {
	return &PathHandler{service: service}
}

type createPathRequest struct {
	Name        string               `json:"name"`
	Coordinates []service.Coordinate `json:"coordinates" binding:"required"`
	Geographic  bool                 `json:"geographic"`
}

// GetPaths handles GET /api/v1/paths
func (h *PathHandler) GetPaths(c *gin.Context) {
	response.Success(c, h.service.GetPaths())
}

// GetPathByID handles GET /api/v1/paths/:id
func (h *PathHandler) GetPathByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid path ID", err)
		return
	}
	p, ok := h.service.GetPath(id)
	if !ok {
		response.NotFound(c, "Path not found")
		return
	}
	response.Success(c, p)
}

// CreatePath handles POST /api/v1/paths
func (h *PathHandler) CreatePath(c *gin.Context) {
	var req createPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	p, err := h.service.CreatePath(req.Name, req.Coordinates, req.Geographic)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, p)
}

// UpdateGeometry handles PUT /api/v1/paths/:id/geometry
func (h *PathHandler) UpdateGeometry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid path ID", err)
		return
	}
	var req createPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	res, err := h.service.UpdateGeometry(id, req.Coordinates, req.Geographic)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, res)
}

// SplitPath handles POST /api/v1/paths/:id/split
func (h *PathHandler) SplitPath(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid path ID", err)
		return
	}
	var req struct {
		At float64 `json:"at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	res, err := h.service.Split(id, req.At)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, res)
}

// MergePaths handles POST /api/v1/paths/merge
func (h *PathHandler) MergePaths(c *gin.Context) {
	var req struct {
		PathA int64 `json:"pathA" binding:"required"`
		PathB int64 `json:"pathB" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	res, err := h.service.Merge(req.PathA, req.PathB)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, res)
}

// DeletePath handles DELETE /api/v1/paths/:id
func (h *PathHandler) DeletePath(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid path ID", err)
		return
	}
	res, err := h.service.DeletePath(id)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, res)
}

// GetAuditTrail handles GET /api/v1/network/audit
func (h *PathHandler) GetAuditTrail(c *gin.Context) {
	response.Success(c, h.service.AuditTrail())
}

// mutationError maps engine errors onto HTTP statuses
func mutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, network.ErrSegmentNotFound), errors.Is(err, network.ErrTopologyNotFound):
		response.Error(c, http.StatusNotFound, "Not found", err)
	case errors.Is(err, network.ErrNetworkMutation), errors.Is(err, network.ErrInvalidAggregationRange):
		response.Error(c, http.StatusUnprocessableEntity, "Mutation rejected", err)
	default:
		response.InternalError(c, "Operation failed", err)
	}
}
