package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/geotrail/trailnet-backend-go/internal/models"
	"github.com/geotrail/trailnet-backend-go/internal/service"
	"github.com/geotrail/trailnet-backend-go/pkg/response"
)

// FeatureHandler handles HTTP requests for trail features
type FeatureHandler struct {
	service *service.FeatureService
}

// NewFeatureHandler creates a new feature handler
func NewFeatureHandler(service *service.FeatureService) *FeatureHandler {
	return &FeatureHandler{service: service}
}

// GetFeatures handles GET /api/v1/features
func (h *FeatureHandler) GetFeatures(c *gin.Context) {
	var filter models.FeatureFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	features, total, err := h.service.List(filter)
	if err != nil {
		response.InternalError(c, "Failed to get features", err)
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	response.Success(c, gin.H{
		"data":       features,
		"total":      total,
		"page":       filter.Page,
		"pageSize":   filter.PageSize,
		"totalPages": totalPages,
	})
}

// CreateFeature handles POST /api/v1/features
func (h *FeatureHandler) CreateFeature(c *gin.Context) {
	var in service.CreateFeatureInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	f, err := h.service.Create(in)
	if err != nil {
		mutationError(c, err)
		return
	}
	response.Success(c, f)
}

// DeleteFeature handles DELETE /api/v1/features/:id (logical deletion)
func (h *FeatureHandler) DeleteFeature(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid feature ID", err)
		return
	}
	if err := h.service.Delete(id); err != nil {
		response.InternalError(c, "Failed to delete feature", err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// GetNearby handles GET /api/v1/features/:id/nearby?type=POI&published=true
func (h *FeatureHandler) GetNearby(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid feature ID", err)
		return
	}
	featureType := c.Query("type")
	publishedOnly := c.Query("published") == "true"

	ids, err := h.service.Nearby(id, featureType, publishedOnly)
	if err != nil {
		response.InternalError(c, "Failed to run relationship query", err)
		return
	}
	response.Success(c, gin.H{"ids": ids, "count": len(ids)})
}
