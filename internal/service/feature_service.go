package service

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/geotrail/trailnet-backend-go/internal/database"
	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/models"
	"github.com/geotrail/trailnet-backend-go/internal/network"
	"github.com/geotrail/trailnet-backend-go/internal/overlap"
	"github.com/geotrail/trailnet-backend-go/internal/repository"
)

// FeatureService manages trail features and their relationship queries
type FeatureService struct {
	net        *network.Network
	index      *overlap.Index
	features   *repository.FeatureRepository
	topologies *repository.TopologyRepository

	// topologyEnabled selects how new features are positioned: snapped onto
	// the path network through aggregations, or carrying a free geometry
	// when network-referencing is disabled.
	topologyEnabled bool
}

// NewFeatureService creates a new feature service
func NewFeatureService(net *network.Network, index *overlap.Index,
	features *repository.FeatureRepository, topologies *repository.TopologyRepository,
	topologyEnabled bool) *FeatureService {
	return &FeatureService{net: net, index: index, features: features,
		topologies: topologies, topologyEnabled: topologyEnabled}
}

// CreateFeatureInput describes a feature and the topology positioning it.
// Aggregations position it on the network; Geometry is the free-drawn
// alternative used when network-referencing is disabled.
type CreateFeatureInput struct {
	Type         string               `json:"type" binding:"required"`
	Name         string               `json:"name"`
	Practice     string               `json:"practice"`
	Published    bool                 `json:"published"`
	Kind         models.TopologyKind  `json:"kind"`
	Offset       float64              `json:"offset"`
	Aggregations []models.Aggregation `json:"aggregations"`
	Geometry     geom.Line            `json:"geometry"`
}

// Create registers a new feature: its topology is created in the engine and
// both records persist together. With network-referencing enabled the input
// aggregations snap it onto paths; otherwise the free geometry is draped
// as-is.
func (s *FeatureService) Create(in CreateFeatureInput) (models.Feature, error) {
	kind := in.Kind
	if kind == "" {
		kind = models.KindLine
		if in.Type == models.FeaturePOI || in.Type == models.FeatureSignage {
			kind = models.KindPoint
		}
	}

	var t models.Topology
	var err error
	if s.topologyEnabled {
		t, err = s.net.CreateTopology(kind, in.Offset, in.Aggregations)
	} else {
		t, err = s.net.CreateFreeTopology(kind, in.Offset, in.Geometry)
	}
	if err != nil {
		return models.Feature{}, err
	}

	f := models.Feature{
		TopologyID: t.ID,
		Type:       in.Type,
		Name:       in.Name,
		Practice:   in.Practice,
		Published:  in.Published,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	err = database.Transaction(func(tx *sql.Tx) error {
		if err := s.topologies.Save(tx, &t); err != nil {
			return err
		}
		return s.features.Create(tx, &f)
	})
	if err != nil {
		// Keep engine and database consistent: drop the topology we just
		// registered.
		_ = s.net.DeleteTopology(t.ID)
		return models.Feature{}, fmt.Errorf("failed to persist feature: %w", err)
	}
	return f, nil
}

// List returns features matching the filter
func (s *FeatureService) List(filter models.FeatureFilter) ([]models.Feature, int64, error) {
	return s.features.GetFeatures(filter)
}

// Get returns a feature by id
func (s *FeatureService) Get(id int64) (*models.Feature, error) {
	return s.features.GetByID(id)
}

// Delete logically deletes a feature. Its topology is kept: deletion is
// reversible and relationship queries already exclude deleted features.
func (s *FeatureService) Delete(id int64) error {
	return database.Transaction(func(tx *sql.Tx) error {
		return s.features.MarkDeleted(tx, id)
	})
}

// Nearby returns the ids of features of the given type on or near the
// reference feature
func (s *FeatureService) Nearby(featureID int64, featureType string, publishedOnly bool) ([]int64, error) {
	ref, err := s.features.GetByID(featureID)
	if err != nil {
		return nil, err
	}
	if ref == nil || ref.Deleted {
		return nil, fmt.Errorf("feature %d not found", featureID)
	}

	candidates, err := s.features.GetAll()
	if err != nil {
		return nil, err
	}

	switch featureType {
	case models.FeatureTrek:
		return overlap.TreksOn(s.index, s.net, candidates, ref, publishedOnly)
	case models.FeaturePOI:
		return overlap.POIsOn(s.index, s.net, candidates, ref, publishedOnly)
	case models.FeatureService:
		return overlap.ServicesOn(s.index, s.net, candidates, ref, ref.Practice, publishedOnly)
	case models.FeatureSignage:
		return overlap.SignagesOn(s.index, s.net, candidates, ref)
	default:
		ids, err := s.index.Overlapping(s.net, candidates, ref, overlap.Query{PublishedOnly: publishedOnly})
		return ids, err
	}
}
