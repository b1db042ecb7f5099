package service

import (
	"database/sql"
	"fmt"

	"github.com/geotrail/trailnet-backend-go/internal/altimetry"
	"github.com/geotrail/trailnet-backend-go/internal/database"
	"github.com/geotrail/trailnet-backend-go/internal/models"
	"github.com/geotrail/trailnet-backend-go/internal/network"
	"github.com/geotrail/trailnet-backend-go/internal/repository"
)

// TopologyService exposes topology creation, resnapping and derived-field
// reads
type TopologyService struct {
	net        *network.Network
	topologies *repository.TopologyRepository
}

// NewTopologyService creates a new topology service
func NewTopologyService(net *network.Network, topologies *repository.TopologyRepository) *TopologyService {
	return &TopologyService{net: net, topologies: topologies}
}

// Create registers a new topology from an aggregation set
func (s *TopologyService) Create(kind models.TopologyKind, offset float64, aggs []models.Aggregation) (models.Topology, error) {
	t, err := s.net.CreateTopology(kind, offset, aggs)
	if err != nil {
		return models.Topology{}, err
	}
	err = database.Transaction(func(tx *sql.Tx) error {
		return s.topologies.Save(tx, &t)
	})
	if err != nil {
		return models.Topology{}, fmt.Errorf("failed to persist topology: %w", err)
	}
	return t, nil
}

// Resnap replaces a topology's aggregations, returning it to the valid state
func (s *TopologyService) Resnap(id int64, aggs []models.Aggregation) (models.Topology, error) {
	t, err := s.net.Resnap(id, aggs)
	if err != nil {
		return models.Topology{}, err
	}
	err = database.Transaction(func(tx *sql.Tx) error {
		return s.topologies.Save(tx, &t)
	})
	if err != nil {
		return models.Topology{}, fmt.Errorf("failed to persist topology: %w", err)
	}
	return t, nil
}

// DerivedResult is the read model of a topology's derived state
type DerivedResult struct {
	models.DerivedFields
	State models.TopologyState `json:"state"`
}

// Derived returns the derived fields of a topology. For a degraded topology
// the last computed values are returned with the degraded state set; the
// caller decides whether staleness is acceptable.
func (s *TopologyService) Derived(id int64) (DerivedResult, error) {
	derived, state, err := s.net.Derived(id)
	if err != nil && state != models.StateDegraded {
		return DerivedResult{}, err
	}
	return DerivedResult{DerivedFields: derived, State: state}, nil
}

// ProfileResult bundles an elevation profile with its distribution summary
type ProfileResult struct {
	Points  []altimetry.ProfilePoint `json:"points"`
	Summary altimetry.ProfileSummary `json:"summary"`
	State   models.TopologyState     `json:"state"`
}

// Profile returns the elevation profile along a topology's 3D geometry
func (s *TopologyService) Profile(id int64) (ProfileResult, error) {
	derived, state, err := s.net.Derived(id)
	if err != nil && state != models.StateDegraded {
		return ProfileResult{}, err
	}
	points := altimetry.ElevationProfile(derived.Geom3D)
	return ProfileResult{
		Points:  points,
		Summary: altimetry.Summarize(points),
		State:   state,
	}, nil
}
