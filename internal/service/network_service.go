package service

import (
	"database/sql"
	"fmt"

	"github.com/geotrail/trailnet-backend-go/internal/database"
	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/models"
	"github.com/geotrail/trailnet-backend-go/internal/network"
	"github.com/geotrail/trailnet-backend-go/internal/repository"
	"github.com/geotrail/trailnet-backend-go/internal/spatial"
)

// NetworkService orchestrates path network mutations: every write goes
// through the engine first, then the affected records are persisted in one
// transaction. A failed engine call leaves both engine and database
// unchanged.
type NetworkService struct {
	net         *network.Network
	paths       *repository.PathRepository
	topologies  *repository.TopologyRepository
	projection  *spatial.Projection
	simplifyTol float64
}

// NewNetworkService creates a new network service
func NewNetworkService(net *network.Network, paths *repository.PathRepository,
	topologies *repository.TopologyRepository, projection *spatial.Projection, simplifyTol float64) *NetworkService {
	return &NetworkService{
		net:         net,
		paths:       paths,
		topologies:  topologies,
		projection:  projection,
		simplifyTol: simplifyTol,
	}
}

// Coordinate is one vertex of an incoming path geometry
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// toLine converts incoming coordinates to planar meters. Geographic input
// (lon/lat in X/Y) is projected first.
func (s *NetworkService) toLine(coords []Coordinate, geographic bool) geom.Line {
	line := make(geom.Line, len(coords))
	for i, c := range coords {
		if geographic {
			x, y := s.projection.ToPlanar(c.Y, c.X)
			line[i] = geom.Point{X: x, Y: y}
		} else {
			line[i] = geom.Point{X: c.X, Y: c.Y}
		}
	}
	if s.simplifyTol > 0 {
		line = geom.Simplify(line, s.simplifyTol)
	}
	return line
}

// CreatePath adds a path segment to the network and persists it
func (s *NetworkService) CreatePath(name string, coords []Coordinate, geographic bool) (models.Path, error) {
	p, err := s.net.AddPath(name, s.toLine(coords, geographic))
	if err != nil {
		return models.Path{}, err
	}
	err = database.Transaction(func(tx *sql.Tx) error {
		return s.paths.Save(tx, &p)
	})
	if err != nil {
		return models.Path{}, fmt.Errorf("failed to persist path: %w", err)
	}
	return p, nil
}

// GetPath returns a path by id
func (s *NetworkService) GetPath(id int64) (models.Path, bool) {
	return s.net.Path(id)
}

// GetPaths returns all paths
func (s *NetworkService) GetPaths() []models.Path {
	return s.net.Paths()
}

// Split cuts a path at a fractional position and persists the result
func (s *NetworkService) Split(pathID int64, at float64) (*network.MutationResult, error) {
	res, err := s.net.Split(pathID, at)
	if err != nil {
		return nil, err
	}
	return res, s.persist(res)
}

// Merge joins two paths sharing an endpoint and persists the result
func (s *NetworkService) Merge(aID, bID int64) (*network.MutationResult, error) {
	res, err := s.net.Merge(aID, bID)
	if err != nil {
		return nil, err
	}
	return res, s.persist(res)
}

// DeletePath removes a path; referencing topologies degrade and are
// persisted in their degraded state
func (s *NetworkService) DeletePath(pathID int64) (*network.MutationResult, error) {
	res, err := s.net.DeletePath(pathID)
	if err != nil {
		return nil, err
	}
	return res, s.persist(res)
}

// UpdateGeometry replaces a path's geometry and persists the result
func (s *NetworkService) UpdateGeometry(pathID int64, coords []Coordinate, geographic bool) (*network.MutationResult, error) {
	res, err := s.net.UpdateGeometry(pathID, s.toLine(coords, geographic))
	if err != nil {
		return nil, err
	}
	return res, s.persist(res)
}

// AuditTrail returns the committed mutation records
func (s *NetworkService) AuditTrail() []network.MutationRecord {
	return s.net.AuditTrail()
}

// persist writes every record a mutation touched in one transaction
func (s *NetworkService) persist(res *network.MutationResult) error {
	err := database.Transaction(func(tx *sql.Tx) error {
		for i := range res.Paths {
			if err := s.paths.Save(tx, &res.Paths[i]); err != nil {
				return err
			}
		}
		for _, id := range res.DeletedPathIDs {
			if err := s.paths.Delete(tx, id); err != nil {
				return err
			}
		}
		for i := range res.Topologies {
			if err := s.topologies.Save(tx, &res.Topologies[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist mutation %s: %w", res.Record.ID, err)
	}
	return nil
}
