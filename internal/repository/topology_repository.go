package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/models"
)

// TopologyRepository handles database operations for topologies and their
// aggregations. A topology row and its aggregation rows are always written
// together.
type TopologyRepository struct {
	db *sql.DB
}

// NewTopologyRepository creates a new topology repository
func NewTopologyRepository(db *sql.DB) *TopologyRepository {
	return &TopologyRepository{db: db}
}

// GetAll loads every topology with its aggregations in order
func (r *TopologyRepository) GetAll() ([]models.Topology, error) {
	rows, err := r.db.Query(`SELECT id, kind, "offset", state, derived, free_geom, created_at, updated_at FROM topologies`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topologies: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*models.Topology)
	var order []int64
	for rows.Next() {
		var t models.Topology
		var derivedJSON, freeGeomJSON string
		err := rows.Scan(&t.ID, &t.Kind, &t.Offset, &t.State, &derivedJSON, &freeGeomJSON, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topology: %w", err)
		}
		if err := json.Unmarshal([]byte(derivedJSON), &t.Derived); err != nil {
			return nil, fmt.Errorf("failed to decode derived fields of topology %d: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(freeGeomJSON), &t.FreeGeom); err != nil {
			return nil, fmt.Errorf("failed to decode free geometry of topology %d: %w", t.ID, err)
		}
		byID[t.ID] = &t
		order = append(order, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	aggRows, err := r.db.Query(`SELECT id, topology_id, path_id, start_position, end_position,
		agg_order, lateral_offset FROM aggregations ORDER BY topology_id, agg_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregations: %w", err)
	}
	defer aggRows.Close()

	for aggRows.Next() {
		var a models.Aggregation
		err := aggRows.Scan(&a.ID, &a.TopologyID, &a.PathID, &a.StartPosition, &a.EndPosition,
			&a.Order, &a.LateralOffset)
		if err != nil {
			return nil, fmt.Errorf("failed to scan aggregation: %w", err)
		}
		if t, ok := byID[a.TopologyID]; ok {
			t.Aggregations = append(t.Aggregations, a)
		}
	}
	if err := aggRows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Topology, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// Save writes a topology and replaces its aggregation rows inside the given
// transaction
func (r *TopologyRepository) Save(tx *sql.Tx, t *models.Topology) error {
	derivedJSON, err := json.Marshal(t.Derived)
	if err != nil {
		return fmt.Errorf("failed to encode derived fields: %w", err)
	}
	freeGeom := t.FreeGeom
	if freeGeom == nil {
		freeGeom = geom.Line{}
	}
	freeGeomJSON, err := json.Marshal(freeGeom)
	if err != nil {
		return fmt.Errorf("failed to encode free geometry: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO topologies (id, kind, "offset", state, derived, free_geom, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			"offset" = excluded."offset",
			state = excluded.state,
			derived = excluded.derived,
			free_geom = excluded.free_geom,
			updated_at = excluded.updated_at`,
		t.ID, t.Kind, t.Offset, t.State, string(derivedJSON), string(freeGeomJSON), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save topology %d: %w", t.ID, err)
	}

	if _, err := tx.Exec("DELETE FROM aggregations WHERE topology_id = ?", t.ID); err != nil {
		return fmt.Errorf("failed to clear aggregations of topology %d: %w", t.ID, err)
	}
	for _, a := range t.Aggregations {
		_, err := tx.Exec(`INSERT INTO aggregations (id, topology_id, path_id, start_position,
			end_position, agg_order, lateral_offset) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.TopologyID, a.PathID, a.StartPosition, a.EndPosition, a.Order, a.LateralOffset)
		if err != nil {
			return fmt.Errorf("failed to save aggregation %d: %w", a.ID, err)
		}
	}
	return nil
}

// Delete removes a topology and its aggregations inside the given transaction
func (r *TopologyRepository) Delete(tx *sql.Tx, id int64) error {
	if _, err := tx.Exec("DELETE FROM aggregations WHERE topology_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete aggregations of topology %d: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM topologies WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete topology %d: %w", id, err)
	}
	return nil
}
