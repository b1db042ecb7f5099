package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/models"
)

// PathRepository handles database operations for path segments
type PathRepository struct {
	db *sql.DB
}

// NewPathRepository creates a new path repository
func NewPathRepository(db *sql.DB) *PathRepository {
	return &PathRepository{db: db}
}

// GetAll loads every path segment
func (r *PathRepository) GetAll() ([]models.Path, error) {
	rows, err := r.db.Query(`SELECT id, name, geom, length_2d, length_3d, ascent, descent,
		min_elevation, max_elevation, slope, created_at, updated_at FROM paths`)
	if err != nil {
		return nil, fmt.Errorf("failed to query paths: %w", err)
	}
	defer rows.Close()

	var paths []models.Path
	for rows.Next() {
		p, err := scanPath(rows)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func scanPath(rows *sql.Rows) (models.Path, error) {
	var p models.Path
	var geomJSON string
	err := rows.Scan(&p.ID, &p.Name, &geomJSON, &p.Length2D, &p.Length3D, &p.Ascent, &p.Descent,
		&p.MinElevation, &p.MaxElevation, &p.Slope, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, fmt.Errorf("failed to scan path: %w", err)
	}
	var line geom.Line
	if err := json.Unmarshal([]byte(geomJSON), &line); err != nil {
		return p, fmt.Errorf("failed to decode path geometry: %w", err)
	}
	p.Geom = line
	return p, nil
}

// Save inserts or updates a path inside the given transaction
func (r *PathRepository) Save(tx *sql.Tx, p *models.Path) error {
	geomJSON, err := json.Marshal(p.Geom)
	if err != nil {
		return fmt.Errorf("failed to encode path geometry: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO paths (id, name, geom, length_2d, length_3d, ascent, descent,
		min_elevation, max_elevation, slope, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			geom = excluded.geom,
			length_2d = excluded.length_2d,
			length_3d = excluded.length_3d,
			ascent = excluded.ascent,
			descent = excluded.descent,
			min_elevation = excluded.min_elevation,
			max_elevation = excluded.max_elevation,
			slope = excluded.slope,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, string(geomJSON), p.Length2D, p.Length3D, p.Ascent, p.Descent,
		p.MinElevation, p.MaxElevation, p.Slope, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save path %d: %w", p.ID, err)
	}
	return nil
}

// Delete removes a path row inside the given transaction
func (r *PathRepository) Delete(tx *sql.Tx, id int64) error {
	if _, err := tx.Exec("DELETE FROM paths WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete path %d: %w", id, err)
	}
	return nil
}
