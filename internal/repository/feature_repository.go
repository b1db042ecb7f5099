package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/geotrail/trailnet-backend-go/internal/models"
)

// FeatureRepository handles database operations for features
type FeatureRepository struct {
	db *sql.DB
}

// NewFeatureRepository creates a new feature repository
func NewFeatureRepository(db *sql.DB) *FeatureRepository {
	return &FeatureRepository{db: db}
}

const featureColumns = `id, topology_id, type, name, practice, published, deleted, created_at, updated_at`

// GetFeatures retrieves features with filtering and pagination. Logically
// deleted features are excluded.
func (r *FeatureRepository) GetFeatures(filter models.FeatureFilter) ([]models.Feature, int64, error) {
	conditions := []string{"deleted = 0"}
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Practice != "" {
		conditions = append(conditions, "practice = ?")
		args = append(args, filter.Practice)
	}
	if filter.Published {
		conditions = append(conditions, "published = 1")
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM features"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count features: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := "SELECT " + featureColumns + " FROM features" + where + " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	var features []models.Feature
	for rows.Next() {
		var f models.Feature
		err := rows.Scan(&f.ID, &f.TopologyID, &f.Type, &f.Name, &f.Practice,
			&f.Published, &f.Deleted, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan feature: %w", err)
		}
		features = append(features, f)
	}
	return features, total, rows.Err()
}

// GetAll loads every feature including deleted ones (the overlap index
// applies its own deletion filter)
func (r *FeatureRepository) GetAll() ([]models.Feature, error) {
	rows, err := r.db.Query("SELECT " + featureColumns + " FROM features")
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	var features []models.Feature
	for rows.Next() {
		var f models.Feature
		err := rows.Scan(&f.ID, &f.TopologyID, &f.Type, &f.Name, &f.Practice,
			&f.Published, &f.Deleted, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// GetByID retrieves a single feature by id, deleted or not
func (r *FeatureRepository) GetByID(id int64) (*models.Feature, error) {
	var f models.Feature
	err := r.db.QueryRow("SELECT "+featureColumns+" FROM features WHERE id = ?", id).Scan(
		&f.ID, &f.TopologyID, &f.Type, &f.Name, &f.Practice,
		&f.Published, &f.Deleted, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feature: %w", err)
	}
	return &f, nil
}

// Create inserts a feature and returns it with its assigned id
func (r *FeatureRepository) Create(tx *sql.Tx, f *models.Feature) error {
	res, err := tx.Exec(`INSERT INTO features (topology_id, type, name, practice, published, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		f.TopologyID, f.Type, f.Name, f.Practice, f.Published, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feature: %w", err)
	}
	f.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read feature id: %w", err)
	}
	return nil
}

// MarkDeleted flags a feature as logically deleted
func (r *FeatureRepository) MarkDeleted(tx *sql.Tx, id int64) error {
	res, err := tx.Exec("UPDATE features SET deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete feature %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("feature %d not found", id)
	}
	return nil
}
