package repository

import (
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/geotrail/trailnet-backend-go/internal/geom"
	"github.com/geotrail/trailnet-backend-go/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every pool connection would get its own empty in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	files, err := filepath.Glob("../../migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)
	for _, file := range files {
		schema, err := os.ReadFile(file)
		require.NoError(t, err)
		_, err = db.Exec(string(schema))
		require.NoError(t, err)
	}
	return db
}

func inTx(t *testing.T, db *sql.DB, fn func(*sql.Tx) error) {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, fn(tx))
	require.NoError(t, tx.Commit())
}

func TestPathRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewPathRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	p := models.Path{
		ID:           1,
		Name:         "GR5",
		Geom:         geom.Line{{X: 0, Y: 0, Z: 50}, {X: 100, Y: 0, Z: 60}},
		Length2D:     100,
		Length3D:     100.5,
		Ascent:       10,
		MinElevation: 50,
		MaxElevation: 60,
		Slope:        0.1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	inTx(t, db, func(tx *sql.Tx) error { return repo.Save(tx, &p) })

	paths, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	got := paths[0]
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Geom, got.Geom)
	assert.Equal(t, p.Length2D, got.Length2D)
	assert.Equal(t, p.MaxElevation, got.MaxElevation)

	// Save is an upsert
	p.Name = "GR5 variant"
	p.Length2D = 120
	inTx(t, db, func(tx *sql.Tx) error { return repo.Save(tx, &p) })
	paths, err = repo.GetAll()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "GR5 variant", paths[0].Name)
	assert.Equal(t, 120.0, paths[0].Length2D)

	inTx(t, db, func(tx *sql.Tx) error { return repo.Delete(tx, p.ID) })
	paths, err = repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestTopologyRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewTopologyRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	topo := models.Topology{
		ID:     1,
		Kind:   models.KindLine,
		Offset: 2.5,
		State:  models.StateValid,
		Aggregations: []models.Aggregation{
			{ID: 1, TopologyID: 1, PathID: 7, StartPosition: 0.2, EndPosition: 0.8, Order: 0},
			{ID: 2, TopologyID: 1, PathID: 8, StartPosition: 0, EndPosition: 1, Order: 1, LateralOffset: 1},
		},
		Derived: models.DerivedFields{
			Geom2D:   []geom.Line{{{X: 20, Y: 0}, {X: 80, Y: 0}}},
			Length2D: 60,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	inTx(t, db, func(tx *sql.Tx) error { return repo.Save(tx, &topo) })

	loaded, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	got := loaded[0]
	assert.Equal(t, topo.Kind, got.Kind)
	assert.Equal(t, topo.Offset, got.Offset)
	assert.Equal(t, topo.Aggregations, got.Aggregations)
	assert.Equal(t, topo.Derived.Length2D, got.Derived.Length2D)
	assert.Equal(t, topo.Derived.Geom2D, got.Derived.Geom2D)

	// Save replaces the aggregation rows
	topo.Aggregations = topo.Aggregations[:1]
	topo.State = models.StateDegraded
	inTx(t, db, func(tx *sql.Tx) error { return repo.Save(tx, &topo) })
	loaded, err = repo.GetAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Len(t, loaded[0].Aggregations, 1)
	assert.Equal(t, models.StateDegraded, loaded[0].State)

	inTx(t, db, func(tx *sql.Tx) error { return repo.Delete(tx, topo.ID) })
	loaded, err = repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	var orphans int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM aggregations").Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestTopologyRepositoryFreeGeometry(t *testing.T) {
	db := openTestDB(t)
	repo := NewTopologyRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	topo := models.Topology{
		ID:        1,
		Kind:      models.KindLine,
		State:     models.StateValid,
		FreeGeom:  geom.Line{{X: 0, Y: 10, Z: 50}, {X: 100, Y: 10, Z: 50}},
		Derived:   models.DerivedFields{Length2D: 100},
		CreatedAt: now,
		UpdatedAt: now,
	}
	inTx(t, db, func(tx *sql.Tx) error { return repo.Save(tx, &topo) })

	loaded, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	got := loaded[0]
	assert.Equal(t, topo.FreeGeom, got.FreeGeom)
	assert.Empty(t, got.Aggregations)
	assert.True(t, got.IsFree())
}

func TestFeatureRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewFeatureRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	mk := func(ftype, practice string, published bool) models.Feature {
		f := models.Feature{TopologyID: 1, Type: ftype, Name: ftype, Practice: practice,
			Published: published, CreatedAt: now, UpdatedAt: now}
		inTx(t, db, func(tx *sql.Tx) error { return repo.Create(tx, &f) })
		require.NotZero(t, f.ID)
		return f
	}

	trek := mk(models.FeatureTrek, "hiking", true)
	mk(models.FeatureTrek, "cycling", false)
	poi := mk(models.FeaturePOI, "", true)

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	features, total, err := repo.GetFeatures(models.FeatureFilter{Type: models.FeatureTrek})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, features, 2)

	features, total, err = repo.GetFeatures(models.FeatureFilter{Type: models.FeatureTrek, Published: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, features, 1)
	assert.Equal(t, trek.ID, features[0].ID)

	features, _, err = repo.GetFeatures(models.FeatureFilter{Practice: "hiking"})
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, trek.ID, features[0].ID)

	// Logical deletion hides the feature from listings but keeps the row
	inTx(t, db, func(tx *sql.Tx) error { return repo.MarkDeleted(tx, poi.ID) })
	_, total, err = repo.GetFeatures(models.FeatureFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	got, err := repo.GetByID(poi.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Deleted)

	missing, err := repo.GetByID(999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFeatureRepositoryPagination(t *testing.T) {
	db := openTestDB(t)
	repo := NewFeatureRepository(db)

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		f := models.Feature{TopologyID: 1, Type: models.FeaturePOI, CreatedAt: now, UpdatedAt: now}
		inTx(t, db, func(tx *sql.Tx) error { return repo.Create(tx, &f) })
	}

	features, total, err := repo.GetFeatures(models.FeatureFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, features, 2)
	assert.Equal(t, features[0].ID+1, features[1].ID)

	features, _, err = repo.GetFeatures(models.FeatureFilter{Page: 4, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestMarkDeletedMissing(t *testing.T) {
	db := openTestDB(t)
	repo := NewFeatureRepository(db)

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	assert.Error(t, repo.MarkDeleted(tx, 42))
}
