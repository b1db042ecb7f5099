package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Port           string
	DBPath         string
	MigrationsPath string
	JWTSecret      string

	// Elevation raster
	DEMPath          string
	DEMInterpolation string  // "bilinear" or "nearest"
	SampleStep       float64 // densification interval for elevation sampling (m)

	// Topology engine
	TopologyMode      string  // "topological" or "buffered"
	SimplifyTolerance float64 // RDP tolerance applied to imported geometry (m), 0 = off

	// Proximity margins (meters), per feature type
	DefaultMargin float64
	POIMargin     float64
	ServiceMargin float64
	SignageMargin float64

	// Projection origin for geographic (lat/lon) input
	OriginLat float64
	OriginLon float64
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", ":8080"),
		DBPath:         getEnv("DB_PATH", "./data/trailnet.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		DEMPath:          getEnv("DEM_PATH", ""),
		DEMInterpolation: getEnv("DEM_INTERPOLATION", "bilinear"),
		SampleStep:       getEnvFloat("ALTIMETRY_SAMPLE_STEP", 25),

		TopologyMode:      getEnv("TOPOLOGY_MODE", "topological"),
		SimplifyTolerance: getEnvFloat("SIMPLIFY_TOLERANCE", 0),

		DefaultMargin: getEnvFloat("INTERSECTION_MARGIN", 500),
		POIMargin:     getEnvFloat("MARGIN_POI", 500),
		ServiceMargin: getEnvFloat("MARGIN_SERVICE", 500),
		SignageMargin: getEnvFloat("MARGIN_SIGNAGE", 100),

		OriginLat: getEnvFloat("ORIGIN_LAT", 44.84),
		OriginLon: getEnvFloat("ORIGIN_LON", 6.55),
	}
}

// Margins returns the per-feature-type proximity margins
func (c *Config) Margins() map[string]float64 {
	return map[string]float64{
		"POI":     c.POIMargin,
		"SERVICE": c.ServiceMargin,
		"SIGNAGE": c.SignageMargin,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
