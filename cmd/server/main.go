package main

import (
	"log"

	"github.com/geotrail/trailnet-backend-go/internal/api"
	"github.com/geotrail/trailnet-backend-go/internal/config"
	"github.com/geotrail/trailnet-backend-go/internal/database"
	"github.com/geotrail/trailnet-backend-go/internal/dem"
	"github.com/geotrail/trailnet-backend-go/internal/handler"
	"github.com/geotrail/trailnet-backend-go/internal/network"
	"github.com/geotrail/trailnet-backend-go/internal/overlap"
	"github.com/geotrail/trailnet-backend-go/internal/repository"
	"github.com/geotrail/trailnet-backend-go/internal/service"
	"github.com/geotrail/trailnet-backend-go/internal/spatial"
)

func main() {
	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	db := database.GetDB()
	migrator := database.NewMigrationManager(db, cfg.MigrationsPath)
	if err := migrator.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	sampler := loadSampler(cfg)

	net := network.New(sampler, cfg.SampleStep)
	pathRepo := repository.NewPathRepository(db)
	topoRepo := repository.NewTopologyRepository(db)
	featureRepo := repository.NewFeatureRepository(db)

	paths, err := pathRepo.GetAll()
	if err != nil {
		log.Fatal("Failed to load paths:", err)
	}
	topologies, err := topoRepo.GetAll()
	if err != nil {
		log.Fatal("Failed to load topologies:", err)
	}
	net.Load(paths, topologies)
	log.Printf("[Network] Loaded %d paths, %d topologies", len(paths), len(topologies))

	mode := overlap.ModeTopological
	if cfg.TopologyMode == "buffered" {
		mode = overlap.ModeBuffered
	}
	index := overlap.New(mode, cfg.Margins(), cfg.DefaultMargin)

	projection := spatial.NewProjection(cfg.OriginLat, cfg.OriginLon)
	networkService := service.NewNetworkService(net, pathRepo, topoRepo, projection, cfg.SimplifyTolerance)
	topologyService := service.NewTopologyService(net, topoRepo)
	featureService := service.NewFeatureService(net, index, featureRepo, topoRepo,
		mode == overlap.ModeTopological)

	router := api.SetupRouter(cfg,
		handler.NewPathHandler(networkService),
		handler.NewTopologyHandler(topologyService),
		handler.NewFeatureHandler(featureService))

	log.Printf("Server starting on port %s (topology mode: %s)", cfg.Port, mode)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// loadSampler opens the configured DEM, falling back to a flat raster when
// none is configured
func loadSampler(cfg *config.Config) dem.Sampler {
	if cfg.DEMPath == "" {
		log.Println("[DEM] No raster configured, elevations default to 0")
		return dem.Constant(0)
	}

	interp := dem.Bilinear
	if cfg.DEMInterpolation == "nearest" {
		interp = dem.Nearest
	}
	grid, err := dem.LoadASCIIGrid(cfg.DEMPath, interp)
	if err != nil {
		log.Fatal("Failed to load DEM:", err)
	}
	log.Printf("[DEM] Loaded raster %s (cell size %.1fm)", cfg.DEMPath, grid.CellSize())
	return grid
}
