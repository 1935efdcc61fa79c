package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/GunfireGames/Gunfire3DNavigation/generator"
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/internal/navlog"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/persist"
	"github.com/GunfireGames/Gunfire3DNavigation/scheduler"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

// runBuild implements the offline equivalent of examples/build_nav: load a
// geometry file, voxelize every tile touching the requested bounds, and
// save the result. Unlike the teacher's one-shot Builder.Build, tile
// generation goes through the same scheduler a live host would drive; the
// CLI just ticks it to completion instead of once per game frame.
func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	geomPath := fs.String("geometry", "", "path to a geometry JSON file (required)")
	outPath := fs.String("out", "navigation.nav", "output nav-data file path")
	voxelSize := fs.Float64("voxel-size", 0.25, "voxel edge length")
	tileLayer := fs.Uint("tile-layer", 2, "tile layer index (1-5)")
	tilePoolSize := fs.Uint("tile-pool-size", 256, "initial tile map capacity")
	agentRadius := fs.Float64("agent-radius", 1, "agent radius in voxels")
	agentHalfHeight := fs.Float64("agent-half-height", 2, "agent half-height in voxels")
	boundsMin := fs.String("bounds-min", "", "explicit build bounds min, \"x,y,z\" (default: union of triangle bounds)")
	boundsMax := fs.String("bounds-max", "", "explicit build bounds max, \"x,y,z\" (default: union of triangle bounds)")
	maxTrisPerTask := fs.Int("max-tris-per-task", 2000, "soft triangle cap per scheduler job")
	maxWorkers := fs.Int("max-workers", 4, "max concurrent tile-generation workers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *geomPath == "" {
		return errors.New("navd build: -geometry is required")
	}

	src, err := loadGeometrySource(*geomPath)
	if err != nil {
		return err
	}

	cfg := navconfig.SvoConfig{
		VoxelSize:    float32(*voxelSize),
		TileLayer:    uint8(*tileLayer),
		TilePoolSize: uint32(*tilePoolSize),
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "navd build: invalid config")
	}

	bounds, err := resolveBuildBounds(*boundsMin, *boundsMax, src.Triangles)
	if err != nil {
		return err
	}

	agent := navconfig.AgentShape{RadiusVoxels: float32(*agentRadius), HalfHeightVoxels: float32(*agentHalfHeight)}
	gen := generator.New(cfg, agent, src)
	editable := svo.NewEditable(cfg)

	logger, err := navlog.New(navlog.Options{})
	if err != nil {
		return errors.Wrap(err, "navd build: init logger")
	}
	defer logger.Sync()

	sched := scheduler.New(scheduler.Config{
		BoundsPadding:    agent.RadiusVoxels * cfg.VoxelSize,
		MaxTrisPerTask:   *maxTrisPerTask,
		MaxPendingTicks:  4,
		MaxTasksToSubmit: 64,
		MaxTimePerTick:   50 * time.Millisecond,
		MaxWorkers:       *maxWorkers,
	}, editable, gen, logger)

	sched.MarkDirtyTiles([]scheduler.DirtyArea{{Bounds: bounds, BoundsChanged: true, GeometryChanged: true}}, bounds, nil)

	start := time.Now()
	installed := 0
	for {
		r := sched.Tick(time.Now().Add(200 * time.Millisecond))
		installed += r.TilesInstalled
		if r.TasksSubmitted == 0 && r.TilesInstalled == 0 {
			if !sched.Busy() {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
	fmt.Printf("navd build: installed %d tiles in %v\n", installed, time.Since(start))

	if err := persist.Save(editable.SVO, *outPath); err != nil {
		return errors.Wrap(err, "navd build: save")
	}
	fmt.Printf("navd build: wrote %s\n", *outPath)
	return nil
}

// resolveBuildBounds parses explicit -bounds-min/-bounds-max flags, or
// falls back to the union of every triangle's own bounds.
func resolveBuildBounds(minStr, maxStr string, tris []geometry.Triangle) (geometry.AABB, error) {
	if minStr != "" && maxStr != "" {
		min, err := parseVector3(minStr)
		if err != nil {
			return geometry.AABB{}, errors.Wrap(err, "navd build: -bounds-min")
		}
		max, err := parseVector3(maxStr)
		if err != nil {
			return geometry.AABB{}, errors.Wrap(err, "navd build: -bounds-max")
		}
		return geometry.AABB{Min: min, Max: max}, nil
	}

	if len(tris) == 0 {
		return geometry.AABB{}, errors.New("navd build: no geometry to derive bounds from; pass -bounds-min/-bounds-max")
	}
	bounds := tris[0].Bounds()
	for _, t := range tris[1:] {
		bounds = bounds.Union(t.Bounds())
	}
	return bounds, nil
}

func parseVector3(s string) (geometry.Vector3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geometry.Vector3{}, errors.Errorf("expected \"x,y,z\", got %q", s)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return geometry.Vector3{}, errors.Wrapf(err, "component %d", i)
		}
		vals[i] = v
	}
	return geometry.Vector3{X: float32(vals[0]), Y: float32(vals[1]), Z: float32(vals[2])}, nil
}
