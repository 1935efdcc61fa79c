package main

import (
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/navquery"
	"github.com/GunfireGames/Gunfire3DNavigation/persist"
)

// runQuery implements the offline equivalent of examples/query_nav: load a
// saved nav-data file and run a single FindPath against it.
func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	navPath := fs.String("nav", "", "path to a saved nav-data file (required)")
	startStr := fs.String("start", "", "start position, \"x,y,z\" (required)")
	goalStr := fs.String("goal", "", "goal position, \"x,y,z\" (required)")
	maxNodes := fs.Uint("max-search-nodes", 4096, "search node budget")
	heuristicScale := fs.Float64("heuristic-scale", 1, "A* heuristic scale")
	baseCost := fs.Float64("base-cost", 1, "base per-node traversal cost")
	extent := fs.Float64("extent", 5, "closest-node search extent, in world units")
	smooth := fs.Bool("smooth", true, "apply cleanup + greedy pull post-processing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *navPath == "" || *startStr == "" || *goalStr == "" {
		return errors.New("navd query: -nav, -start, and -goal are required")
	}

	start, err := parseVector3(*startStr)
	if err != nil {
		return errors.Wrap(err, "navd query: -start")
	}
	goal, err := parseVector3(*goalStr)
	if err != nil {
		return errors.Wrap(err, "navd query: -goal")
	}

	octree, err := persist.Load(*navPath)
	if err != nil {
		return errors.Wrap(err, "navd query: load")
	}

	ext := geometry.Vector3{X: float32(*extent), Y: float32(*extent), Z: float32(*extent)}
	startLink, _, ok := navquery.FindClosestNode(octree, start, ext)
	if !ok {
		return errors.New("navd query: no navigable node near start")
	}
	goalLink, _, ok := navquery.FindClosestNode(octree, goal, ext)
	if !ok {
		return errors.New("navd query: no navigable node near goal")
	}

	filter := navquery.Filter{}.WithDefaults(navconfig.QueryDefaults{
		MaxSearchNodes:    uint32(*maxNodes),
		HeuristicScale:    float32(*heuristicScale),
		BaseTraversalCost: float32(*baseCost),
	})

	result := navquery.FindPath(octree, startLink, goalLink, filter, 0, true)
	if !result.Status.Has(navquery.StatusSuccess) {
		fmt.Printf("navd query: no path found (status=%v, visited=%d)\n", result.Status, result.NumVisited)
		return nil
	}

	points := make([]geometry.Vector3, len(result.Points))
	for i, p := range result.Points {
		points[i] = p.Location
	}
	if *smooth {
		points = postprocessPoints(octree, points)
	}

	fmt.Printf("navd query: %d points, length=%.2f, cost=%.2f, visited=%d, status=%v\n",
		len(points), result.PathLength, result.PathCost, result.NumVisited, result.Status)
	for _, p := range points {
		fmt.Printf("  %.3f %.3f %.3f\n", p.X, p.Y, p.Z)
	}
	return nil
}
