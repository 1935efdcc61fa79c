package main

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/postprocess"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

// postprocessPoints applies the cleanup + greedy-pull passes any host would
// run before handing a path to a mover, matching what a real caller does
// with navquery.FindPath's raw portal-crossing points.
func postprocessPoints(o *svo.SVO, points []geometry.Vector3) []geometry.Vector3 {
	points = postprocess.Cleanup(points)
	return postprocess.GreedyPull(o, points)
}
