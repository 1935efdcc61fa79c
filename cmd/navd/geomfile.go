package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/geomsource"
)

// convexJSON/geometryFile mirror the teacher main.go's
// AddGeometryRequest JSON shape, flattened into a single offline document
// instead of a stream of HTTP POSTs, since navd build reads geometry once
// up front rather than accumulating it interactively.
type convexJSON struct {
	Planes []geometry.Plane `json:"planes"`
	Min    geometry.Vector3 `json:"min"`
	Max    geometry.Vector3 `json:"max"`
}

type geometryFile struct {
	Triangles []geometry.Triangle `json:"triangles"`
	Blockers  []convexJSON        `json:"blockers,omitempty"`
	Inclusion []geometry.AABB     `json:"inclusion,omitempty"`
}

// loadGeometrySource reads a geometryFile from path and builds the
// in-memory geomsource.Static the generator gathers from.
func loadGeometrySource(path string) (*geomsource.Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "navd: read geometry file")
	}

	var doc geometryFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "navd: parse geometry file")
	}

	blockers := make([]geometry.Convex, 0, len(doc.Blockers))
	for _, b := range doc.Blockers {
		blockers = append(blockers, geometry.NewConvex(b.Planes, geometry.AABB{Min: b.Min, Max: b.Max}))
	}

	return geomsource.NewStatic(doc.Triangles, blockers, doc.Inclusion), nil
}
