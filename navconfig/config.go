// Package navconfig holds the SvoConfig value that parameterizes every
// other package's geometry and sizing math, plus the scheduler/query tuning
// defaults named in spec §6.
package navconfig

import (
	"github.com/pkg/errors"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
)

// SvoConfig fixes the coordinate system and resolution hierarchy of an
// SVO. It is immutable after construction; workers read it without
// synchronization (spec §5 "Shared config").
type SvoConfig struct {
	// Seed is the world-space origin all integer coords are measured from.
	Seed geometry.Vector3
	// VoxelSize is the edge length of a single voxel (V).
	VoxelSize float32
	// TileLayer is the tile layer index T, in [1,5].
	TileLayer uint8
	// TilePoolSize is the initial tile map capacity; a hard cap when
	// FixedTilePoolSize is set, otherwise the map grows as Go maps do, uncapped.
	TilePoolSize uint32
	FixedTilePoolSize bool
}

// Derived holds quantities computed once from an SvoConfig.
type Derived struct {
	LeafEdge       float32 // 4V
	TileEdge       float32 // 4V * 2^T
	NodesPerTile   uint32  // sum_{i=1..T} 8^i
	MinNavigableGap float32 // 3*voxelSize, per spec §6
}

// Validate checks the config against the constraints spec §3/§6 impose.
func (c SvoConfig) Validate() error {
	if c.VoxelSize <= 0 {
		return errors.New("navconfig: voxel size must be positive")
	}
	if c.TileLayer < 1 || c.TileLayer > 5 {
		return errors.Errorf("navconfig: tile layer %d out of range [1,5]", c.TileLayer)
	}
	if c.TilePoolSize == 0 {
		return errors.New("navconfig: tile pool size must be positive")
	}
	return nil
}

// Derive computes the quantities in Derived. Callers should call this once
// at construction and cache the result; it is cheap but not free enough to
// recompute on every query.
func (c SvoConfig) Derive() Derived {
	leafEdge := 4 * c.VoxelSize
	tileEdge := leafEdge * float32(uint32(1)<<c.TileLayer)
	var nodes uint32
	mul := uint32(8)
	for i := uint8(0); i < c.TileLayer; i++ {
		nodes += mul
		mul *= 8
	}
	return Derived{
		LeafEdge:        leafEdge,
		TileEdge:        tileEdge,
		NodesPerTile:    nodes,
		MinNavigableGap: 3 * c.VoxelSize,
	}
}

// Compatible reports whether two configs agree on the three fields that
// determine on-disk/in-memory tile layout compatibility: seed, voxel size,
// and tile layer. Mismatched pool sizing does not require a rebuild.
func (c SvoConfig) Compatible(o SvoConfig) bool {
	return c.Seed == o.Seed && c.VoxelSize == o.VoxelSize && c.TileLayer == o.TileLayer
}

// QueryDefaults are the default knobs for search queries (spec §6).
type QueryDefaults struct {
	MaxSearchNodes      uint32
	HeuristicScale       float32
	BaseTraversalCost   float32
}

// DefaultQueryDefaults mirrors typical Detour-style defaults: generous node
// budget, heuristic scale of 1 (admissible), and a unit traversal cost.
func DefaultQueryDefaults() QueryDefaults {
	return QueryDefaults{
		MaxSearchNodes:    4096,
		HeuristicScale:    1.0,
		BaseTraversalCost: 1.0,
	}
}

// AgentShape carries the padding dimensions the tile generator dilates by.
type AgentShape struct {
	RadiusVoxels     float32
	HalfHeightVoxels float32
}
