package voxelgrid

import (
	"math"

	"github.com/GunfireGames/Gunfire3DNavigation/morton"
)

// StencilOffset is one precomputed padding step: Dilate passes DX/DY/DZ to
// morton.AddOffset; Code holds the same step as a Morton delta
// (AddOffset applied to code 0) and is not read by Dilate.
type StencilOffset struct {
	DX, DY, DZ int32
	Code       morton.Code
}

// BuildStencil precomputes every integer offset within an XY-radius by
// Z-half-height ellipsoid, each as a ready-to-add Morton delta, per §4.4
// step 6 ("padding offset codes"). radiusVoxels/halfHeightVoxels are in
// voxel units; the stencil is built once per generator config and reused
// for every dilation pass.
func BuildStencil(radiusVoxels, halfHeightVoxels float32) []StencilOffset {
	rx := int32(math.Ceil(float64(radiusVoxels)))
	rz := int32(math.Ceil(float64(halfHeightVoxels)))

	var out []StencilOffset
	for dz := -rz; dz <= rz; dz++ {
		zFrac := float32(dz) / maxf1(halfHeightVoxels)
		for dy := -rx; dy <= rx; dy++ {
			for dx := -rx; dx <= rx; dx++ {
				xFrac := float32(dx) / maxf1(radiusVoxels)
				yFrac := float32(dy) / maxf1(radiusVoxels)
				if xFrac*xFrac+yFrac*yFrac+zFrac*zFrac > 1 {
					continue
				}
				out = append(out, StencilOffset{DX: dx, DY: dy, DZ: dz, Code: morton.AddOffset(0, dx, dy, dz)})
			}
		}
	}
	return out
}

func maxf1(v float32) float32 {
	if v < 1 {
		return 1
	}
	return v
}

// Dilate expands src's blocked set by stencil into dst (src and dst must
// be distinct grids of equal Dim, per the generator's read-old/write-new
// pass so the stencil never reads voxels it just wrote). Each stencil step
// is applied to a blocked voxel's Morton code with morton.AddOffset and the
// step's per-axis deltas; only the result is decoded, for the range check.
func Dilate(src *Grid, dst *Grid, stencil []StencilOffset) {
	total := uint64(src.Dim) * uint64(src.Dim) * uint64(src.Dim)
	for blockedCode := uint64(0); blockedCode < total; blockedCode++ {
		word := src.words[blockedCode/64]
		if word == 0 {
			blockedCode += 63 - (blockedCode % 64)
			continue
		}
		if word&(1<<(blockedCode%64)) == 0 {
			continue
		}
		code := morton.Code(blockedCode)
		for _, off := range stencil {
			nc := morton.Decode(morton.AddOffset(code, off.DX, off.DY, off.DZ))
			if !morton.InRange(nc, src.Dim) {
				continue
			}
			dst.Set(nc)
		}
	}
}
