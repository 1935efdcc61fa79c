// Package persist implements the versioned byte-stream serialization of
// spec §6: a custom-version header followed by the SvoConfig and the tile
// map. Grounded in the teacher's builder/serialize.go (Load/Save framed
// around a FileHeader, binary.Read/Write in little-endian, optional gzip
// via Compress/Decompress), generalized from the teacher's single fixed
// NAVIGATION_FILE_VERSION to the spec's three named custom versions with
// backward-compatible decoding.
package persist

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/internal/bitset"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

// Known custom versions (spec §6). CurrentVersion is written by Save;
// Load accepts any of them and upgrades in memory as it reads.
const (
	InitialVersion    uint32 = 9
	NodePropsChanged  uint32 = 10
	NodeLinkBaseAdded uint32 = 11

	CurrentVersion = NodeLinkBaseAdded
)

// guid stamps every serialized file, standing in for the teacher's 4-byte
// NAVIGATION_FILE_MAGIC widened to a full custom-version GUID per spec §6.
var guid = [16]byte{0x47, 0x75, 0x6e, 0x66, 0x69, 0x72, 0x65, 0x33, 0x44, 0x4e, 0x61, 0x76, 0x53, 0x56, 0x4f, 0x01}

type header struct {
	GUID    [16]byte
	Version uint32
}

// useGzip mirrors the teacher's package-level toggle (builder.useGzip /
// builder.UseGzip); every navd-produced file is gzip-framed unless a
// caller opts out for debugging.
var useGzip = true

// SetGzip toggles gzip framing for subsequent Save/Load calls.
func SetGzip(on bool) { useGzip = on }

// diskConfig is SvoConfig's on-disk layout: fixed-width fields only, no
// derived quantities (those are recomputed by Derive on load).
type diskConfig struct {
	Seed              geometry.Vector3
	VoxelSize         float32
	TileLayer         uint8
	TilePoolSize      uint32
	FixedTilePoolSize uint8
}

// Save writes s to filename, gzip-framed unless SetGzip(false) was called.
func Save(s *svo.SVO, filename string) error {
	buf := &bytes.Buffer{}
	if err := Write(buf, s); err != nil {
		return err
	}
	content := buf.Bytes()
	if useGzip {
		content = compress(content)
	}
	if err := os.WriteFile(filename, content, 0644); err != nil {
		return errors.Wrap(err, "persist: write file")
	}
	return nil
}

// Load reads an SVO previously written by Save (any known version).
func Load(filename string) (*svo.SVO, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "persist: read file")
	}
	if useGzip {
		content, err = decompress(content)
		if err != nil {
			return nil, err
		}
	}
	return Read(bytes.NewReader(content))
}

// Write serializes s at CurrentVersion to w.
func Write(w io.Writer, s *svo.SVO) error {
	hdr := header{GUID: guid, Version: CurrentVersion}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return errors.Wrap(err, "persist: write header")
	}

	dc := diskConfig{
		Seed:              s.Config.Seed,
		VoxelSize:         s.Config.VoxelSize,
		TileLayer:         s.Config.TileLayer,
		TilePoolSize:      s.Config.TilePoolSize,
		FixedTilePoolSize: boolToByte(s.Config.FixedTilePoolSize),
	}
	if err := binary.Write(w, binary.LittleEndian, dc); err != nil {
		return errors.Wrap(err, "persist: write config")
	}

	tiles := s.Tiles()
	if err := binary.Write(w, binary.LittleEndian, s.Config.TilePoolSize); err != nil { // maxTiles
		return errors.Wrap(err, "persist: write max tiles")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(tiles))); err != nil {
		return errors.Wrap(err, "persist: write tile count")
	}
	for id, t := range tiles {
		if err := writeTile(w, id, t); err != nil {
			return err
		}
	}
	return nil
}

func writeTile(w io.Writer, id uint32, t *tile.Tile) error {
	if err := binary.Write(w, binary.LittleEndian, id); err != nil {
		return errors.Wrap(err, "persist: write tile id")
	}
	if err := binary.Write(w, binary.LittleEndian, t.NodeInfo); err != nil {
		return errors.Wrap(err, "persist: write tile root node")
	}
	if err := binary.Write(w, binary.LittleEndian, t.Coord); err != nil {
		return errors.Wrap(err, "persist: write tile coord")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(t.Pool))); err != nil {
		return errors.Wrap(err, "persist: write pool count")
	}
	if len(t.Pool) > 0 {
		if err := binary.Write(w, binary.LittleEndian, t.Pool); err != nil {
			return errors.Wrap(err, "persist: write pool")
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(t.Layers))); err != nil {
		return errors.Wrap(err, "persist: write layer count")
	}
	if len(t.Layers) > 0 {
		if err := binary.Write(w, binary.LittleEndian, t.Layers); err != nil {
			return errors.Wrap(err, "persist: write layers")
		}
	}
	return nil
}

// Read deserializes an SVO from r, translating older known versions
// forward as it goes (spec §6).
func Read(r io.Reader) (*svo.SVO, error) {
	var hdr header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "persist: read header")
	}
	if hdr.GUID != guid {
		return nil, errors.New("persist: not a Gunfire3DNavigation file (GUID mismatch)")
	}
	switch hdr.Version {
	case InitialVersion, NodePropsChanged, NodeLinkBaseAdded:
	default:
		return nil, errors.Errorf("persist: unsupported version %d", hdr.Version)
	}

	var dc diskConfig
	if err := binary.Read(r, binary.LittleEndian, &dc); err != nil {
		return nil, errors.Wrap(err, "persist: read config")
	}
	cfg := navconfig.SvoConfig{
		Seed:              dc.Seed,
		VoxelSize:         dc.VoxelSize,
		TileLayer:         dc.TileLayer,
		TilePoolSize:      dc.TilePoolSize,
		FixedTilePoolSize: dc.FixedTilePoolSize != 0,
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "persist: invalid config")
	}

	var maxTiles uint32
	if err := binary.Read(r, binary.LittleEndian, &maxTiles); err != nil {
		return nil, errors.Wrap(err, "persist: read max tiles")
	}
	var tileCount uint32
	if err := binary.Read(r, binary.LittleEndian, &tileCount); err != nil {
		return nil, errors.Wrap(err, "persist: read tile count")
	}

	result := svo.New(cfg)
	d := cfg.Derive()
	for i := uint32(0); i < tileCount; i++ {
		id, t, err := readTile(r, hdr.Version, cfg, d)
		if err != nil {
			return nil, err
		}
		result.Tiles()[id] = t
	}
	return result, nil
}

func readTile(r io.Reader, version uint32, cfg navconfig.SvoConfig, d navconfig.Derived) (uint32, *tile.Tile, error) {
	var id uint32
	if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
		return 0, nil, errors.Wrap(err, "persist: read tile id")
	}

	root, err := readNode(r, version)
	if err != nil {
		return 0, nil, err
	}

	var coord geometry.Vector3i
	if version >= NodeLinkBaseAdded {
		if err := binary.Read(r, binary.LittleEndian, &coord); err != nil {
			return 0, nil, errors.Wrap(err, "persist: read tile coord")
		}
	} else {
		// Pre-v11 files stored the tile's world-space min corner instead
		// of its integer coord; derive coord by rounding location/tileEdge
		// to the nearest integer, which for a min corner on the tile
		// lattice is the coord SVO.TileCoord gives
		// (spec §6: "coord ... else derivable from a stored location").
		var location geometry.Vector3
		if err := binary.Read(r, binary.LittleEndian, &location); err != nil {
			return 0, nil, errors.Wrap(err, "persist: read tile location")
		}
		coord = coordFromLocation(cfg, d, location)
	}

	var poolCount uint32
	if err := binary.Read(r, binary.LittleEndian, &poolCount); err != nil {
		return 0, nil, errors.Wrap(err, "persist: read pool count")
	}
	pool := make([]navnode.Node, poolCount)
	for i := range pool {
		n, err := readNode(r, version)
		if err != nil {
			return 0, nil, err
		}
		pool[i] = n
	}

	var layerCount uint32
	if err := binary.Read(r, binary.LittleEndian, &layerCount); err != nil {
		return 0, nil, errors.Wrap(err, "persist: read layer count")
	}
	layers := make([]tile.Layer, layerCount)
	if layerCount > 0 {
		if err := binary.Read(r, binary.LittleEndian, layers); err != nil {
			return 0, nil, errors.Wrap(err, "persist: read layers")
		}
	}

	return id, &tile.Tile{ID: id, Coord: coord, NodeInfo: root, Pool: pool, Layers: layers}, nil
}

func coordFromLocation(cfg navconfig.SvoConfig, d navconfig.Derived, location geometry.Vector3) geometry.Vector3i {
	rel := location.Sub(cfg.Seed)
	round := func(v float32) int32 {
		q := v / d.TileEdge
		return int32(math.Floor(float64(q) + 0.5))
	}
	return geometry.Vector3i{X: round(rel.X), Y: round(rel.Y), Z: round(rel.Z)}
}

// legacyNode is the pre-NodeLinkBaseAdded on-disk node layout: neighbor
// slots were full 64-bit NodeLinks (tile ID + base) rather than tile-local
// 32-bit NodeLinkBases, and (before NodePropsChanged) the non-leaf
// state/tile-root flags lived in different tail bits.
type legacyNode struct {
	SelfLinkTileID uint32
	SelfLinkBase   uint32
	Neighbors      [6]uint64
	Tail           uint64
}

// readNode reads one node in the format named by version, translating it
// into the current in-memory navnode.Node layout.
func readNode(r io.Reader, version uint32) (navnode.Node, error) {
	if version >= NodeLinkBaseAdded {
		// binary.Read cannot set navnode.Node's unexported fields, so the
		// same 64-byte layout is read into an exported mirror first.
		var raw struct {
			SelfLink  navlink.NodeLink
			Neighbors [morton.FaceCount]navlink.NodeLinkBase
			_         [24]byte
			Tail      uint64
		}
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return navnode.Node{}, errors.Wrap(err, "persist: read node")
		}
		n := navnode.Node{SelfLink: raw.SelfLink, NeighborLinks: raw.Neighbors}
		n.SetVoxels(bitset.Fixed64(raw.Tail))
		return n, nil
	}

	var legacy legacyNode
	if err := binary.Read(r, binary.LittleEndian, &legacy); err != nil {
		return navnode.Node{}, errors.Wrap(err, "persist: read legacy node")
	}

	self := navlink.NodeLink{TileID: legacy.SelfLinkTileID, Base: navlink.NodeLinkBase(legacy.SelfLinkBase)}
	isLeaf := self.Layer() == 0

	var n navnode.Node
	if isLeaf {
		n = navnode.NewLeaf(self, bitset.Fixed64(legacy.Tail))
	} else if version >= NodePropsChanged {
		n = navnode.NewInner(self, false, navnode.Open)
		n.SetVoxels(bitset.Fixed64(legacy.Tail))
	} else {
		// InitialVersion: {nodeIsTile, nodeState} lived in tail bits 0 and
		// 1 rather than the current bit-62/shift-60 packing. That scheme
		// had no room for PartiallyBlocked, so a legacy "blocked" bit
		// upgrades to the current Blocked state rather than
		// PartiallyBlocked — conservative, since treating a blocked
		// legacy node as open would let searches walk through it.
		isTile := legacy.Tail&0x1 != 0
		state := navnode.Open
		if legacy.Tail&0x2 != 0 {
			state = navnode.Blocked
		}
		n = navnode.NewInner(self, isTile, state)
	}

	// The legacy neighbor slot carried a full NodeLink; the target tile ID
	// is dropped since NodeLinkBase never carries one (the cross-tile
	// userData/face scheme reconstructs it on the next finalize pass).
	for i, raw := range legacy.Neighbors {
		n.SetNeighbor(morton.Face(i), navlink.NodeLinkBase(uint32(raw)))
	}
	return n, nil
}

func compress(content []byte) []byte {
	buf := &bytes.Buffer{}
	gw := gzip.NewWriter(buf)
	_, _ = gw.Write(content)
	_ = gw.Close()
	return buf.Bytes()
}

func decompress(content []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrap(err, "persist: gzip reader")
	}
	defer gr.Close()
	out, err := io.ReadAll(gr)
	if err != nil {
		return nil, errors.Wrap(err, "persist: gzip decompress")
	}
	return out, nil
}

func boolToByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
