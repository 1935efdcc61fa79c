package svo

import "github.com/GunfireGames/Gunfire3DNavigation/morton"

// selfFace is the sentinel parent-face value meaning "the neighbor across
// this face is a sibling under the same parent", as opposed to a real face
// of the parent cube.
const selfFace = morton.FaceCount

// neighborEntry is one cell of the fixed 8x6 sibling/face resolution table
// described in §4.3: crossing face f from sibling s lands on sibling N,
// either still under the same parent (parentFace == selfFace) or across
// parentFace of the parent cube.
type neighborEntry struct {
	parentFace morton.Face
	sibling    uint8
}

// neighborTable[s][f] resolves crossing face f from sibling index s. It is
// filled once in init() from the bit-flip rule that falls out of the
// Morton sibling encoding (bit 0/1/2 of s is the node's X/Y/Z half within
// its parent): moving further into the half the node already occupies
// exits the parent across that axis' face; moving back crosses to the
// sibling with that axis bit flipped.
var neighborTable [8][int(morton.FaceCount)]neighborEntry

func init() {
	for s := uint8(0); s < 8; s++ {
		for f := morton.Face(0); f < morton.FaceCount; f++ {
			neighborTable[s][f] = resolveFaceRule(s, f)
		}
	}
}

func resolveFaceRule(s uint8, f morton.Face) neighborEntry {
	axis := uint8(f) % 3
	positive := uint8(f) < 3
	bit := uint8(1) << axis
	half := s&bit != 0

	switch {
	case positive && !half:
		return neighborEntry{parentFace: selfFace, sibling: s | bit}
	case positive && half:
		return neighborEntry{parentFace: f, sibling: s &^ bit}
	case !positive && half:
		return neighborEntry{parentFace: selfFace, sibling: s &^ bit}
	default: // !positive && !half
		return neighborEntry{parentFace: f, sibling: s | bit}
	}
}
