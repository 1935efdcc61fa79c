package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadGeometrySourceParsesTrianglesAndBlockers(t *testing.T) {
	doc := `{
		"triangles": [
			{"A": {"X": 0, "Y": 0, "Z": 0}, "B": {"X": 1, "Y": 0, "Z": 0}, "C": {"X": 0, "Y": 1, "Z": 0}}
		],
		"blockers": [
			{"planes": [{"Normal": {"X": 0, "Y": 0, "Z": 1}, "Offset": 1}], "min": {"X": -1, "Y": -1, "Z": -1}, "max": {"X": 1, "Y": 1, "Z": 1}}
		]
	}`
	path := filepath.Join(t.TempDir(), "geom.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	src, err := loadGeometrySource(path)
	require.NoError(t, err)
	require.Len(t, src.Triangles, 1)
	require.Len(t, src.Blockers, 1)
}

func TestLoadGeometrySourceRejectsMissingFile(t *testing.T) {
	_, err := loadGeometrySource(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
