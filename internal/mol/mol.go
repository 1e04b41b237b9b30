// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mol reads atomic coordinates from prepared PDBQT artifacts and
// derives the geometry the pipeline needs: center of mass for provenance
// records and bounding extent for search-box validation.
package mol

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/dockmate/pkg/types"
)

// PDB-family records keep coordinates in fixed columns: X in 31-38,
// Y in 39-46, Z in 47-54 (1-indexed, inclusive).
const (
	xStart, xEnd = 30, 38
	yStart, yEnd = 38, 46
	zStart, zEnd = 46, 54
)

// ReadCoords returns the coordinates of every ATOM/HETATM record in the
// first model of the file. Reading stops at ENDMDL so multi-model docking
// output yields the top-ranked pose only.
func ReadCoords(path string) ([]types.Vec3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var coords []types.Vec3
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "ENDMDL") {
			break
		}
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		v, err := parseCoords(line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		coords = append(coords, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("%s: no atom records", path)
	}
	return coords, nil
}

func parseCoords(line string) (types.Vec3, error) {
	if len(line) < zEnd {
		return types.Vec3{}, fmt.Errorf("truncated atom record: %q", line)
	}
	x, err1 := strconv.ParseFloat(strings.TrimSpace(line[xStart:xEnd]), 64)
	y, err2 := strconv.ParseFloat(strings.TrimSpace(line[yStart:yEnd]), 64)
	z, err3 := strconv.ParseFloat(strings.TrimSpace(line[zStart:zEnd]), 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return types.Vec3{}, fmt.Errorf("bad coordinates in atom record: %q", line)
	}
	return types.Vec3{X: x, Y: y, Z: z}, nil
}

// CenterOfMass returns the unweighted geometric center of the structure.
func CenterOfMass(path string) (types.Vec3, error) {
	coords, err := ReadCoords(path)
	if err != nil {
		return types.Vec3{}, err
	}
	var c types.Vec3
	for _, v := range coords {
		c.X += v.X
		c.Y += v.Y
		c.Z += v.Z
	}
	n := float64(len(coords))
	return types.Vec3{X: c.X / n, Y: c.Y / n, Z: c.Z / n}, nil
}

// Extent returns the axis-aligned bounding size (max − min per axis).
func Extent(path string) (types.Vec3, error) {
	coords, err := ReadCoords(path)
	if err != nil {
		return types.Vec3{}, err
	}
	min, max := coords[0], coords[0]
	for _, v := range coords[1:] {
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.Z < min.Z {
			min.Z = v.Z
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
		if v.Z > max.Z {
			max.Z = v.Z
		}
	}
	return types.Vec3{X: max.X - min.X, Y: max.Y - min.Y, Z: max.Z - min.Z}, nil
}

// Geometry fills ps.Center and ps.Extent if they have not been computed
// yet. Both derive from the same coordinate pass over the prepared file.
func Geometry(ps *types.PreparedStructure) error {
	if ps.Center != nil && ps.Extent != nil {
		return nil
	}
	coords, err := ReadCoords(ps.PreparedPath)
	if err != nil {
		return err
	}

	var c types.Vec3
	min, max := coords[0], coords[0]
	for _, v := range coords {
		c.X += v.X
		c.Y += v.Y
		c.Z += v.Z
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.Z < min.Z {
			min.Z = v.Z
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
		if v.Z > max.Z {
			max.Z = v.Z
		}
	}
	n := float64(len(coords))
	ps.Center = &types.Vec3{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
	ps.Extent = &types.Vec3{X: max.X - min.X, Y: max.Y - min.Y, Z: max.Z - min.Z}
	return nil
}
