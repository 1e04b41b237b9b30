// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// StructureKind distinguishes the two sides of a docking run.
type StructureKind string

const (
	KindReceptor StructureKind = "receptor"
	KindLigand   StructureKind = "ligand"
)

// Structure identifies a raw molecular structure before preparation.
type Structure struct {
	// ID is a slug derived from the source file name or accession id
	// (e.g. "1hsg", "aspirin").
	ID string `json:"id" yaml:"id"`

	// Kind is receptor or ligand.
	Kind StructureKind `json:"kind" yaml:"kind"`

	// SourcePath is the local path to the raw input file.
	SourcePath string `json:"source_path" yaml:"source_path"`
}

// Vec3 is a 3D coordinate or extent in ångströms.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// String renders the vector in the compact form used by reports and logs.
func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// Less orders vectors lexicographically by (X, Y, Z). Used as the
// deterministic tie-break when two pockets share a score.
func (v Vec3) Less(o Vec3) bool {
	if v.X != o.X {
		return v.X < o.X
	}
	if v.Y != o.Y {
		return v.Y < o.Y
	}
	return v.Z < o.Z
}

// PreparedStructure is a structure after charge/type assignment, ready for
// the docking engine. PreparedPath is set only by the preparer and never
// mutated afterwards.
type PreparedStructure struct {
	Structure `yaml:",inline"`

	// PreparedPath is the PDBQT artifact written by preparation.
	PreparedPath string `json:"prepared_path" yaml:"prepared_path"`

	// Center is the geometric center of mass of the prepared structure.
	// Computed lazily; nil until requested.
	Center *Vec3 `json:"center,omitempty" yaml:"center,omitempty"`

	// Extent is the axis-aligned bounding size of the prepared structure.
	// Computed lazily; nil until requested.
	Extent *Vec3 `json:"extent,omitempty" yaml:"extent,omitempty"`
}

// Pocket is one candidate binding site from a detection run. Rank is
// 1-based, unique within the run, and assigned once after sorting by
// descending score; it is never reassigned.
type Pocket struct {
	Rank   int     `json:"rank" yaml:"rank"`
	Center Vec3    `json:"center" yaml:"center"`
	Score  float64 `json:"score" yaml:"score"`

	// Extent is the reported pocket size, when the detector provides one.
	Extent *Vec3 `json:"extent,omitempty" yaml:"extent,omitempty"`
}
