// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"

	"github.com/pdiddy/dockmate/pkg/types"
)

// DefaultMargin is the safety margin, in ångströms, added to the ligand
// extent when checking that a box can enclose the ligand.
const DefaultMargin = 2.0

// ValidateBox rejects a search box before the engine ever runs: dimensions
// and search parameters must be positive, and each box side must be at
// least the ligand extent plus margin. A zero margin selects DefaultMargin.
func ValidateBox(box types.SearchBox, ligandExtent types.Vec3, margin float64) error {
	if margin <= 0 {
		margin = DefaultMargin
	}

	if box.Size.X <= 0 || box.Size.Y <= 0 || box.Size.Z <= 0 {
		return &types.InvalidSearchBoxError{
			Reason: fmt.Sprintf("size %s has a non-positive component", box.Size),
		}
	}
	if box.Exhaustiveness <= 0 {
		return &types.InvalidSearchBoxError{
			Reason: fmt.Sprintf("exhaustiveness %d is not positive", box.Exhaustiveness),
		}
	}
	if box.NumModes <= 0 {
		return &types.InvalidSearchBoxError{
			Reason: fmt.Sprintf("num_modes %d is not positive", box.NumModes),
		}
	}

	need := types.Vec3{X: ligandExtent.X + margin, Y: ligandExtent.Y + margin, Z: ligandExtent.Z + margin}
	if box.Size.X < need.X || box.Size.Y < need.Y || box.Size.Z < need.Z {
		return &types.InvalidSearchBoxError{
			Reason: fmt.Sprintf("size %s cannot enclose ligand extent %s plus %.1f margin",
				box.Size, ligandExtent, margin),
		}
	}
	return nil
}
