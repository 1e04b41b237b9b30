// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// The pipeline error taxonomy. Each stage wraps its underlying cause in a
// typed error so the orchestrator can route failures: receptor preparation
// and detection failures abort the session, ligand preparation failures
// abort that ligand's cells, docking and box failures abort one cell.
// Callers match with errors.As.

// PreparationError reports a failed structure preparation.
type PreparationError struct {
	StructureID string
	Kind        StructureKind
	Err         error
}

func (e *PreparationError) Error() string {
	return fmt.Sprintf("preparing %s %s: %v", e.Kind, e.StructureID, e.Err)
}

func (e *PreparationError) Unwrap() error { return e.Err }

// DetectionError reports a failed or empty pocket detection run.
type DetectionError struct {
	ReceptorID string
	Err        error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detecting pockets for %s: %v", e.ReceptorID, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// InvalidSearchBoxError reports a search box rejected before engine
// invocation: non-positive dimensions or parameters, or a box too small to
// enclose the ligand.
type InvalidSearchBoxError struct {
	Reason string
}

func (e *InvalidSearchBoxError) Error() string {
	return "invalid search box: " + e.Reason
}

// DockingError reports a failed engine invocation or unparseable output.
type DockingError struct {
	ReceptorID string
	LigandID   string
	Err        error
}

func (e *DockingError) Error() string {
	return fmt.Sprintf("docking %s against %s: %v", e.LigandID, e.ReceptorID, e.Err)
}

func (e *DockingError) Unwrap() error { return e.Err }

// FetchError reports a failed structure download. It is a fatal
// precondition failure for the structure that depends on it.
type FetchError struct {
	Accession string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Accession, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ArtifactCollisionError reports a duplicate result path within one
// session. The naming scheme makes this unreachable for distinct
// (receptor, ligand, pocket) triples; raising it indicates a programming
// error, not a recoverable condition.
type ArtifactCollisionError struct {
	Path string
}

func (e *ArtifactCollisionError) Error() string {
	return "result artifact collision: " + e.Path
}
