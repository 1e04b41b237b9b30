// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads structures from public databases into the
// workspace: receptors from RCSB by PDB id, ligands from PubChem by CID or
// compound name. Failures are FetchErrors, fatal to the structure that
// depends on them.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/dockmate/internal/httputil"
	"github.com/pdiddy/dockmate/internal/workspace"
	"github.com/pdiddy/dockmate/pkg/types"
)

// Endpoint bases are vars so tests can point them at a local server.
var (
	rcsbBase        = "https://files.rcsb.org/download/"
	pubchemCIDBase  = "https://pubchem.ncbi.nlm.nih.gov/rest/pug/compound/cid/"
	pubchemNameBase = "https://pubchem.ncbi.nlm.nih.gov/rest/pug/compound/name/"
)

const sdfSuffix = "/record/SDF?record_type=3d"

var (
	pdbIDPattern = regexp.MustCompile(`^[0-9][A-Za-z0-9]{3}$`)
	cidPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Paths      []string
}

// Total returns the number of accessions processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any accession failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// PDB downloads a receptor structure from RCSB into the workspace raw
// directory. An existing file is not re-downloaded. The skipped return
// value indicates whether the download was skipped.
func PDB(ctx context.Context, client *http.Client, id string, ws *workspace.Workspace, cfg types.FetchConfig, w io.Writer) (path string, skipped bool, err error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if !pdbIDPattern.MatchString(id) {
		return "", false, &types.FetchError{Accession: id, Err: fmt.Errorf("not a valid PDB id")}
	}

	dest := filepath.Join(ws.RawDir(), id+".pdb")
	if _, statErr := os.Stat(dest); statErr == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", id)
		return dest, true, nil
	}

	fmt.Fprintf(w, "downloading: %s (rcsb)\n", id)
	if err := download(ctx, client, rcsbBase+id+".pdb", dest, cfg); err != nil {
		return "", false, &types.FetchError{Accession: id, Err: err}
	}
	return dest, false, nil
}

// SDF downloads a ligand structure from PubChem. A numeric accession is
// treated as a CID, anything else as a compound name. The 3D conformer
// record is requested since docking needs 3D coordinates.
func SDF(ctx context.Context, client *http.Client, compound string, ws *workspace.Workspace, cfg types.FetchConfig, w io.Writer) (path string, skipped bool, err error) {
	compound = strings.TrimSpace(compound)
	if compound == "" {
		return "", false, &types.FetchError{Accession: compound, Err: fmt.Errorf("empty compound accession")}
	}

	var src string
	if cidPattern.MatchString(compound) {
		src = pubchemCIDBase + compound + sdfSuffix
	} else {
		src = pubchemNameBase + url.PathEscape(compound) + sdfSuffix
	}

	dest := filepath.Join(ws.RawDir(), slug(compound)+".sdf")
	if _, statErr := os.Stat(dest); statErr == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", compound)
		return dest, true, nil
	}

	fmt.Fprintf(w, "downloading: %s (pubchem)\n", compound)
	if err := download(ctx, client, src, dest, cfg); err != nil {
		return "", false, &types.FetchError{Accession: compound, Err: err}
	}
	return dest, false, nil
}

// Batch fetches a receptor and a set of ligands, printing per-item status
// and continuing after individual failures.
func Batch(ctx context.Context, client *http.Client, receptor string, ligands []string, ws *workspace.Workspace, cfg types.FetchConfig, w io.Writer) BatchResult {
	var result BatchResult

	record := func(path string, skipped bool, err error, accession string) {
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed:  %s (%v)\n", accession, err)
			result.Failed++
		case skipped:
			result.Skipped++
			result.Paths = append(result.Paths, path)
		default:
			result.Downloaded++
			result.Paths = append(result.Paths, path)
		}
	}

	if receptor != "" {
		path, skipped, err := PDB(ctx, client, receptor, ws, cfg, w)
		record(path, skipped, err, receptor)
	}

	for i, lig := range ligands {
		if (i > 0 || receptor != "") && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		path, skipped, err := SDF(ctx, client, lig, ws, cfg, w)
		record(path, skipped, err, lig)
	}

	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// download fetches src to destPath via a temporary file renamed on
// success, so interrupted downloads never leave a partial artifact.
func download(ctx context.Context, client *http.Client, src, destPath string, cfg types.FetchConfig) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, src)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// slug normalizes a compound name for use as a file stem.
func slug(compound string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, compound)
}
