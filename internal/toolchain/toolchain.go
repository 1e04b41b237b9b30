// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolchain resolves and runs the external chemistry tools the
// pipeline depends on: Open Babel, the MGLTools preparation scripts,
// P2Rank, and AutoDock Vina. All invocations go through an executor seam
// so stage packages can be tested without the real binaries.
package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pdiddy/dockmate/pkg/types"
)

// Tool names one external binary in the chain.
type Tool string

const (
	ToolObabel    Tool = "obabel"
	ToolMGLPython Tool = "mgl-python"
	ToolPrank     Tool = "prank"
	ToolVina      Tool = "vina"
)

// Default binary names used for PATH lookup when no override is configured.
var defaultBins = map[Tool]string{
	ToolObabel:    "obabel",
	ToolMGLPython: "pythonsh",
	ToolPrank:     "prank",
	ToolVina:      "vina",
}

// Runner executes external tools. Stage packages depend on this interface
// and receive a mock in tests.
type Runner interface {
	// Run executes the tool with args in dir (empty dir = inherited cwd)
	// and returns combined stdout. A non-zero exit returns an error that
	// includes the tool's stderr.
	Run(ctx context.Context, dir string, tool Tool, args ...string) (string, error)

	// Script returns the configured MGLTools script path for the kind.
	Script(kind ScriptKind) string
}

// ScriptKind selects one of the AutoDockTools preparation scripts.
type ScriptKind string

const (
	ScriptPrepareReceptor ScriptKind = "prepare_receptor4.py"
	ScriptPrepareLigand   ScriptKind = "prepare_ligand4.py"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunOutput(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunOutput(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out, errb strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.String(), errb.String(), err
}

// Toolchain is the production Runner: resolved binary paths plus the two
// MGLTools script locations.
type Toolchain struct {
	bins    map[Tool]string
	scripts map[ScriptKind]string
	exec    executor
}

var defaultExec = &osExecutor{}

// Resolve locates every tool in cfg, preferring explicit overrides and
// falling back to PATH. Missing binaries are reported here, at
// construction, rather than at first use mid-session.
func Resolve(cfg types.ToolchainConfig) (*Toolchain, error) {
	return resolve(cfg, defaultExec)
}

func resolve(cfg types.ToolchainConfig, exec executor) (*Toolchain, error) {
	overrides := map[Tool]string{
		ToolObabel:    cfg.Obabel,
		ToolMGLPython: cfg.MGLPython,
		ToolPrank:     cfg.Prank,
		ToolVina:      cfg.Vina,
	}

	bins := make(map[Tool]string, len(defaultBins))
	var missing []string
	for tool, def := range defaultBins {
		name := overrides[tool]
		if name == "" {
			name = def
		}
		path, err := exec.LookPath(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		bins[tool] = path
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing external tools: %s", strings.Join(missing, ", "))
	}

	return &Toolchain{
		bins: bins,
		scripts: map[ScriptKind]string{
			ScriptPrepareReceptor: scriptPath(cfg.PrepareReceptorScript, ScriptPrepareReceptor),
			ScriptPrepareLigand:   scriptPath(cfg.PrepareLigandScript, ScriptPrepareLigand),
		},
		exec: exec,
	}, nil
}

// scriptPath falls back to the bare script name, which MGLTools resolves
// relative to its own site-packages when pythonsh is the interpreter.
func scriptPath(override string, kind ScriptKind) string {
	if override != "" {
		return override
	}
	return string(kind)
}

func (t *Toolchain) Script(kind ScriptKind) string {
	return t.scripts[kind]
}

func (t *Toolchain) Run(ctx context.Context, dir string, tool Tool, args ...string) (string, error) {
	bin, ok := t.bins[tool]
	if !ok {
		return "", fmt.Errorf("tool %s not resolved", tool)
	}

	stdout, stderr, err := t.exec.RunOutput(ctx, dir, bin, args...)
	if err != nil {
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = strings.TrimSpace(stdout)
		}
		if detail != "" {
			return stdout, fmt.Errorf("%s: %w: %s", tool, err, detail)
		}
		return stdout, fmt.Errorf("%s: %w", tool, err)
	}
	return stdout, nil
}
