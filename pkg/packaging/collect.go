package packaging

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/kolide/innosetup/pkg/contexts/ctxlog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const legacyShellHelper = "w9xpopen.exe"

// CollectOptions controls which optional files end up in the bundle.
type CollectOptions struct {
	// BundleRedist includes the C runtime dll, its manifest, and any
	// mfc libraries next to the application.
	BundleRedist bool
}

// Collect merges every category of build output into one ordered,
// de-duplicated list of files to install. The order is: console,
// windowed and service executables, com servers, redistributables,
// then libraries and data files.
//
// Some files are dropped after the merge: the interpreter dll when
// the bundler already packed it into the executables, and the w9x
// shell helper when the interpreter can't run on w9x anyhow.
func Collect(ctx context.Context, br *BuildResult, opts CollectOptions) ([]BundleFile, error) {
	ctx, span := trace.StartSpan(ctx, "packaging.Collect")
	defer span.End()

	logger := log.With(ctxlog.FromContext(ctx), "component", "collect")

	type candidate struct {
		path string
		role Role
	}

	var candidates []candidate
	add := func(role Role, paths ...string) {
		for _, p := range paths {
			candidates = append(candidates, candidate{path: p, role: role})
		}
	}

	add(RoleConsole, br.ConsoleExeFiles...)
	add(RoleWindows, br.WindowsExeFiles...)
	add(RoleService, br.ServiceExeFiles...)
	add(RoleComServer, br.ComServerFiles...)

	if opts.BundleRedist {
		redist, err := Redistributables(ctx, br)
		if err != nil {
			return nil, errors.Wrap(err, "collecting redistributables")
		}
		add(RoleRedistributable, redist...)
	}

	add(RoleLibrary, br.LibFiles...)

	if br.HasModule("Tkinter") {
		add(RoleDirectory, filepath.Join(br.LibDir, "tcl"))
	}

	allPaths := make([]string, len(candidates))
	for i, c := range candidates {
		allPaths[i] = c.path
	}

	excludes := make(map[string]bool)

	// The bundler packed the interpreter into the executables, but
	// still lists the dll.
	if br.BundleFiles < 2 && br.Interpreter.DLL != "" {
		for _, f := range FindFiles(allPaths, baseName(br.Interpreter.DLL)) {
			excludes[f] = true
		}
	}

	if isModernInterpreter(br.Interpreter.Version) {
		for _, f := range FindFiles(allPaths, legacyShellHelper) {
			excludes[f] = true
		}
	}

	seen := make(map[string]bool, len(candidates))
	files := make([]BundleFile, 0, len(candidates))

	for _, c := range candidates {
		if excludes[c.path] {
			level.Debug(logger).Log("msg", "excluding file", "path", c.path)
			continue
		}

		if seen[c.path] {
			continue
		}
		seen[c.path] = true

		bf := BundleFile{
			Path:  c.path,
			Role:  c.role,
			IsDir: c.role == RoleDirectory,
		}

		if info, err := os.Stat(c.path); err == nil && info.IsDir() {
			bf.IsDir = true
		}

		if c.role == RoleService {
			bf.CmdlineStyle = br.CmdlineStyleFor(c.path)
		}

		files = append(files, bf)
	}

	level.Debug(logger).Log(
		"msg", "collected bundle files",
		"count", len(files),
		"excluded", len(excludes),
	)

	return files, nil
}
