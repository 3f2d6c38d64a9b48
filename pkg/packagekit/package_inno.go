package packagekit

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/innosetup/pkg/contexts/ctxlog"
	"github.com/kolide/innosetup/pkg/packagekit/inno"
	"github.com/kolide/innosetup/pkg/packaging"
	"github.com/kolide/innosetup/pkg/registry"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// ScriptFilename is the generated script's name, inside the dist
// dir.
const ScriptFilename = "distutils.iss"

// InnoResult is what PackageInno produced.
type InnoResult struct {
	Script    string // The generated script
	Installer string // The compiled installer. Empty if only the script was made
	Artifact  string // What to ship: the archive if zipped, otherwise the installer
}

// PackageInno builds an Inno Setup installer from a bundler's
// output. The steps are: run the bundler, load its manifest, resolve
// metadata, collect the files to install, merge the script, compile,
// and finally archive. Any failure stops the run. Nothing is cleaned
// up, the dist dir is left as is for inspection.
func PackageInno(ctx context.Context, po *PackageOptions) (*InnoResult, error) {
	ctx, span := trace.StartSpan(ctx, "packagekit.PackageInno")
	defer span.End()

	ctx = ctxlog.With(ctx, "component", "package-inno")
	logger := ctxlog.FromContext(ctx)

	if po.lookup == nil {
		po.lookup = registry.New()
	}
	if po.execCC == nil {
		po.execCC = exec.CommandContext
	}

	if len(po.BuildCmd) > 0 {
		if err := po.runBuildCmd(ctx); err != nil {
			return nil, errors.Wrap(err, "running build command")
		}
	}

	br, err := packaging.LoadBuildResult(po.Manifest)
	if err != nil {
		return nil, err
	}

	if err := br.Resolve(po.ProjectDir); err != nil {
		return nil, err
	}

	if err := isDirectory(br.DistDir); err != nil {
		return nil, err
	}

	pc, err := packaging.LoadProjectConfig(po.ProjectConfig)
	if err != nil {
		return nil, err
	}
	md := pc.Metadata.Merge(br.Metadata)

	level.Debug(logger).Log(
		"msg", "resolved metadata",
		"name", md.Get("name"),
		"version", md.Get("version"),
		"dist", br.DistDir,
	)

	files, err := packaging.Collect(ctx, br, packaging.CollectOptions{BundleRedist: po.BundleRedist})
	if err != nil {
		return nil, errors.Wrap(err, "collecting files")
	}

	// The compiler is needed before merging, as its directory is
	// where the language files are.
	compilerPath, err := inno.LocateCompiler(po.lookup, po.CompilerPath)
	if err != nil && !po.ScriptOnly {
		return nil, err
	}

	mergerOpts := []inno.MergerOpt{
		inno.WithMetadata(md),
		inno.WithSettings(packaging.Settings(md, br, packaging.SettingsOptions{ProjectDir: po.ProjectDir})),
		inno.WithConstants(packaging.Constants(md, br)),
		inno.WithFiles(files...),
		inno.WithDistDir(br.DistDir),
		inno.WithCompilerDir(inno.CompilerDir(compilerPath)),
	}
	if po.RegisterStartup {
		mergerOpts = append(mergerOpts, inno.WithStartupShortcut())
	}
	if br.Is64bit() {
		mergerOpts = append(mergerOpts, inno.As64bit())
	}

	template, err := inno.LoadTemplate(po.Template, filepath.Dir(br.DistDir))
	if err != nil {
		return nil, err
	}

	result := &InnoResult{
		Script: filepath.Join(br.DistDir, ScriptFilename),
	}

	merger := inno.NewMerger(mergerOpts...)
	if err := merger.WriteFile(ctx, template, result.Script); err != nil {
		return nil, errors.Wrap(err, "writing script")
	}

	level.Info(logger).Log("msg", "wrote script", "path", result.Script)

	if po.ScriptOnly {
		return result, nil
	}

	compilerOpts := []inno.CompilerOpt{inno.WithExecCC(po.execCC)}
	if po.DockerImage != "" {
		compilerOpts = append(compilerOpts, inno.WithDocker(po.DockerImage))
	}

	compiler, err := inno.NewCompiler(compilerPath, compilerOpts...)
	if err != nil {
		return nil, err
	}
	if err := compiler.Compile(ctx, result.Script); err != nil {
		return nil, errors.Wrap(err, "compiling script")
	}

	result.Installer = inno.OutputPath(result.Script, merger.Settings())
	result.Artifact = result.Installer

	if zip, zipName := ZipName(po.Zip); zip {
		archive, err := inno.Archive(ctx, result.Installer, zipName)
		if err != nil {
			return nil, errors.Wrap(err, "archiving installer")
		}
		result.Artifact = archive
	}

	level.Info(logger).Log("msg", "built installer", "path", result.Artifact)

	return result, nil
}

func (po *PackageOptions) runBuildCmd(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "packagekit.runBuildCmd")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	cmd := po.execCC(ctx, po.BuildCmd[0], po.BuildCmd[1:]...)

	level.Debug(logger).Log(
		"msg", "execing",
		"cmd", strings.Join(cmd.Args, " "),
	)

	cmd.Dir = po.ProjectDir
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.Stdout, cmd.Stderr = stdout, stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "run command %v\nstdout=%s\nstderr=%s", po.BuildCmd, stdout, stderr)
	}
	return nil
}
