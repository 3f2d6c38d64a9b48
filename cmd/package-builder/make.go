package main

import (
	"context"
	"flag"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/innosetup/pkg/contexts/ctxlog"
	"github.com/kolide/innosetup/pkg/packagekit"
	"github.com/kolide/innosetup/pkg/packaging"
	"github.com/kolide/kit/env"
	"github.com/kballard/go-shellquote"
	"github.com/kolide/kit/logutil"
	"github.com/peterbourgon/ff/v3"
	"github.com/pkg/errors"
)

// projectOptions are the flags that may also be set in the
// [innosetup] section of setup.cfg. They share names with the keys.
var projectOptions = []string{
	"inno_setup_exe",
	"inno_script",
	"bundle_vcr",
	"zip",
	"regist_startup",
}

type innoFlags struct {
	flagset *flag.FlagSet

	debug           *bool
	buildCmd        *string
	manifest        *string
	setupCfg        *string
	projectDir      *string
	compiler        *string
	template        *string
	bundleRedist    *bool
	zip             *string
	registerStartup *bool
	dockerImage     *string
}

func newInnoFlags(mode string) *innoFlags {
	flagset := flag.NewFlagSet(mode, flag.ContinueOnError)
	flagset.String("config", "", "config file (optional)")

	return &innoFlags{
		flagset: flagset,
		debug: flagset.Bool(
			"debug",
			env.Bool("DEBUG", false),
			"enable debug logging",
		),
		buildCmd: flagset.String(
			"build_cmd",
			"",
			"bundler command to run before packaging (example: python setup.py py2exe)",
		),
		manifest: flagset.String(
			"manifest",
			"build/manifest.yaml",
			"the build manifest written by the bundler",
		),
		setupCfg: flagset.String(
			"setup_cfg",
			"setup.cfg",
			"the project's setup.cfg, for metadata and [innosetup] options",
		),
		projectDir: flagset.String(
			"project_dir",
			".",
			"where to look for the README and license files",
		),
		compiler: flagset.String(
			"inno_setup_exe",
			"",
			"path to Compil32.exe or ISCC.exe. Found in the registry if unset",
		),
		template: flagset.String(
			"inno_script",
			"",
			"script template to merge into. A path, or the script text",
		),
		bundleRedist: flagset.Bool(
			"bundle_vcr",
			true,
			"install the C runtime alongside the application",
		),
		zip: flagset.String(
			"zip",
			"false",
			"archive the installer. true, false, or the archive name",
		),
		registerStartup: flagset.Bool(
			"regist_startup",
			false,
			"start the first windowed executable at login",
		),
		dockerImage: flagset.String(
			"docker_image",
			env.String("DOCKER_IMAGE", ""),
			"run the compiler under wine in this docker image",
		),
	}
}

// parse parses the command line, then fills in any project option
// not already set from the [innosetup] section of setup.cfg.
func (f *innoFlags) parse(args []string) error {
	ffOpts := []ff.Option{
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("INNOSETUP"),
	}

	if err := ff.Parse(f.flagset, args, ffOpts...); err != nil {
		return err
	}

	pc, err := packaging.LoadProjectConfig(*f.setupCfg)
	if err != nil {
		return err
	}

	set := map[string]bool{}
	f.flagset.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})

	for _, name := range projectOptions {
		value, ok := pc.Options[name]
		if !ok || set[name] {
			continue
		}
		if err := f.flagset.Set(name, value); err != nil {
			return errors.Wrapf(err, "setup.cfg [innosetup] %s", name)
		}
	}

	return nil
}

// packageOptions converts the flags. The build command is split the
// way a posix shell would, so quoted arguments survive.
func (f *innoFlags) packageOptions() (*packagekit.PackageOptions, error) {
	buildCmd, err := shellquote.Split(*f.buildCmd)
	if err != nil {
		return nil, errors.Wrap(err, "parsing build_cmd")
	}

	return &packagekit.PackageOptions{
		BuildCmd:        buildCmd,
		Manifest:        *f.manifest,
		ProjectConfig:   *f.setupCfg,
		ProjectDir:      *f.projectDir,
		CompilerPath:    *f.compiler,
		Template:        *f.template,
		BundleRedist:    *f.bundleRedist,
		Zip:             *f.zip,
		RegisterStartup: *f.registerStartup,
		DockerImage:     *f.dockerImage,
	}, nil
}

func runMake(args []string) error {
	return runPackage("make", args, false)
}

func runScript(args []string) error {
	return runPackage("script", args, true)
}

func runPackage(mode string, args []string, scriptOnly bool) error {
	flags := newInnoFlags(mode)
	flags.flagset.Usage = usageFor(flags.flagset, "package-builder "+mode+" [flags]")
	if err := flags.parse(args); err != nil {
		return err
	}

	logger := logutil.NewCLILogger(*flags.debug)
	ctx := ctxlog.NewContext(context.Background(), logger)

	po, err := flags.packageOptions()
	if err != nil {
		return err
	}
	po.ScriptOnly = scriptOnly

	result, err := packagekit.PackageInno(ctx, po)
	if err != nil {
		logutil.Fatal(logger, "msg", "could not generate installer", "err", err)
	}

	level.Debug(logger).Log(
		"msg", "package generation complete",
		"script", result.Script,
		"installer", result.Installer,
	)

	if result.Artifact != "" {
		logger.Log("msg", "installer ready", "path", result.Artifact)
	}

	return nil
}
