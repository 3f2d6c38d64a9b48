package inno

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/innosetup/pkg/contexts/ctxlog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Compiler runs the Inno Setup compiler. Both compilers are
// supported: Compil32.exe (the gui, silenced with /cc) and ISCC.exe
// (the console one).
type Compiler struct {
	compilerPath string
	dockerImage  string // If in docker, what image?

	execCC func(context.Context, string, ...string) *exec.Cmd // Allows test overrides
}

type CompilerOpt func(*Compiler)

// WithDocker runs the compiler under wine, in the given docker
// image. The compiler path is then a path inside the image.
func WithDocker(image string) CompilerOpt {
	return func(c *Compiler) {
		c.dockerImage = image
	}
}

// WithExecCC replaces how the compiler is run.
func WithExecCC(execCC func(context.Context, string, ...string) *exec.Cmd) CompilerOpt {
	return func(c *Compiler) {
		c.execCC = execCC
	}
}

func NewCompiler(compilerPath string, opts ...CompilerOpt) (*Compiler, error) {
	if compilerPath == "" {
		return nil, errors.New("no compiler path")
	}

	c := &Compiler{
		compilerPath: compilerPath,

		execCC: exec.CommandContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Compile compiles the script at scriptPath. The compiler decides
// where the output goes, see OutputPath.
func (c *Compiler) Compile(ctx context.Context, scriptPath string) error {
	ctx, span := trace.StartSpan(ctx, "inno.Compile")
	defer span.End()

	_, err := c.execOut(ctx, filepath.Dir(scriptPath), c.compilerPath, c.args(scriptPath)...)
	return err
}

func (c *Compiler) args(scriptPath string) []string {
	if c.isConsoleCompiler() {
		return []string{scriptPath}
	}
	return []string{"/cc", scriptPath}
}

func (c *Compiler) isConsoleCompiler() bool {
	name := strings.ToLower(c.compilerPath[strings.LastIndexAny(c.compilerPath, `\/`)+1:])
	return name == "iscc.exe" || name == "iscc"
}

func (c *Compiler) execOut(ctx context.Context, workDir string, argv0 string, args ...string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	dockerArgs := []string{
		"run",
		"--entrypoint", "",
		"-v", fmt.Sprintf("%s:%s", workDir, workDir),
		"-w", workDir,
		c.dockerImage,
		"wine",
		argv0,
	}

	dockerArgs = append(dockerArgs, args...)

	if c.dockerImage != "" {
		argv0 = "docker"
		args = dockerArgs
	}

	cmd := c.execCC(ctx, argv0, args...)

	level.Debug(logger).Log(
		"msg", "execing",
		"cmd", strings.Join(cmd.Args, " "),
	)

	cmd.Dir = workDir
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.Stdout, cmd.Stderr = stdout, stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "run command %s %v\nstdout=%s\nstderr=%s", argv0, args, stdout, stderr)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// OutputPath returns where the compiler writes the installer, given
// the script's effective [Setup] settings. A relative OutputDir is
// relative to the script, as it is for the compiler.
func OutputPath(scriptPath string, settings map[string]string) string {
	scriptDir := filepath.Dir(scriptPath)

	outputDir := settings["OutputDir"]
	switch {
	case outputDir == "":
		outputDir = filepath.Join(scriptDir, "Output")
	case !isAbs(outputDir):
		outputDir = filepath.Join(scriptDir, outputDir)
	}

	base := settings["OutputBaseFilename"]
	if base == "" {
		base = "setup"
	}

	return filepath.Join(outputDir, base+".exe")
}

// isAbs is filepath.IsAbs, but also accepting windows drive paths
// on other platforms.
func isAbs(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	return len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/')
}
