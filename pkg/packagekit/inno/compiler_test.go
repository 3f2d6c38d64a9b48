package inno

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// execRecorder stands in for exec.CommandContext. It records what
// would have run, and runs a shell snippet instead.
type execRecorder struct {
	script string
	argv0  string
	args   []string
}

func (r *execRecorder) execCC(ctx context.Context, argv0 string, args ...string) *exec.Cmd {
	r.argv0 = argv0
	r.args = args
	return exec.CommandContext(ctx, "/bin/sh", "-c", r.script) //nolint:forbidigo // Fine to use exec.CommandContext in test
}

func TestCompile(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}

	scriptPath := filepath.Join(t.TempDir(), "distutils.iss")

	var tests = []struct {
		name         string
		compilerPath string
		opts         []CompilerOpt
		argv0        string
		args         []string
	}{
		{
			name:         "gui compiler",
			compilerPath: `C:\Inno\Compil32.exe`,
			argv0:        `C:\Inno\Compil32.exe`,
			args:         []string{"/cc", scriptPath},
		},
		{
			name:         "console compiler",
			compilerPath: `C:\Inno\ISCC.exe`,
			argv0:        `C:\Inno\ISCC.exe`,
			args:         []string{scriptPath},
		},
		{
			name:         "docker",
			compilerPath: `C:\Inno\ISCC.exe`,
			opts:         []CompilerOpt{WithDocker("amake/innosetup")},
			argv0:        "docker",
			args: []string{
				"run",
				"--entrypoint", "",
				"-v", filepath.Dir(scriptPath) + ":" + filepath.Dir(scriptPath),
				"-w", filepath.Dir(scriptPath),
				"amake/innosetup",
				"wine",
				`C:\Inno\ISCC.exe`,
				scriptPath,
			},
		},
	}

	for _, tt := range tests {
		c, err := NewCompiler(tt.compilerPath, tt.opts...)
		require.NoError(t, err, tt.name)

		recorder := &execRecorder{script: "exit 0"}
		c.execCC = recorder.execCC

		require.NoError(t, c.Compile(context.TODO(), scriptPath), tt.name)
		require.Equal(t, tt.argv0, recorder.argv0, tt.name)
		require.Equal(t, tt.args, recorder.args, tt.name)
	}
}

func TestCompileFailure(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}

	c, err := NewCompiler(`C:\Inno\Compil32.exe`)
	require.NoError(t, err)

	c.execCC = (&execRecorder{script: "echo compiling; echo 'Error on line 12' >&2; exit 2"}).execCC

	err = c.Compile(context.TODO(), filepath.Join(t.TempDir(), "distutils.iss"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Error on line 12")
	require.Contains(t, err.Error(), "stdout=compiling")
}

func TestNewCompilerNoPath(t *testing.T) {
	t.Parallel()

	_, err := NewCompiler("")
	require.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	scriptDir := t.TempDir()
	scriptPath := filepath.Join(scriptDir, "distutils.iss")
	outDir := t.TempDir()

	var tests = []struct {
		name     string
		settings map[string]string
		out      string
	}{
		{
			name:     "defaults",
			settings: map[string]string{},
			out:      filepath.Join(scriptDir, "Output", "setup.exe"),
		},
		{
			name:     "absolute output dir",
			settings: map[string]string{"OutputDir": outDir, "OutputBaseFilename": "Demo-1.0-setup"},
			out:      filepath.Join(outDir, "Demo-1.0-setup.exe"),
		},
		{
			name:     "relative output dir",
			settings: map[string]string{"OutputDir": "installers"},
			out:      filepath.Join(scriptDir, "installers", "setup.exe"),
		},
	}

	for _, tt := range tests {
		require.Equal(t, tt.out, OutputPath(scriptPath, tt.settings), tt.name)
	}
}

func TestIsAbs(t *testing.T) {
	t.Parallel()

	require.True(t, isAbs(`C:\dist`))
	require.True(t, isAbs(`c:/dist`))
	require.False(t, isAbs(`dist`))
	require.False(t, isAbs(`C:`))
}
