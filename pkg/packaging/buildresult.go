package packaging

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// BuildResult is the manifest the upstream bundler leaves behind. It
// describes what was built, and where. We only ever read it; how the
// files got there is not our concern.
type BuildResult struct {
	DistDir string `json:"dist_dir"`
	LibDir  string `json:"lib_dir,omitempty"`

	ConsoleExeFiles []string `json:"console_exe_files,omitempty"`
	WindowsExeFiles []string `json:"windows_exe_files,omitempty"`
	ServiceExeFiles []string `json:"service_exe_files,omitempty"`
	ComServerFiles  []string `json:"comserver_files,omitempty"`
	LibFiles        []string `json:"lib_files,omitempty"` // includes data files
	OtherDepends    []string `json:"other_depends,omitempty"`

	FileInfo map[string]FileInfo `json:"fileinfo,omitempty"`
	Modules  []string            `json:"modules,omitempty"`

	// BundleFiles is the bundler's bundling level. 3 means nothing is
	// bundled into the executables, 1 means everything, including the
	// interpreter dll.
	BundleFiles int    `json:"bundle_files,omitempty"`
	Arch        string `json:"arch,omitempty"`

	Interpreter Interpreter `json:"interpreter,omitempty"`
	Runtime     Runtime     `json:"runtime,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// FileInfo is per file auxiliary information recorded by the bundler.
type FileInfo struct {
	CmdlineStyle CmdlineStyle `json:"cmdline_style,omitempty"`
}

// Interpreter describes the interpreter the executables were built
// against.
type Interpreter struct {
	Version  string `json:"version,omitempty"`
	DLL      string `json:"dll,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Manifest string `json:"manifest,omitempty"` // the dll's embedded RT_MANIFEST resource
}

// Runtime describes the C runtime the interpreter links against.
type Runtime struct {
	DLL     string `json:"dll,omitempty"`     // eg: C:\Windows\WinSxS\...\msvcr90.dll
	Version string `json:"version,omitempty"` // eg: 90
}

const defaultBundleFiles = 3

// LoadBuildResult reads a yaml (or json) build manifest.
func LoadBuildResult(path string) (*BuildResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading build manifest %s", path)
	}

	var br BuildResult
	if err := yaml.Unmarshal(data, &br); err != nil {
		return nil, errors.Wrapf(err, "parsing build manifest %s", path)
	}

	if br.DistDir == "" {
		return nil, errors.Errorf("build manifest %s has no dist_dir", path)
	}

	if br.BundleFiles <= 0 {
		br.BundleFiles = defaultBundleFiles
	}

	return &br, nil
}

// Resolve makes every relative path in the manifest absolute, against
// base (the current directory if empty). Bundlers record paths
// relative to where they ran, and the script is written elsewhere.
// FileInfo is rekeyed to match.
func (br *BuildResult) Resolve(base string) error {
	var err error
	abs := func(p *string) {
		if err != nil || *p == "" || isAbsPath(*p) {
			return
		}
		*p, err = filepath.Abs(filepath.Join(base, *p))
	}

	for _, p := range []*string{&br.DistDir, &br.LibDir, &br.Interpreter.DLL, &br.Interpreter.Prefix, &br.Runtime.DLL} {
		abs(p)
	}

	for _, list := range [][]string{
		br.ConsoleExeFiles,
		br.WindowsExeFiles,
		br.ServiceExeFiles,
		br.ComServerFiles,
		br.LibFiles,
		br.OtherDepends,
	} {
		for i := range list {
			abs(&list[i])
		}
	}

	if len(br.FileInfo) > 0 {
		fileInfo := make(map[string]FileInfo, len(br.FileInfo))
		for path, info := range br.FileInfo {
			abs(&path)
			fileInfo[path] = info
		}
		br.FileInfo = fileInfo
	}

	return errors.Wrap(err, "resolving build manifest paths")
}

// isAbsPath is filepath.IsAbs, but also accepting windows drive and
// UNC paths on other platforms.
func isAbsPath(p string) bool {
	return filepath.IsAbs(p) || (len(p) >= 2 && p[1] == ':') || strings.HasPrefix(p, `\\`)
}

// CmdlineStyleFor returns the command line style recorded for a
// service executable, defaulting to the bundler's own style.
func (br *BuildResult) CmdlineStyleFor(path string) CmdlineStyle {
	if info, ok := br.FileInfo[path]; ok && info.CmdlineStyle != "" {
		return info.CmdlineStyle
	}
	return CmdlineStylePy2exe
}

// HasModule reports whether the named module was bundled. The match
// is case-insensitive, so Tkinter and tkinter are the same thing.
func (br *BuildResult) HasModule(name string) bool {
	for _, m := range br.Modules {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}

// Is64bit reports whether the build targets 64 bit windows.
func (br *BuildResult) Is64bit() bool {
	switch br.Arch {
	case "amd64", "x64", "AMD64", "x86_64":
		return true
	}
	return false
}
