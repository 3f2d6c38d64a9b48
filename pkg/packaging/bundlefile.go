package packaging

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BundleFile is a single thing to install: a file, or a directory
// to include recursively.
type BundleFile struct {
	Path  string
	Role  Role
	IsDir bool

	// CmdlineStyle is only meaningful for service executables. It
	// selects the arguments used to install, start, stop, and remove
	// the service.
	CmdlineStyle CmdlineStyle
}

// Role is why a file is in the bundle. Some roles need extra
// installer directives (registration, service control).
type Role string

const (
	RoleConsole         Role = "console"
	RoleWindows         Role = "windows"
	RoleService         Role = "service"
	RoleComServer       Role = "comserver"
	RoleLibrary         Role = "library"
	RoleRedistributable Role = "redistributable"
	RoleDirectory       Role = "directory"
)

// CmdlineStyle is the argument convention a service executable
// expects.
type CmdlineStyle string

const (
	CmdlineStylePy2exe  CmdlineStyle = "py2exe"  // -install -auto / -remove
	CmdlineStylePywin32 CmdlineStyle = "pywin32" // --startup auto install / start / stop / remove
)

func KnownCmdlineStyles() []string {
	return []string{
		string(CmdlineStylePy2exe),
		string(CmdlineStylePywin32),
	}
}

// CmdlineStyleFromString parses a command line style, case
// insensitively.
func CmdlineStyleFromString(s string) (CmdlineStyle, error) {
	for _, known := range KnownCmdlineStyles() {
		if strings.EqualFold(s, known) {
			return CmdlineStyle(known), nil
		}
	}
	return "", fmt.Errorf("unknown cmdline style %q", s)
}

// binaryExtensions are the files that may be in use during an
// upgrade, and thus need the restart-replace treatment.
var binaryExtensions = []string{".exe", ".dll", ".pyd"}

// IsBinary reports whether the file is an executable or library,
// judged by extension.
func (bf BundleFile) IsBinary() bool {
	if bf.IsDir {
		return false
	}
	ext := strings.ToLower(filepath.Ext(baseName(bf.Path)))
	for _, b := range binaryExtensions {
		if ext == b {
			return true
		}
	}
	return false
}

// IsExe reports whether the file is an executable, as opposed to a
// dll or data file.
func (bf BundleFile) IsExe() bool {
	return !bf.IsDir && strings.HasSuffix(strings.ToLower(bf.Path), ".exe")
}

// Basename returns the file's name, regardless of which separator
// the path uses.
func (bf BundleFile) Basename() string {
	return baseName(bf.Path)
}

// windowsPath converts forward slashes to backslashes. The bundler
// may have run under a posix path scheme, but the installer script
// is always windows.
func windowsPath(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

func baseName(p string) string {
	p = windowsPath(p)
	if i := strings.LastIndex(p, `\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// RelativeTo returns the bundle file's path relative to dir, in
// windows form. Paths outside dir are returned whole.
func (bf BundleFile) RelativeTo(dir string) string {
	return Chop(bf.Path, dir)
}

// Chop strips dir from the front of filename, if it's there. Both
// are compared in windows form, and the result is too.
func Chop(filename, dir string) string {
	filename = windowsPath(filename)
	dir = windowsPath(dir)

	if dir == "" {
		return filename
	}
	if !strings.HasSuffix(dir, `\`) {
		dir += `\`
	}
	return strings.TrimPrefix(filename, dir)
}

// InDir reports whether filename lives under dir.
func InDir(filename, dir string) bool {
	return dir != "" && Chop(filename, dir) != windowsPath(filename)
}
