package packagekit

import (
	"context"
	"os/exec"
	"strconv"

	"github.com/kolide/innosetup/pkg/registry"
)

// PackageOptions is everything needed to go from a bundler's output
// to an installer.
type PackageOptions struct {
	BuildCmd      []string // Upstream bundler command, run first if set
	Manifest      string   // The bundler's build manifest (yaml or json)
	ProjectConfig string   // Path to the project's setup.cfg
	ProjectDir    string   // The bundler's working dir. README, license and relative manifest paths are found here

	CompilerPath    string // Compil32.exe or ISCC.exe. Found via the registry if empty
	Template        string // Script template. A path, or the script itself
	BundleRedist    bool   // Ship the C runtime (and mfc) with the application
	Zip             string // Archive the installer. A bool, or the archive name
	RegisterStartup bool   // Add a startup shortcut for the first windowed executable
	DockerImage     string // Run the compiler under wine in this image
	ScriptOnly      bool   // Stop once the script is written

	lookup *registry.Lookup                                   // Allows test overrides
	execCC func(context.Context, string, ...string) *exec.Cmd // Allows test overrides
}

// ZipName interprets the zip option. It is either a boolean, or the
// name of the archive to write. An empty name means the default.
func ZipName(zip string) (bool, string) {
	if zip == "" {
		return false, ""
	}

	if enabled, err := strconv.ParseBool(zip); err == nil {
		return enabled, ""
	}

	return true, zip
}
