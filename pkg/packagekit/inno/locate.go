package inno

import (
	"strings"

	"github.com/kolide/innosetup/pkg/registry"
	"github.com/pkg/errors"
)

// compileCommandKey is the shell verb Inno Setup registers for .iss
// files. Its default value is a command line, eg:
// "C:\Program Files\Inno Setup 5\Compil32.exe" /cc "%1"
const compileCommandKey = `HKCR\InnoSetupScriptFile\shell\compile\command\`

// installLocationKeys are the uninstaller entries, newest first.
var installLocationKeys = []string{
	`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\Inno Setup 6_is1\InstallLocation`,
	`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\Inno Setup 5_is1\InstallLocation`,
	`HKLM\SOFTWARE\Wow6432Node\Microsoft\Windows\CurrentVersion\Uninstall\Inno Setup 6_is1\InstallLocation`,
	`HKLM\SOFTWARE\Wow6432Node\Microsoft\Windows\CurrentVersion\Uninstall\Inno Setup 5_is1\InstallLocation`,
}

const guiCompiler = "Compil32.exe"

// LocateCompiler finds the Inno Setup compiler. An explicit
// override always wins. Otherwise, the registry is consulted: first
// the .iss compile verb, then the install location recorded by the
// uninstaller.
func LocateCompiler(lookup *registry.Lookup, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if command := lookup.Value(compileCommandKey, ""); command != "" {
		if exe := firstArg(command); exe != "" {
			return exe, nil
		}
	}

	if location := lookup.First(installLocationKeys, ""); location != "" {
		return strings.TrimRight(location, `\/`) + `\` + guiCompiler, nil
	}

	return "", errors.New("unable to find the Inno Setup compiler. Is it installed?")
}

// firstArg returns the executable of a command line, honoring a
// quoted first argument.
func firstArg(command string) string {
	command = strings.TrimSpace(command)

	if strings.HasPrefix(command, `"`) {
		exe, _, _ := strings.Cut(command[1:], `"`)
		return exe
	}

	if fields := strings.Fields(command); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// CompilerDir returns the directory holding the compiler. Either
// separator is accepted, as the path is a windows one even when we
// aren't.
func CompilerDir(compilerPath string) string {
	if i := strings.LastIndexAny(compilerPath, `\/`); i >= 0 {
		return compilerPath[:i]
	}
	return ""
}
