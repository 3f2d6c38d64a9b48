package packaging

import (
	"os"
	"path/filepath"
	"strings"
)

// constantTemplates are the settings that are also exposed to the
// script as #define constants.
var constantTemplates = map[string]string{
	"AppName":         "%(name)s",
	"AppVerName":      "%(name)s %(version)s",
	"AppVersion":      "%(version)s",
	"AppCopyright":    "%(author)s",
	"AppContact":      "%(author_email)s",
	"AppComments":     "%(description)s",
	"AppPublisher":    "%(author)s",
	"AppPublisherURL": "%(url)s",
	"AppSupportURL":   "%(url)s",
}

// settingTemplates are the remaining [Setup] defaults.
var settingTemplates = map[string]string{
	"SolidCompression":   "yes",
	"DefaultGroupName":   "%(name)s",
	"DefaultDirName":     `{pf}\%(name)s`,
	"OutputBaseFilename": "%(name)s-%(version)s-setup",
}

var (
	infoBeforeCandidates = []string{"README", "README.txt"}
	licenseCandidates    = []string{"license.txt", "COPYING"}
)

// SettingsOptions carries what the resolver needs beyond metadata.
type SettingsOptions struct {
	// ProjectDir is searched for README and license files. Empty
	// means the working directory.
	ProjectDir string
}

// Settings returns the generated [Setup] defaults for a project.
// These are only defaults. Any of them the user's template sets will
// be dropped when the script is merged.
func Settings(md Metadata, br *BuildResult, opts SettingsOptions) map[string]string {
	settings := make(map[string]string, len(constantTemplates)+len(settingTemplates)+8)

	for k, v := range constantTemplates {
		settings[k] = Expand(v, md)
	}
	for k, v := range settingTemplates {
		settings[k] = Expand(v, md)
	}

	settings["VersionInfoVersion"] = md.Get("version")
	if v, err := formatVersion(md.Get("version")); err == nil {
		settings["VersionInfoVersion"] = v
	}

	settings["OutputDir"] = br.DistDir
	settings["AppId"] = AppID(md)

	if len(br.ServiceExeFiles) > 0 || len(br.ComServerFiles) > 0 {
		settings["PrivilegesRequired"] = "admin"
	}

	if f := firstExisting(opts.ProjectDir, infoBeforeCandidates); f != "" {
		settings["InfoBeforeFile"] = f
	}

	if f := firstExisting(opts.ProjectDir, licenseCandidates); f != "" {
		settings["LicenseFile"] = f
	}

	if isModernInterpreter(br.Interpreter.Version) {
		settings["MinVersion"] = "5.0,5.0"
	}

	if br.Is64bit() {
		settings["ArchitecturesAllowed"] = "x64"
		settings["ArchitecturesInstallIn64BitMode"] = "x64"
	}

	return settings
}

// Constants returns the #define constants written at the top of the
// script. Templates can reference them with ISPP, eg {#AppName}.
func Constants(md Metadata, br *BuildResult) map[string]string {
	consts := make(map[string]string, len(constantTemplates)+len(md)+4)

	for k, v := range constantTemplates {
		consts[k] = Expand(v, md)
	}

	if br.Interpreter.Version != "" {
		if dotted, compact, err := interpreterVersions(br.Interpreter.Version); err == nil {
			consts["PYTHON_VERSION"] = dotted
			consts["PYTHON_VER"] = compact
		}
	}
	if br.Interpreter.Prefix != "" {
		consts["PYTHON_DIR"] = br.Interpreter.Prefix
	}
	if br.Interpreter.DLL != "" {
		consts["PYTHON_DLL"] = br.Interpreter.DLL
	}

	for _, field := range MetadataFields {
		consts[strings.ToUpper(field)] = md.Get(field)
	}
	for k, v := range md {
		consts[strings.ToUpper(k)] = v
	}

	return consts
}

// firstExisting returns the absolute path of the first candidate
// that's a regular file in dir.
func firstExisting(dir string, candidates []string) string {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
