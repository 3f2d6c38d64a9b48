package inno

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/innosetup/pkg/contexts/ctxlog"
	"github.com/kolide/innosetup/pkg/packaging"
	"github.com/pkg/errors"
)

// handlerFunc writes a section's body. lines are the template's
// lines for the section, nil if the section was missing.
type handlerFunc func(ctx context.Context, m *Merger, sw *scriptWriter, lines []string) error

// sectionHandlers is keyed by lowercased section name. Anything
// else is passed through.
var sectionHandlers = map[string]handlerFunc{
	"setup":        handleSetup,
	"files":        handleFiles,
	"run":          handleRun,
	"uninstallrun": handleUninstallRun,
	"languages":    handleLanguages,
	"icons":        handleIcons,
	"code":         handleCode,
}

var (
	defaultFlags    = []string{"ignoreversion", "overwritereadonly", "uninsremovereadonly"}
	defaultBinFlags = []string{"restartreplace", "uninsrestartdelete"}
	defaultDirFlags = []string{"recursesubdirs", "createallsubdirs"}
)

func handlePassthrough(_ context.Context, _ *Merger, sw *scriptWriter, lines []string) error {
	sw.lines(lines)
	return nil
}

var settingRegex = regexp.MustCompile(`^\s*(\w+)\s*=\s*(.*)`)

// handleSetup writes the template's settings, then whichever
// generated settings the template did not set.
func handleSetup(ctx context.Context, m *Merger, sw *scriptWriter, lines []string) error {
	logger := ctxlog.FromContext(ctx)

	generated := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		if v != "" {
			generated[k] = v
		}
	}

	user := make(map[string]string)

	for _, line := range lines {
		match := settingRegex.FindStringSubmatch(line)
		if match == nil {
			sw.line(line)
			continue
		}

		name, value := match[1], strings.TrimSpace(match[2])
		sw.line(name + "=" + value)

		// Setting names are case-insensitive. Keep ours, so the
		// effective settings can be looked up by them.
		canonical := name
		for k := range m.settings {
			if strings.EqualFold(k, name) {
				canonical = k
				delete(generated, k)
			}
		}

		user[canonical] = unquote(value)
	}

	if appID, ok := generated["AppId"]; ok {
		level.Info(logger).Log(
			"msg", "no AppId in [Setup]. Generated one from metadata",
			"appid", appID,
		)
		if !packaging.AppIDIsHashed(m.metadata) {
			level.Warn(logger).Log(
				"msg", "AppId is the bare project name. Set a url, or an author_email, to make it unique",
				"appid", appID,
			)
		}
	}

	for _, k := range sortedKeys(generated) {
		sw.line(settingLine(k, generated[k]))
	}

	m.effective = make(map[string]string, len(generated)+len(user))
	for k, v := range generated {
		m.effective[k] = v
	}
	for k, v := range user {
		m.effective[k] = v
	}

	return nil
}

// handleFiles writes a directive for each bundle file the template
// doesn't already mention, then the template's lines.
func handleFiles(ctx context.Context, m *Merger, sw *scriptWriter, lines []string) error {
	logger := ctxlog.FromContext(ctx)

	userText := strings.Join(lines, "")
	stored := make(map[string]bool, len(m.files))

	for _, bf := range m.files {
		relname := m.relative(bf)

		if strings.Contains(userText, relname) || stored[relname] {
			level.Debug(logger).Log("msg", "skipping file already in [Files]", "path", relname)
			continue
		}

		flags := append([]string{}, defaultFlags...)
		source := relname
		place := ""

		var beforeInstall string

		if bf.IsDir {
			if packaging.InDir(bf.Path, m.distDir) {
				place = relname
			}
			source = relname + `\*`
			flags = append(flags, defaultDirFlags...)
		} else {
			if bf.IsBinary() {
				flags = append(flags, defaultBinFlags...)
			}

			if packaging.InDir(bf.Path, m.distDir) {
				place = windowsDir(relname)
			}

			switch bf.Role {
			case packaging.RoleComServer:
				if bf.IsExe() {
					beforeInstall = fmt.Sprintf(`ExecIfExists('{app}\%s', '/unregister')`, relname)
				} else {
					flags = append(flags, "regserver")
					beforeInstall = fmt.Sprintf(`UnregisterServerIfExists('{app}\%s')`, relname)
				}
			case packaging.RoleService:
				switch cmdlineStyle(bf) {
				case packaging.CmdlineStylePy2exe:
					beforeInstall = fmt.Sprintf(`ExecIfExists('{app}\%s', '-remove')`, relname)
				case packaging.CmdlineStylePywin32:
					beforeInstall = fmt.Sprintf(`UnregisterPywin32Service('{app}\%s')`, relname)
				}
			}
		}

		d := Directive{
			{Key: "Source", Value: source},
			{Key: "DestDir", Value: `{app}\` + place},
			{Key: "Flags", Value: strings.Join(flags, " ")},
		}
		if beforeInstall != "" {
			d = append(d, Param{Key: "BeforeInstall", Value: beforeInstall})
		}

		sw.directive(d)
		stored[relname] = true
	}

	sw.lines(lines)
	return nil
}

// handleRun writes the template's lines, then registers com servers
// and installs and starts services.
func handleRun(_ context.Context, m *Merger, sw *scriptWriter, lines []string) error {
	sw.lines(lines)

	for _, bf := range m.binFiles(packaging.RoleComServer, lines) {
		if bf.IsExe() {
			sw.directive(runDirective(m.relative(bf), "/register", "Registering"))
		}
	}

	for _, bf := range m.binFiles(packaging.RoleService, lines) {
		relname := m.relative(bf)
		switch cmdlineStyle(bf) {
		case packaging.CmdlineStylePy2exe:
			sw.directive(runDirective(relname, "-install -auto", "Registering"))
		case packaging.CmdlineStylePywin32:
			sw.directive(runDirective(relname, "--startup auto install", "Registering"))
			sw.directive(runDirective(relname, "start", "Starting"))
		}
	}

	return nil
}

// handleUninstallRun is handleRun, backwards.
func handleUninstallRun(_ context.Context, m *Merger, sw *scriptWriter, lines []string) error {
	sw.lines(lines)

	for _, bf := range m.binFiles(packaging.RoleComServer, lines) {
		if bf.IsExe() {
			sw.directive(runDirective(m.relative(bf), "/unregister", "Unregistering"))
		}
	}

	for _, bf := range m.binFiles(packaging.RoleService, lines) {
		relname := m.relative(bf)
		switch cmdlineStyle(bf) {
		case packaging.CmdlineStylePy2exe:
			sw.directive(runDirective(relname, "-remove", "Unregistering"))
		case packaging.CmdlineStylePywin32:
			sw.directive(runDirective(relname, "stop", "Stopping"))
			sw.directive(runDirective(relname, "remove", "Unregistering"))
		}
	}

	return nil
}

func runDirective(relname, parameters, verb string) Directive {
	return Directive{
		{Key: "Filename", Value: `{app}\` + relname},
		{Key: "Parameters", Value: parameters},
		{Key: "WorkingDir", Value: "{app}"},
		{Key: "Flags", Value: "runhidden"},
		{Key: "StatusMsg", Value: fmt.Sprintf("%s %s...", verb, baseName(relname))},
	}
}

// handleIcons adds program group shortcuts for the windowed
// executables.
func handleIcons(_ context.Context, m *Merger, sw *scriptWriter, lines []string) error {
	sw.lines(lines)

	name := m.metadata.Get("name")

	for _, bf := range m.binFiles(packaging.RoleWindows, lines) {
		sw.directive(Directive{
			{Key: "Name", Value: `{group}\` + name},
			{Key: "Filename", Value: `{app}\` + m.relative(bf)},
		})
	}

	windowed := m.filesWithRole(packaging.RoleWindows)
	if len(windowed) == 0 {
		return nil
	}

	sw.directive(Directive{
		{Key: "Name", Value: `{group}\Uninstall ` + name},
		{Key: "Filename", Value: "{uninstallexe}"},
	})

	if m.registerStartup {
		sw.directive(Directive{
			{Key: "Name", Value: `{commonstartup}\` + name},
			{Key: "Filename", Value: `{app}\` + m.relative(windowed[0])},
		})
	}

	return nil
}

// handleLanguages leaves a template's languages alone. If there are
// none, every language file shipped with the compiler is added.
func handleLanguages(ctx context.Context, m *Merger, sw *scriptWriter, lines []string) error {
	sw.lines(lines)

	if hasEntries(lines) {
		return nil
	}

	if m.compilerDir == "" {
		level.Info(ctxlog.FromContext(ctx)).Log("msg", "no compiler dir, no languages to discover")
		return nil
	}

	err := filepath.WalkDir(m.compilerDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".isl") {
			return nil
		}

		base := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		sw.directive(Directive{
			{Key: "Name", Value: base},
			{Key: "MessagesFile", Value: "compiler:" + packaging.Chop(path, m.compilerDir)},
		})
		return nil
	})

	return errors.Wrapf(err, "discovering languages in %s", m.compilerDir)
}

// handleCode appends the helper procedures the generated hooks call.
func handleCode(_ context.Context, m *Merger, sw *scriptWriter, lines []string) error {
	sw.lines(lines)
	return renderHelperCode(sw, m.is64bit)
}

// binFiles returns the bundle files with role, skipping any the
// template already mentions.
func (m *Merger) binFiles(role packaging.Role, lines []string) []packaging.BundleFile {
	userText := strings.Join(lines, "")

	var found []packaging.BundleFile
	for _, bf := range m.filesWithRole(role) {
		if strings.Contains(userText, m.relative(bf)) {
			continue
		}
		found = append(found, bf)
	}
	return found
}

func (m *Merger) filesWithRole(role packaging.Role) []packaging.BundleFile {
	var found []packaging.BundleFile
	for _, bf := range m.files {
		if bf.Role == role {
			found = append(found, bf)
		}
	}
	return found
}

// hasEntries reports whether lines hold anything besides blanks and
// comments.
func hasEntries(lines []string) bool {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
			continue
		}
		return true
	}
	return false
}

func cmdlineStyle(bf packaging.BundleFile) packaging.CmdlineStyle {
	if bf.CmdlineStyle == "" {
		return packaging.CmdlineStylePy2exe
	}
	return bf.CmdlineStyle
}

func windowsDir(p string) string {
	if i := strings.LastIndex(p, `\`); i >= 0 {
		return p[:i]
	}
	return ""
}

func baseName(p string) string {
	return p[strings.LastIndex(p, `\`)+1:]
}
