package inno

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kolide/innosetup/pkg/packaging"
	"github.com/stretchr/testify/require"
)

const testDistDir = `C:\build\dist`

func testBundleFiles() []packaging.BundleFile {
	return []packaging.BundleFile{
		{Path: `C:\build\dist\app.exe`, Role: packaging.RoleConsole},
		{Path: `C:\build\dist\gui.exe`, Role: packaging.RoleWindows},
		{Path: `C:\build\dist\svc.exe`, Role: packaging.RoleService, CmdlineStyle: packaging.CmdlineStylePy2exe},
		{Path: `C:\build\dist\svc2.exe`, Role: packaging.RoleService, CmdlineStyle: packaging.CmdlineStylePywin32},
		{Path: `C:\build\dist\comsrv.exe`, Role: packaging.RoleComServer},
		{Path: `C:\build\dist\com.dll`, Role: packaging.RoleComServer},
		{Path: `C:\Windows\msvcr90.dll`, Role: packaging.RoleRedistributable},
		{Path: `C:\build\dist\lib\library.zip`, Role: packaging.RoleLibrary},
		{Path: `C:\build\dist\data\readme.txt`, Role: packaging.RoleLibrary},
		{Path: `C:\build\dist\app.exe`, Role: packaging.RoleLibrary},
		{Path: `C:\build\dist\lib\tcl`, Role: packaging.RoleDirectory, IsDir: true},
	}
}

func TestFilesSection(t *testing.T) {
	t.Parallel()

	m := NewMerger(WithDistDir(testDistDir), WithFiles(testBundleFiles()...))

	template := "[Files]\n" +
		`Source: "lib\library.zip"; DestDir: "{app}\lib"; Flags: ignoreversion` + "\n"

	script, _ := mergeScript(t, m, template)

	expected := []string{
		`Source: "app.exe"; DestDir: "{app}\"; Flags: ignoreversion overwritereadonly uninsremovereadonly restartreplace uninsrestartdelete`,
		`Source: "gui.exe"; DestDir: "{app}\"; Flags: ignoreversion overwritereadonly uninsremovereadonly restartreplace uninsrestartdelete`,
		`Source: "svc.exe"; DestDir: "{app}\"; Flags: ignoreversion overwritereadonly uninsremovereadonly restartreplace uninsrestartdelete; BeforeInstall: "ExecIfExists('{app}\svc.exe', '-remove')"`,
		`Source: "svc2.exe"; DestDir: "{app}\"; Flags: ignoreversion overwritereadonly uninsremovereadonly restartreplace uninsrestartdelete; BeforeInstall: "UnregisterPywin32Service('{app}\svc2.exe')"`,
		`Source: "comsrv.exe"; DestDir: "{app}\"; Flags: ignoreversion overwritereadonly uninsremovereadonly restartreplace uninsrestartdelete; BeforeInstall: "ExecIfExists('{app}\comsrv.exe', '/unregister')"`,
		`Source: "com.dll"; DestDir: "{app}\"; Flags: ignoreversion overwritereadonly uninsremovereadonly restartreplace uninsrestartdelete regserver; BeforeInstall: "UnregisterServerIfExists('{app}\com.dll')"`,
		`Source: "C:\Windows\msvcr90.dll"; DestDir: "{app}\"; Flags: ignoreversion overwritereadonly uninsremovereadonly restartreplace uninsrestartdelete`,
		`Source: "data\readme.txt"; DestDir: "{app}\data"; Flags: ignoreversion overwritereadonly uninsremovereadonly`,
		`Source: "lib\tcl\*"; DestDir: "{app}\lib\tcl"; Flags: ignoreversion overwritereadonly uninsremovereadonly recursesubdirs createallsubdirs`,
		`Source: "lib\library.zip"; DestDir: "{app}\lib"; Flags: ignoreversion`,
		"",
	}

	require.Equal(t, expected, script.Section("Files").Lines)
}

func TestRunSections(t *testing.T) {
	t.Parallel()

	m := NewMerger(WithDistDir(testDistDir), WithFiles(testBundleFiles()...))

	// The template already handles svc2.exe itself
	template := "[Run]\n" +
		`Filename: "{app}\svc2.exe"; Parameters: "custom"` + "\n" +
		"[UninstallRun]\n"

	script, _ := mergeScript(t, m, template)

	require.Equal(t, []string{
		`Filename: "{app}\svc2.exe"; Parameters: "custom"`,
		`Filename: "{app}\comsrv.exe"; Parameters: "/register"; WorkingDir: "{app}"; Flags: runhidden; StatusMsg: "Registering comsrv.exe..."`,
		`Filename: "{app}\svc.exe"; Parameters: "-install -auto"; WorkingDir: "{app}"; Flags: runhidden; StatusMsg: "Registering svc.exe..."`,
		"",
	}, script.Section("Run").Lines)

	require.Equal(t, []string{
		`Filename: "{app}\comsrv.exe"; Parameters: "/unregister"; WorkingDir: "{app}"; Flags: runhidden; StatusMsg: "Unregistering comsrv.exe..."`,
		`Filename: "{app}\svc.exe"; Parameters: "-remove"; WorkingDir: "{app}"; Flags: runhidden; StatusMsg: "Unregistering svc.exe..."`,
		`Filename: "{app}\svc2.exe"; Parameters: "stop"; WorkingDir: "{app}"; Flags: runhidden; StatusMsg: "Stopping svc2.exe..."`,
		`Filename: "{app}\svc2.exe"; Parameters: "remove"; WorkingDir: "{app}"; Flags: runhidden; StatusMsg: "Unregistering svc2.exe..."`,
		"",
	}, script.Section("UninstallRun").Lines)
}

func TestRunSectionPywin32(t *testing.T) {
	t.Parallel()

	m := NewMerger(WithDistDir(testDistDir), WithFiles(
		packaging.BundleFile{Path: `C:\build\dist\svc2.exe`, Role: packaging.RoleService, CmdlineStyle: packaging.CmdlineStylePywin32},
	))

	script, _ := mergeScript(t, m, "")

	require.Equal(t, []string{
		`Filename: "{app}\svc2.exe"; Parameters: "--startup auto install"; WorkingDir: "{app}"; Flags: runhidden; StatusMsg: "Registering svc2.exe..."`,
		`Filename: "{app}\svc2.exe"; Parameters: "start"; WorkingDir: "{app}"; Flags: runhidden; StatusMsg: "Starting svc2.exe..."`,
		"",
	}, script.Section("Run").Lines)
}

func TestIconsSection(t *testing.T) {
	t.Parallel()

	files := []packaging.BundleFile{
		{Path: `C:\build\dist\gui.exe`, Role: packaging.RoleWindows},
		{Path: `C:\build\dist\tray.exe`, Role: packaging.RoleWindows},
		{Path: `C:\build\dist\app.exe`, Role: packaging.RoleConsole},
	}

	var tests = []struct {
		name  string
		opts  []MergerOpt
		files []packaging.BundleFile
		out   []string
	}{
		{
			name:  "no windowed executables",
			files: files[2:],
			out:   []string{""},
		},
		{
			name:  "windowed",
			files: files,
			out: []string{
				`Name: "{group}\Demo"; Filename: "{app}\gui.exe"`,
				`Name: "{group}\Demo"; Filename: "{app}\tray.exe"`,
				`Name: "{group}\Uninstall Demo"; Filename: "{uninstallexe}"`,
				"",
			},
		},
		{
			name:  "startup",
			opts:  []MergerOpt{WithStartupShortcut()},
			files: files,
			out: []string{
				`Name: "{group}\Demo"; Filename: "{app}\gui.exe"`,
				`Name: "{group}\Demo"; Filename: "{app}\tray.exe"`,
				`Name: "{group}\Uninstall Demo"; Filename: "{uninstallexe}"`,
				`Name: "{commonstartup}\Demo"; Filename: "{app}\gui.exe"`,
				"",
			},
		},
	}

	for _, tt := range tests {
		opts := append([]MergerOpt{
			WithMetadata(packaging.Metadata{"name": "Demo"}),
			WithDistDir(testDistDir),
			WithFiles(tt.files...),
		}, tt.opts...)

		script, _ := mergeScript(t, NewMerger(opts...), "")
		require.Equal(t, tt.out, script.Section("Icons").Lines, tt.name)
	}
}

func TestLanguagesSection(t *testing.T) {
	t.Parallel()

	compilerDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(compilerDir, "Languages"), 0755))
	for _, f := range []string{
		"Default.isl",
		"Compil32.exe",
		filepath.Join("Languages", "German.isl"),
		filepath.Join("Languages", "BrazilianPortuguese.isl"),
		filepath.Join("Languages", "notes.txt"),
	} {
		require.NoError(t, os.WriteFile(filepath.Join(compilerDir, f), []byte("test"), 0644))
	}

	discovered := []string{
		`Name: "Default"; MessagesFile: "compiler:Default.isl"`,
		`Name: "BrazilianPortuguese"; MessagesFile: "compiler:Languages\BrazilianPortuguese.isl"`,
		`Name: "German"; MessagesFile: "compiler:Languages\German.isl"`,
	}

	var tests = []struct {
		name     string
		template string
		out      []string
	}{
		{
			name:     "missing section",
			template: "",
			out:      append(append([]string{}, discovered...), ""),
		},
		{
			name:     "only comments",
			template: "[Languages]\n; none yet\n",
			out:      append(append([]string{"; none yet"}, discovered...), ""),
		},
		{
			name:     "user languages",
			template: "[Languages]\n" + `Name: "en"; MessagesFile: "compiler:Default.isl"` + "\n",
			out:      []string{`Name: "en"; MessagesFile: "compiler:Default.isl"`, ""},
		},
	}

	for _, tt := range tests {
		m := NewMerger(WithCompilerDir(compilerDir))
		script, _ := mergeScript(t, m, tt.template)
		require.Equal(t, tt.out, script.Section("Languages").Lines, tt.name)
	}
}

func TestLanguagesSectionNoCompiler(t *testing.T) {
	t.Parallel()

	script, _ := mergeScript(t, NewMerger(), "")
	require.False(t, hasEntries(script.Section("Languages").Lines))
}

func TestCodeSection(t *testing.T) {
	t.Parallel()

	script, out := mergeScript(t, NewMerger(), "[Code]\n// mine\n")

	code := script.Section("Code").Lines
	require.Equal(t, "// mine", code[0])
	require.Contains(t, code, "procedure ExecIfExists(const FileName, Arg: String);")
	require.Contains(t, code, "procedure UnregisterPywin32Service(const FileName: String);")
	require.Contains(t, code, "procedure UnregisterServerIfExists(const FileName: String);")
	require.Contains(t, out, "UnregisterServer(False, FileName, False)")

	_, out = mergeScript(t, NewMerger(As64bit()), "")
	require.Contains(t, out, "UnregisterServer(True, FileName, False)")
	require.False(t, strings.Contains(out, "{{"), "template fully rendered")
}
