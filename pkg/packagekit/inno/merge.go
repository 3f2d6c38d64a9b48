package inno

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/innosetup/pkg/contexts/ctxlog"
	"github.com/kolide/innosetup/pkg/packaging"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const headerComment = "; This file is generated by innosetup. Edits will be overwritten."

// requiredSections are added, in this order, when the template
// doesn't have them.
var requiredSections = []string{
	"Setup",
	"Files",
	"Run",
	"UninstallRun",
	"Languages",
	"Icons",
	"Code",
}

// Merger combines a user's script template with generated content.
type Merger struct {
	metadata        packaging.Metadata
	settings        map[string]string
	constants       map[string]string
	files           []packaging.BundleFile
	distDir         string
	compilerDir     string
	registerStartup bool
	is64bit         bool

	// effective is what [Setup] ended up with, once merged. The
	// compiler stage needs it to find the output.
	effective map[string]string
}

type MergerOpt func(*Merger)

func WithMetadata(md packaging.Metadata) MergerOpt {
	return func(m *Merger) {
		m.metadata = md
	}
}

// WithSettings sets the generated [Setup] defaults.
func WithSettings(settings map[string]string) MergerOpt {
	return func(m *Merger) {
		m.settings = settings
	}
}

// WithConstants sets the #define constants written before the
// first section.
func WithConstants(constants map[string]string) MergerOpt {
	return func(m *Merger) {
		m.constants = constants
	}
}

func WithFiles(files ...packaging.BundleFile) MergerOpt {
	return func(m *Merger) {
		m.files = append(m.files, files...)
	}
}

// WithDistDir sets the directory the script is written to. Files
// under it are referenced relatively, and keep their layout when
// installed.
func WithDistDir(dir string) MergerOpt {
	return func(m *Merger) {
		m.distDir = dir
	}
}

// WithCompilerDir sets where the compiler is installed. It's
// searched for language files when the template names none.
func WithCompilerDir(dir string) MergerOpt {
	return func(m *Merger) {
		m.compilerDir = dir
	}
}

// WithStartupShortcut adds a shortcut to the common startup folder.
func WithStartupShortcut() MergerOpt {
	return func(m *Merger) {
		m.registerStartup = true
	}
}

func As64bit() MergerOpt {
	return func(m *Merger) {
		m.is64bit = true
	}
}

func NewMerger(opts ...MergerOpt) *Merger {
	m := &Merger{
		metadata:  packaging.Metadata{},
		settings:  map[string]string{},
		constants: map[string]string{},
		effective: map[string]string{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Merge writes the merged script to w. The output is UTF-8, with a
// byte order mark, as that's how the compiler recognizes it.
func (m *Merger) Merge(ctx context.Context, template string, w io.Writer) error {
	ctx, span := trace.StartSpan(ctx, "inno.Merge")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	script := Parse(template)
	sw := &scriptWriter{}

	sw.line(headerComment)
	for _, k := range sortedKeys(m.constants) {
		sw.line(fmt.Sprintf("#define %s %s", k, quote(m.constants[k])))
	}
	sw.line("")

	if len(script.Preamble) > 0 {
		sw.lines(script.Preamble)
		sw.line("")
	}

	for _, section := range script.Sections {
		sw.line(section.Header)
		if err := m.handle(ctx, section.Name, sw, section.Lines); err != nil {
			return errors.Wrapf(err, "handling [%s]", section.Name)
		}
		sw.line("")
	}

	for _, name := range requiredSections {
		if script.Section(name) != nil {
			continue
		}

		level.Debug(logger).Log("msg", "adding missing section", "section", name)

		sw.line("[" + name + "]")
		if err := m.handle(ctx, name, sw, nil); err != nil {
			return errors.Wrapf(err, "handling [%s]", name)
		}
		sw.line("")
	}

	bomWriter := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	if _, err := bomWriter.Write(sw.Bytes()); err != nil {
		return errors.Wrap(err, "writing script")
	}
	return bomWriter.Close()
}

// WriteFile merges template into a script file at path.
func (m *Merger) WriteFile(ctx context.Context, template, path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer fh.Close()

	if err := m.Merge(ctx, template, fh); err != nil {
		return errors.Wrapf(err, "merging %s", path)
	}

	return fh.Close()
}

// Settings returns the [Setup] settings of the last merge: the
// generated defaults the template left alone, plus the template's
// own.
func (m *Merger) Settings() map[string]string {
	return m.effective
}

func (m *Merger) handle(ctx context.Context, name string, sw *scriptWriter, lines []string) error {
	handler, ok := sectionHandlers[strings.ToLower(name)]
	if !ok {
		handler = handlePassthrough
	}
	return handler(ctx, m, sw, lines)
}

// relative returns a bundle file's path the way the script refers to
// it.
func (m *Merger) relative(bf packaging.BundleFile) string {
	return bf.RelativeTo(m.distDir)
}

// LoadTemplate resolves the template option. If it names an existing
// file (relative paths are taken from baseDir), the file's contents
// are returned. Otherwise the option is itself the script text.
func LoadTemplate(template, baseDir string) (string, error) {
	if template == "" {
		return "", nil
	}

	path := template
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return decodeTemplate([]byte(template), "inline template")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading template %s", path)
	}

	return decodeTemplate(data, path)
}

// decodeTemplate drops a leading BOM. Scripts saved by windows editors
// tend to start with one.
func decodeTemplate(data []byte, name string) (string, error) {
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Wrapf(err, "decoding %s", name)
	}
	return string(text), nil
}

type scriptWriter struct {
	bytes.Buffer
}

func (sw *scriptWriter) line(s string) {
	sw.WriteString(s)
	sw.WriteString("\n")
}

func (sw *scriptWriter) lines(lines []string) {
	for _, l := range lines {
		sw.line(l)
	}
}

func (sw *scriptWriter) directive(d Directive) {
	sw.line(d.String())
}

func sortedKeys(m map[string]string) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
