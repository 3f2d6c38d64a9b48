package packaging

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"
)

// MetadataFields are the project metadata fields the installer
// settings are derived from.
var MetadataFields = []string{
	"name",
	"version",
	"author",
	"author_email",
	"description",
	"url",
	"license",
}

// Metadata is the project's metadata, keyed by field name. Missing
// fields read as the empty string.
type Metadata map[string]string

func (m Metadata) Get(field string) string {
	return m[field]
}

// ProjectConfig is what we read from the project's setup.cfg. The
// [metadata] section describes the project, and the [innosetup]
// section holds option defaults, using the same names as the command
// line flags.
type ProjectConfig struct {
	Metadata Metadata
	Options  map[string]string
}

// LoadProjectConfig reads path as an ini file. A missing file is not
// an error, it just yields empty metadata and no options.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	pc := &ProjectConfig{
		Metadata: Metadata{},
		Options:  map[string]string{},
	}

	if path == "" {
		return pc, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return pc, nil
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{AllowPythonMultilineValues: true}, path)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing project config %s", path)
	}

	if section, err := cfg.GetSection("metadata"); err == nil {
		for _, field := range MetadataFields {
			// setuptools accepts author-email as well as author_email
			for _, name := range []string{field, strings.ReplaceAll(field, "_", "-")} {
				if section.HasKey(name) {
					pc.Metadata[field] = strings.TrimSpace(section.Key(name).String())
					break
				}
			}
		}
	}

	if section, err := cfg.GetSection("innosetup"); err == nil {
		for _, key := range section.Keys() {
			pc.Options[strings.ReplaceAll(key.Name(), "-", "_")] = key.String()
		}
	}

	return pc, nil
}

// Merge returns a copy of m with empty fields filled in from other.
func (m Metadata) Merge(other map[string]string) Metadata {
	merged := Metadata{}
	for k, v := range other {
		merged[k] = v
	}
	for k, v := range m {
		if v != "" || merged[k] == "" {
			merged[k] = v
		}
	}
	return merged
}

var placeholderRegex = regexp.MustCompile(`%\((\w+)\)(?:\.(\d+))?s`)

// Expand substitutes `%(field)s` placeholders in template with
// metadata values. `%(field).Ns` truncates the value to N
// characters. Unknown fields expand to the empty string.
func Expand(template string, md Metadata) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		groups := placeholderRegex.FindStringSubmatch(match)
		value := md.Get(groups[1])

		if groups[2] != "" {
			precision, err := strconv.Atoi(groups[2])
			if runes := []rune(value); err == nil && precision < len(runes) {
				value = string(runes[:precision])
			}
		}
		return value
	})
}
