package inno

import (
	"strings"
)

// Section is a bracketed block of a script.
type Section struct {
	Header string   // The raw header line, eg: `[Setup]`
	Name   string   // The name as written in the header
	Lines  []string // Everything up to the next header
}

// Script is a parsed installer script. It is not a validating
// parser. It only knows enough to split a script into sections.
type Script struct {
	Preamble []string // Lines before the first header
	Sections []*Section
}

// Parse splits text into sections. A line starting with `[` and
// containing a `]` is a header, everything else is content. Parse
// never fails, malformed content is passed along as is.
//
// Section names are case-insensitive. If a name repeats, the later
// lines are folded into the first occurrence.
func Parse(text string) *Script {
	script := &Script{}

	var current *Section

	for _, line := range splitLines(text) {
		if name, ok := headerName(line); ok {
			if existing := script.Section(name); existing != nil {
				current = existing
				continue
			}

			current = &Section{Header: line, Name: name}
			script.Sections = append(script.Sections, current)
			continue
		}

		if current == nil {
			script.Preamble = append(script.Preamble, line)
			continue
		}

		current.Lines = append(current.Lines, line)
	}

	return script
}

// Section returns the named section, or nil if there isn't one.
func (s *Script) Section(name string) *Section {
	for _, section := range s.Sections {
		if strings.EqualFold(section.Name, name) {
			return section
		}
	}
	return nil
}

func headerName(line string) (string, bool) {
	if !strings.HasPrefix(line, "[") {
		return "", false
	}

	end := strings.Index(line, "]")
	if end < 0 {
		return "", false
	}

	return strings.TrimSpace(line[1:end]), true
}

// splitLines splits on any of the common line endings. A trailing
// newline does not produce an empty last line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")

	return strings.Split(text, "\n")
}
