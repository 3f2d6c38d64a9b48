package inno

import (
	"strings"
)

// Param is a single `Key: "Value"` pair of a directive.
type Param struct {
	Key   string
	Value string
}

// Directive is a single entry line of a [Files], [Run], [Icons]
// (etc) section. Parameter order is preserved.
type Directive []Param

// unquotedParams hold space separated keywords, not strings.
var unquotedParams = map[string]bool{
	"Flags": true,
}

func (d Directive) String() string {
	parts := make([]string, 0, len(d))
	for _, p := range d {
		value := p.Value
		if !unquotedParams[p.Key] {
			value = quote(value)
		}
		parts = append(parts, p.Key+": "+value)
	}
	return strings.Join(parts, "; ")
}

// flagSettings are [Setup] settings whose values are keywords. They
// are written bare.
var flagSettings = map[string]bool{
	"SolidCompression":                true,
	"PrivilegesRequired":              true,
	"ArchitecturesAllowed":            true,
	"ArchitecturesInstallIn64BitMode": true,
	"MinVersion":                      true,
}

// settingLine renders a generated [Setup] setting.
func settingLine(key, value string) string {
	if flagSettings[key] || isYesNo(value) {
		return key + "=" + value
	}
	return key + "=" + quote(value)
}

func isYesNo(value string) bool {
	switch strings.ToLower(value) {
	case "yes", "no", "true", "false":
		return true
	}
	return false
}

// quote wraps value in double quotes. Inno Setup escapes an embedded
// quote by doubling it.
func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// unquote reverses quote, for values read back from a user's
// script. Unquoted values are returned trimmed.
func unquote(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return strings.ReplaceAll(value[1:len(value)-1], `""`, `"`)
	}
	return value
}
