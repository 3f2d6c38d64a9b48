// Package registry resolves string values from the Windows registry
// by path, the way installer tooling finds where other tools were
// installed.
//
// Paths look like `HKLM\SOFTWARE\Vendor\Key\ValueName`. A trailing
// backslash (`HKCR\.iss\`) names the key's default value. Lookups
// never fail loudly: a missing root, key, or value yields the
// caller's default.
package registry

import (
	"strings"
)

// Root identifies a registry hive independent of the platform's
// handle type.
type Root int

const (
	ClassesRoot Root = iota
	CurrentUser
	LocalMachine
	Users
	CurrentConfig
	DynData
	PerformanceData
)

var rootNames = map[string]Root{
	"HKEY_CLASSES_ROOT":     ClassesRoot,
	"HKEY_CURRENT_USER":     CurrentUser,
	"HKEY_LOCAL_MACHINE":    LocalMachine,
	"HKEY_USERS":            Users,
	"HKEY_CURRENT_CONFIG":   CurrentConfig,
	"HKEY_DYN_DATA":         DynData,
	"HKEY_PERFORMANCE_DATA": PerformanceData,
}

var rootShortNames = map[string]Root{
	"HKCR": ClassesRoot,
	"HKCU": CurrentUser,
	"HKLM": LocalMachine,
	"HKU":  Users,
	"HKCC": CurrentConfig,
	"HKDD": DynData,
	"HKPD": PerformanceData,
}

func (r Root) String() string {
	for name, root := range rootNames {
		if root == r {
			return name
		}
	}
	return "UNKNOWN"
}

// Reader reads a single string value. ok is false if the key or
// value does not exist, or is not readable as a string.
type Reader func(root Root, subkey, name string) (value string, ok bool)

type Lookup struct {
	read Reader
}

type LookupOpt func(*Lookup)

// WithReader replaces the platform registry reader. Mostly useful in
// tests, and for pointing lookups at something other than the live
// registry.
func WithReader(r Reader) LookupOpt {
	return func(l *Lookup) {
		l.read = r
	}
}

// New returns a Lookup backed by the platform registry. On non
// windows platforms, every lookup misses.
func New(opts ...LookupOpt) *Lookup {
	l := &Lookup{
		read: platformReader,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Value returns the string at path, or def if it cannot be read.
func (l *Lookup) Value(path, def string) string {
	root, subkey, name, ok := SplitPath(path)
	if !ok {
		return def
	}

	value, ok := l.read(root, subkey, name)
	if !ok {
		return def
	}
	return value
}

// First tries each path in order, returning the first non-empty
// value found. def is returned if all of them miss.
func (l *Lookup) First(paths []string, def string) string {
	for _, path := range paths {
		if value := l.Value(path, ""); value != "" {
			return value
		}
	}
	return def
}

// SplitPath breaks a registry path into root, subkey and value
// name. A root that isn't recognized is treated as part of the
// subkey, under HKEY_CURRENT_USER.
func SplitPath(path string) (Root, string, string, bool) {
	first, rest, found := strings.Cut(path, `\`)
	if !found {
		return 0, "", "", false
	}

	var root Root
	var subkey string

	if r, ok := rootNames[strings.ToUpper(first)]; ok {
		root, subkey = r, rest
	} else if r, ok := rootShortNames[strings.ToUpper(first)]; ok {
		root, subkey = r, rest
	} else {
		root, subkey = CurrentUser, path
	}

	i := strings.LastIndex(subkey, `\`)
	if i < 0 {
		return 0, "", "", false
	}

	return root, subkey[:i], subkey[i+1:], true
}
