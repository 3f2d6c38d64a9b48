package packaging

import (
	"strings"
)

// FindFiles filters filenames down to those matching every
// condition. Conditions are case-insensitive, and come in three
// shapes:
//
//	.manifest    compares the extension
//	mfc90.dll    (a single dot) compares the basename
//	x86          anything else must be contained in the basename
func FindFiles(filenames []string, conditions ...string) []string {
	var found []string

	for _, filename := range filenames {
		if matchesAll(filename, conditions) {
			found = append(found, filename)
		}
	}

	return found
}

func matchesAll(filename string, conditions []string) bool {
	filename = strings.ToLower(filename)
	base := baseName(filename)

	for _, c := range conditions {
		c = strings.ToLower(c)
		switch {
		case strings.HasPrefix(c, "."):
			if extension(base) != c {
				return false
			}
		case strings.Count(c, ".") == 1:
			if base != c {
				return false
			}
		default:
			if !strings.Contains(base, c) {
				return false
			}
		}
	}

	return true
}

func extension(base string) string {
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[i:]
	}
	return ""
}
