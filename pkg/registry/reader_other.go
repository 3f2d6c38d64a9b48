//go:build !windows
// +build !windows

package registry

func platformReader(_ Root, _, _ string) (string, bool) {
	return "", false
}
