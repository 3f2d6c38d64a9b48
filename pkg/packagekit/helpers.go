package packagekit

import (
	"os"

	"github.com/pkg/errors"
)

// isDirectory errors unless d exists and is a directory. It guards
// the bundler's dist dir, which everything else is relative to.
func isDirectory(d string) error {
	info, err := os.Stat(d)
	if err != nil {
		return errors.Wrapf(err, "stat dist dir %s", d)
	}

	if !info.IsDir() {
		return errors.Errorf("dist dir %s isn't a directory", d)
	}

	return nil
}
