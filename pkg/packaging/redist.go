package packaging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clbanning/mxj"
	"github.com/go-kit/kit/log/level"
	"github.com/kolide/innosetup/pkg/contexts/ctxlog"
	"github.com/kolide/kit/fsutil"
	"github.com/pkg/errors"
)

// Redistributables returns the C runtime files the application
// needs next to it: the runtime dll, its assembly manifest, and the
// mfc libraries if the build depends on them.
//
// The manifest is either sitting next to the dll (a private
// assembly) or lives in the side-by-side store. In the latter case,
// we find it via the interpreter's own embedded manifest, and copy it
// into the dist dir.
func Redistributables(ctx context.Context, br *BuildResult) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	if br.Runtime.DLL == "" || br.Runtime.Version == "" {
		return nil, errors.New("build manifest does not name the runtime dll and version")
	}

	vcrName := br.Runtime.DLL
	assemblyName := fmt.Sprintf("Microsoft.VC%s.CRT", br.Runtime.Version)

	files := []string{vcrName}

	manifestFile := filepath.Join(filepath.Dir(vcrName), assemblyName+".manifest")
	if info, err := os.Stat(manifestFile); err != nil || info.IsDir() {
		manifestFile, err = sideBySideManifest(br, assemblyName)
		if err != nil {
			return nil, err
		}
	}

	level.Debug(logger).Log("msg", "found runtime manifest", "path", manifestFile)
	files = append(files, manifestFile)

	// mfc. If the build pulled in mfcNN.dll, ship all its siblings
	// (localized resources and the like) too.
	mfcFiles := FindFiles(br.OtherDepends, fmt.Sprintf("mfc%s.dll", br.Runtime.Version))
	if len(mfcFiles) > 0 {
		mfcDir := filepath.Dir(mfcFiles[0])
		names, err := readDirNames(mfcDir)
		if err != nil {
			return nil, errors.Wrapf(err, "listing mfc dir %s", mfcDir)
		}
		for _, name := range FindFiles(names, "mfc") {
			files = append(files, filepath.Join(mfcDir, name))
		}
	}

	return files, nil
}

// sideBySideManifest locates the runtime's manifest in the WinSxS
// Manifests directory, and copies it into the dist dir.
func sideBySideManifest(br *BuildResult, assemblyName string) (string, error) {
	identity, err := findAssemblyIdentity(br.Interpreter.Manifest, assemblyName)
	if err != nil {
		return "", err
	}

	// The dll lives in WinSxS/<assembly dir>/, and the manifests are
	// in WinSxS/Manifests/
	manifestsDir := filepath.Join(filepath.Dir(filepath.Dir(br.Runtime.DLL)), "Manifests")
	names, err := readDirNames(manifestsDir)
	if err != nil {
		return "", errors.Wrapf(err, "listing side by side manifests in %s", manifestsDir)
	}

	matches := FindFiles(names, assemblyName, identity.version, identity.arch, ".manifest")
	if len(matches) == 0 {
		return "", errors.Errorf("no %s manifest for version %s (%s) in %s", assemblyName, identity.version, identity.arch, manifestsDir)
	}

	dest := filepath.Join(br.DistDir, assemblyName+".manifest")
	if err := fsutil.CopyFile(filepath.Join(manifestsDir, matches[0]), dest); err != nil {
		return "", errors.Wrapf(err, "copying %s manifest", assemblyName)
	}

	return dest, nil
}

type assemblyIdentity struct {
	name    string
	version string
	arch    string
}

// findAssemblyIdentity searches an assembly manifest for a dependent
// assembly by name.
func findAssemblyIdentity(manifestXml, name string) (*assemblyIdentity, error) {
	if manifestXml == "" {
		return nil, errors.Errorf("no interpreter manifest, cannot locate %s", name)
	}

	mv, err := mxj.NewMapXml([]byte(manifestXml))
	if err != nil {
		return nil, errors.Wrap(err, "mxj parse interpreter manifest")
	}

	values, err := mv.ValuesForKey("assemblyIdentity")
	if err != nil {
		return nil, errors.Wrap(err, "searching interpreter manifest")
	}

	for _, v := range values {
		attrs, ok := v.(map[string]interface{})
		if !ok {
			continue
		}

		if stringAttr(attrs, "name") != name {
			continue
		}

		return &assemblyIdentity{
			name:    name,
			version: stringAttr(attrs, "version"),
			arch:    stringAttr(attrs, "processorArchitecture"),
		}, nil
	}

	return nil, errors.Errorf("no runtime manifest found: %s is not a dependency of the interpreter", name)
}

// stringAttr fetches an xml attribute from an mxj map. mxj prefixes
// attributes with a hyphen.
func stringAttr(attrs map[string]interface{}, name string) string {
	s, _ := attrs["-"+name].(string)
	return s
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}
