package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kolide/innosetup/pkg/packaging"
	"github.com/pkg/errors"
)

func runAppID(args []string) error {
	flagset := flag.NewFlagSet("appid", flag.ExitOnError)
	var (
		flSetupCfg = flagset.String(
			"setup_cfg",
			"setup.cfg",
			"the project's setup.cfg",
		)
		flManifest = flagset.String(
			"manifest",
			"",
			"optional build manifest, for metadata setup.cfg leaves out",
		)
	)

	flagset.Usage = usageFor(flagset, "package-builder appid [flags]")
	if err := flagset.Parse(args); err != nil {
		return err
	}

	appID, err := projectAppID(*flSetupCfg, *flManifest)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, appID)
	return nil
}

// projectAppID derives the AppId the way a make run would, from
// setup.cfg and optionally the build manifest's metadata.
func projectAppID(setupCfg, manifest string) (string, error) {
	pc, err := packaging.LoadProjectConfig(setupCfg)
	if err != nil {
		return "", err
	}

	md := pc.Metadata
	if manifest != "" {
		br, err := packaging.LoadBuildResult(manifest)
		if err != nil {
			return "", err
		}
		md = md.Merge(br.Metadata)
	}

	if md.Get("name") == "" && md.Get("url") == "" && md.Get("author_email") == "" {
		return "", errors.Errorf("no project metadata in %s", setupCfg)
	}

	return packaging.AppID(md), nil
}
