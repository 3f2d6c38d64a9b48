package inno

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/klauspost/compress/zip"
	"github.com/kolide/innosetup/pkg/contexts/ctxlog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Archive zips setupFile into a single entry archive. If name is
// empty, the archive is written next to setupFile, as
// <setupFile>.zip. The archive's path is returned.
func Archive(ctx context.Context, setupFile, name string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "inno.Archive")
	defer span.End()

	if name == "" {
		name = setupFile + ".zip"
	}

	setupFH, err := os.Open(setupFile)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", setupFile)
	}
	defer setupFH.Close()

	info, err := setupFH.Stat()
	if err != nil {
		return "", errors.Wrapf(err, "stat %s", setupFile)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return "", errors.Wrap(err, "making zip header")
	}
	header.Name = filepath.Base(setupFile)
	header.Method = zip.Deflate

	zipFH, err := os.Create(name)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", name)
	}
	defer zipFH.Close()

	zw := zip.NewWriter(zipFH)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return "", errors.Wrapf(err, "adding %s to archive", header.Name)
	}

	if _, err := io.Copy(w, setupFH); err != nil {
		return "", errors.Wrap(err, "copying into archive")
	}

	if err := zw.Close(); err != nil {
		return "", errors.Wrap(err, "closing archive")
	}

	if err := zipFH.Close(); err != nil {
		return "", errors.Wrapf(err, "closing %s", name)
	}

	level.Debug(ctxlog.FromContext(ctx)).Log("msg", "archived installer", "path", name)

	return name, nil
}
