package usecase

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// archiveModTime is stamped on every archive entry so that the same input
// always yields the same archive bytes
var archiveModTime = time.Unix(0, 0).UTC()

// Packager bundles build output into a single tar.gz archive
type Packager struct {
	distDir     string
	archiveName string
}

// NewPackager creates a Packager writing distDir/archiveName
func NewPackager(distDir, archiveName string) *Packager {
	return &Packager{
		distDir:     distDir,
		archiveName: archiveName,
	}
}

// Package writes the archive and computes its checksum from the bytes on disk
// after the archive is closed
func (p *Packager) Package(ctx context.Context, output *model.BuildOutput) (*model.BuildArtifact, error) {
	logger := ctxlog.From(ctx)

	if len(output.Files) == 0 {
		return nil, goerr.New("no build output files to package",
			goerr.T(model.ErrTagPackagingFailed),
			goerr.V("dir", output.Dir),
		)
	}

	for _, name := range output.Files {
		path := filepath.Join(output.Dir, name)
		info, err := os.Stat(path)
		if err != nil {
			return nil, goerr.Wrap(err, "build output is missing",
				goerr.T(model.ErrTagPackagingFailed),
				goerr.V("path", path),
			)
		}
		if !info.Mode().IsRegular() {
			return nil, goerr.New("build output is not a regular file",
				goerr.T(model.ErrTagPackagingFailed),
				goerr.V("path", path),
			)
		}
	}

	if err := os.MkdirAll(p.distDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create dist directory",
			goerr.T(model.ErrTagPackagingFailed),
			goerr.V("dist_dir", p.distDir),
		)
	}

	archivePath := filepath.Join(p.distDir, p.archiveName)
	if err := writeArchive(archivePath, output); err != nil {
		return nil, goerr.Wrap(err, "failed to write archive",
			goerr.T(model.ErrTagPackagingFailed),
			goerr.V("path", archivePath),
		)
	}

	checksum, size, err := fileChecksum(archivePath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compute archive checksum",
			goerr.T(model.ErrTagPackagingFailed),
			goerr.V("path", archivePath),
		)
	}

	logger.Info("Packaged build output",
		"archive", archivePath,
		"size_bytes", size,
		"sha256", checksum,
		"file_count", len(output.Files),
	)

	return &model.BuildArtifact{
		ArchivePath: archivePath,
		ArchiveName: p.archiveName,
		Checksum:    checksum,
		Size:        size,
	}, nil
}

// writeArchive writes the archive to a temporary file first and renames it,
// so a partially written archive never appears under its final name
func writeArchive(archivePath string, output *model.BuildOutput) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(archivePath), ".archive-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	gw, err := gzip.NewWriterLevel(tmp, gzip.BestCompression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gw)

	for _, name := range output.Files {
		if err := addFile(tw, output.Dir, name); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), archivePath)
}

func addFile(tw *tar.Writer, dir, name string) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return goerr.Wrap(err, "failed to open build output", goerr.V("path", path))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return goerr.Wrap(err, "failed to stat build output", goerr.V("path", path))
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     filepath.ToSlash(filepath.Clean(name)),
		Mode:     int64(info.Mode().Perm()),
		Size:     info.Size(),
		ModTime:  archiveModTime,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return goerr.Wrap(err, "failed to write tar header", goerr.V("name", name))
	}
	if _, err := io.Copy(tw, f); err != nil {
		return goerr.Wrap(err, "failed to write tar entry", goerr.V("name", name))
	}
	return nil
}

func fileChecksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
