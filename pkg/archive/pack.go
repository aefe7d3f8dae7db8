// Package archive packs a staged distribution into a single file
package archive

import (
	"archive/tar"
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
	"github.com/ulikunitz/xz"
)

// Format is an archive format identified by its file extension
type Format string

const (
	TarXz  Format = ".tar.xz"
	TarBr  Format = ".tar.br"
	ZipArc Format = ".zip"
)

// Formats lists the supported formats
var Formats = []Format{TarXz, TarBr, ZipArc}

// FormatFor detects the format from the archive's file name
func FormatFor(name string) (Format, error) {
	lower := strings.ToLower(name)
	for _, format := range Formats {
		if strings.HasSuffix(lower, string(format)) {
			return format, nil
		}
	}

	return "", eris.Errorf("Archive format of %s not supported (use .tar.xz, .tar.br or .zip)", name)
}

// Options describes what goes into an archive
type Options struct {
	// Base is the directory entry names are relative to
	Base string
	// Items are files or directories relative to Base
	Items []string
	// IgnoreMissing skips items that don't exist instead of failing
	IgnoreMissing bool
}

type entryWriter interface {
	WriteEntry(name string, info os.FileInfo, content io.Reader) error
	Close() error
}

// Pack writes the archive dest. The archive is written to a temporary file first and only moved into place
// once it's complete. It returns the number of files written.
func Pack(ctx context.Context, dest string, opts Options) (int, error) {
	format, err := FormatFor(dest)
	if err != nil {
		return 0, err
	}

	if opts.Base == "" {
		opts.Base = "."
	}

	tmpPath := dest + "." + nanoid.New() + ".tmp"
	hdl, err := os.Create(tmpPath)
	if err != nil {
		return 0, eris.Wrapf(err, "Failed to create %s", tmpPath)
	}
	defer func() {
		hdl.Close()
		os.Remove(tmpPath)
	}()

	writer, err := newEntryWriter(format, hdl)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range opts.Items {
		itemPath := filepath.Join(opts.Base, item)
		_, err := os.Stat(itemPath)
		if err != nil {
			if opts.IgnoreMissing && eris.Is(err, os.ErrNotExist) {
				continue
			}
			return count, eris.Wrapf(err, "Failed to check %s", itemPath)
		}

		n, err := addTree(ctx, writer, opts.Base, itemPath)
		count += n
		if err != nil {
			return count, err
		}
	}

	err = writer.Close()
	if err != nil {
		return count, eris.Wrap(err, "Failed to finish archive")
	}

	err = hdl.Close()
	if err != nil {
		return count, eris.Wrapf(err, "Failed to write %s", tmpPath)
	}

	err = os.Rename(tmpPath, dest)
	if err != nil {
		return count, eris.Wrapf(err, "Failed to move archive to %s", dest)
	}

	return count, nil
}

func addTree(ctx context.Context, writer entryWriter, base, root string) (int, error) {
	count := 0
	err := filepath.Walk(root, func(itemPath string, info os.FileInfo, err error) error {
		if err != nil {
			return eris.Wrapf(err, "Failed to read %s", itemPath)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(base, itemPath)
		if err != nil {
			return eris.Wrapf(err, "Failed to determine the archive path for %s", itemPath)
		}
		name := filepath.ToSlash(rel)

		if info.IsDir() {
			if name == "." {
				return nil
			}
			return writer.WriteEntry(name+"/", info, nil)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(itemPath)
		if err != nil {
			return eris.Wrapf(err, "Failed to open file %s", itemPath)
		}
		defer f.Close()

		err = writer.WriteEntry(name, info, f)
		if err != nil {
			return eris.Wrapf(err, "Failed to pack file %s", itemPath)
		}

		count++
		return nil
	})

	return count, err
}

func newEntryWriter(format Format, w io.Writer) (entryWriter, error) {
	switch format {
	case TarXz:
		xzw, err := xz.NewWriter(w)
		if err != nil {
			return nil, eris.Wrap(err, "Failed to initialize xz compression")
		}
		return newTarWriter(xzw), nil
	case TarBr:
		return newTarWriter(brotli.NewWriterLevel(w, brotli.BestCompression)), nil
	case ZipArc:
		return &zipWriter{zip: zip.NewWriter(w)}, nil
	}

	return nil, eris.Errorf("Archive format %s not supported", format)
}

type tarWriter struct {
	tar        *tar.Writer
	compressor io.WriteCloser
}

func newTarWriter(compressor io.WriteCloser) *tarWriter {
	return &tarWriter{
		tar:        tar.NewWriter(compressor),
		compressor: compressor,
	}
}

func (w *tarWriter) WriteEntry(name string, info os.FileInfo, content io.Reader) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	err = w.tar.WriteHeader(hdr)
	if err != nil {
		return err
	}

	if content != nil {
		_, err = io.Copy(w.tar, content)
	}
	return err
}

func (w *tarWriter) Close() error {
	err := w.tar.Close()
	if err != nil {
		return err
	}

	return w.compressor.Close()
}

type zipWriter struct {
	zip *zip.Writer
}

func (w *zipWriter) WriteEntry(name string, info os.FileInfo, content io.Reader) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	if content != nil {
		hdr.Method = zip.Deflate
	}

	entry, err := w.zip.CreateHeader(hdr)
	if err != nil {
		return err
	}

	if content != nil {
		_, err = io.Copy(entry, content)
	}
	return err
}

func (w *zipWriter) Close() error {
	return w.zip.Close()
}
