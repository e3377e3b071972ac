// Package fileio opens command inputs and outputs. A path of "" or "-"
// means stdin or stdout. A .zst, .lz4 or .gz suffix selects transparent
// compression.
package fileio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies a stream compression algorithm.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// String returns the name of a compression algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionGzip:
		return "gzip"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

var suffixes = map[string]Compression{
	".zst":  CompressionZstd,
	".zstd": CompressionZstd,
	".lz4":  CompressionLZ4,
	".gz":   CompressionGzip,
}

// CompressionFor returns the compression implied by the path suffix.
func CompressionFor(path string) Compression {
	return suffixes[strings.ToLower(filepath.Ext(path))]
}

// Ext returns the lower-cased extension of path with any compression
// suffix removed, e.g. ".bson" for "parcels.bson.zst".
func Ext(path string) string {
	if CompressionFor(path) != CompressionNone {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	return strings.ToLower(filepath.Ext(path))
}

// IsStd reports whether path names stdin or stdout.
func IsStd(path string) bool {
	return path == "" || path == "-"
}

// Open opens path for reading, decompressing as its suffix requires.
func Open(path string) (io.ReadCloser, error) {
	if IsStd(path) {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, err := newReader(f, CompressionFor(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Create creates path for writing, compressing as its suffix requires.
// Close must be called to flush the compressed stream.
func Create(path string) (io.WriteCloser, error) {
	if IsStd(path) {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w, err := newWriter(f, CompressionFor(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// ReadFile reads the whole of path.
func ReadFile(path string) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	return data, errors.Join(err, r.Close())
}

// WriteFile writes data to path.
func WriteFile(path string, data []byte) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Join(err, w.Close())
}

func newReader(f *os.File, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionZstd:
		d, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		return &stackedReader{Reader: d, close: func() error { d.Close(); return f.Close() }}, nil

	case CompressionLZ4:
		return &stackedReader{Reader: lz4.NewReader(f), close: f.Close}, nil

	case CompressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		return &stackedReader{Reader: gz, close: func() error { return errors.Join(gz.Close(), f.Close()) }}, nil

	default:
		return f, nil
	}
}

func newWriter(f *os.File, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionZstd:
		e, err := zstd.NewWriter(f)
		if err != nil {
			return nil, err
		}
		return &stackedWriter{Writer: e, flush: e.Close, file: f}, nil

	case CompressionLZ4:
		lw := lz4.NewWriter(f)
		return &stackedWriter{Writer: lw, flush: lw.Close, file: f}, nil

	case CompressionGzip:
		gw := gzip.NewWriter(f)
		return &stackedWriter{Writer: gw, flush: gw.Close, file: f}, nil

	default:
		return f, nil
	}
}

type stackedReader struct {
	io.Reader
	close func() error
}

func (r *stackedReader) Close() error { return r.close() }

// stackedWriter closes the compressor before the file under it.
type stackedWriter struct {
	io.Writer
	flush func() error
	file  *os.File
}

func (w *stackedWriter) Close() error {
	return errors.Join(w.flush(), w.file.Close())
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
