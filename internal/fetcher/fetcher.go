// Package fetcher downloads remote batch input files over HTTP and FTP.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Options configures the fetchers built by New.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// Accept filters ZIP entries by name when unpacking an archive.
	Accept func(name string) bool
}

// IsRemote reports whether src is an http, https or ftp URL.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp":
		return u.Host != ""
	}
	return false
}

// New returns the Fetcher for rawURL's scheme.
func New(rawURL string, opts Options) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTPFetcher(HTTPOptions{
			UserAgent:  opts.UserAgent,
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
		}), nil
	case "ftp":
		return NewFTPFetcher(FTPOptions{Timeout: opts.Timeout}), nil
	}
	return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
}

// Localize returns a local path for src. URLs are downloaded into a temp
// file that keeps the extension of the URL path. A .zip source is unpacked
// and the path of its single input file is returned. cleanup removes
// anything Localize created.
func Localize(ctx context.Context, src string, opts Options) (string, func(), error) {
	local, cleanup, err := download(ctx, src, opts)
	if err != nil {
		return "", func() {}, err
	}
	if !strings.EqualFold(filepath.Ext(local), ".zip") {
		return local, cleanup, nil
	}

	dir, err := os.MkdirTemp("", "flash-unzip-*")
	if err != nil {
		cleanup()
		return "", func() {}, eris.Wrap(err, "fetcher: create temp dir")
	}
	all := func() {
		_ = os.RemoveAll(dir)
		cleanup()
	}

	extracted, err := ExtractInput(local, dir, opts.Accept)
	if err != nil {
		all()
		return "", func() {}, eris.Wrapf(err, "fetcher: unpack %s", filepath.Base(local))
	}
	return extracted, all, nil
}

func download(ctx context.Context, src string, opts Options) (string, func(), error) {
	noop := func() {}
	if !IsRemote(src) {
		return src, noop, nil
	}

	f, err := New(src, opts)
	if err != nil {
		return "", noop, err
	}

	u, _ := url.Parse(src)
	tmp, err := os.CreateTemp("", "flash-import-*"+strings.ToLower(path.Ext(u.Path)))
	if err != nil {
		return "", noop, eris.Wrap(err, "fetcher: create temp file")
	}
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	n, err := f.DownloadToFile(ctx, src, tmp.Name())
	if err != nil {
		cleanup()
		return "", noop, eris.Wrapf(err, "fetcher: download %s", u.Redacted())
	}
	zap.L().Info("downloaded batch input",
		zap.String("url", u.Redacted()),
		zap.Int64("bytes", n),
	)
	return tmp.Name(), cleanup, nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, r)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}
	return n, nil
}
