package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// CatalogFile is the cached catalog name inside the model directory.
const CatalogFile = "models.yml"

type FetcherOptions struct {
	Dir        string
	CatalogURL string
	Client     *http.Client
	Logger     *slog.Logger
	// Progress receives download progress lines. Nil discards them.
	Progress io.Writer
}

// Fetcher downloads the catalog and model packages into a cache directory.
type Fetcher struct {
	opts FetcherOptions
	log  *slog.Logger
}

func NewFetcher(opts FetcherOptions) (*Fetcher, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("model dir is required")
	}
	if opts.CatalogURL == "" {
		return nil, fmt.Errorf("catalog url is required")
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 0}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Fetcher{opts: opts, log: opts.Logger.With(slog.String("component", "model"))}, nil
}

// Package is a model package present on disk.
type Package struct {
	Language string
	Model    string
	Path     string
	Release  Release
}

// Ensure resolves language/model through a fresh or cached catalog and makes
// sure its package is on disk.
func (f *Fetcher) Ensure(ctx context.Context, language, model string) (Package, error) {
	catalog, err := f.Catalog(ctx)
	if err != nil {
		return Package{}, err
	}
	rel, err := catalog.Resolve(language, model)
	if err != nil {
		return Package{}, err
	}
	p, err := f.Fetch(ctx, rel)
	if err != nil {
		return Package{}, err
	}
	return Package{Language: CatalogLanguage(language, model), Model: model, Path: p, Release: rel}, nil
}

// Catalog downloads the latest catalog, falling back to the cached copy
// when the download fails. With neither available it returns an error.
func (f *Fetcher) Catalog(ctx context.Context) (*Catalog, error) {
	if err := os.MkdirAll(f.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	cached := filepath.Join(f.opts.Dir, CatalogFile)

	f.log.Info("downloading model catalog", slog.String("url", f.opts.CatalogURL))
	if _, err := f.download(ctx, f.opts.CatalogURL, cached); err != nil {
		if _, statErr := os.Stat(cached); statErr != nil {
			return nil, fmt.Errorf("model catalog unavailable: download failed (%w) and no cached copy at %s", err, cached)
		}
		f.log.Warn("catalog download failed, using cached copy",
			slog.String("path", cached),
			slog.String("error", err.Error()),
		)
	}

	return f.CachedCatalog()
}

// CachedCatalog parses the cached catalog without touching the network.
func (f *Fetcher) CachedCatalog() (*Catalog, error) {
	data, err := os.ReadFile(filepath.Join(f.opts.Dir, CatalogFile))
	if err != nil {
		return nil, fmt.Errorf("read model catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Fetch downloads the release package unless a file of the same name is
// already cached, and returns its path.
func (f *Fetcher) Fetch(ctx context.Context, rel Release) (string, error) {
	if rel.Package == "" {
		return "", ErrNoPackage
	}
	name, err := packageFileName(rel.Package)
	if err != nil {
		return "", err
	}
	local := filepath.Join(f.opts.Dir, name)

	if fi, err := os.Stat(local); err == nil {
		if fi.IsDir() {
			return "", fmt.Errorf("expected file at %s, found directory", local)
		}
		f.log.Info("model found", slog.String("path", local))
		return local, nil
	}

	if err := os.MkdirAll(f.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}
	f.log.Info("downloading model", slog.String("url", rel.Package), slog.String("path", local))
	sum, err := f.download(ctx, rel.Package, local)
	if err != nil {
		return "", err
	}
	f.log.Info("model downloaded", slog.String("path", local), slog.String("sha256", sum))
	return local, nil
}

// Cached reports the on-disk path of the release package if present.
func (f *Fetcher) Cached(rel Release) (string, bool) {
	name, err := packageFileName(rel.Package)
	if err != nil {
		return "", false
	}
	local := filepath.Join(f.opts.Dir, name)
	if fi, err := os.Stat(local); err != nil || fi.IsDir() {
		return local, false
	}
	return local, true
}

func packageFileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse package url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("package url %q has no file name", rawURL)
	}
	return name, nil
}

// download streams rawURL into outPath via a temporary file and returns the
// sha256 of the content.
func (f *Fetcher) download(ctx context.Context, rawURL, outPath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.opts.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download failed for %s: %s", rawURL, resp.Status)
	}

	tmp := outPath + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	h := sha256.New()
	mw := io.MultiWriter(fh, h)

	var written int64
	buf := make([]byte, 64*1024)
	total := resp.ContentLength
	lastPrint := time.Now()
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			wn, writeErr := mw.Write(buf[:n])
			if writeErr != nil {
				_ = fh.Close()
				_ = os.Remove(tmp)
				return "", fmt.Errorf("write temp file: %w", writeErr)
			}
			written += int64(wn)
			if time.Since(lastPrint) > 700*time.Millisecond {
				if total > 0 {
					pct := float64(written) * 100 / float64(total)
					fmt.Fprintf(f.opts.Progress, "  progress: %.1f%% (%d/%d bytes)\n", pct, written, total)
				} else {
					fmt.Fprintf(f.opts.Progress, "  progress: %d bytes\n", written)
				}
				lastPrint = time.Now()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = fh.Close()
			_ = os.Remove(tmp)
			return "", fmt.Errorf("download read failed: %w", readErr)
		}
	}

	if err := fh.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("move temp file into place: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
