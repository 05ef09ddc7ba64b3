package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("fetch")

// Downloader fetches the resource at url into the local file dst.
type Downloader interface {
	Download(ctx context.Context, url, dst string) error
}

// HTTPDownloader downloads over HTTP(S) with a bounded number of attempts.
type HTTPDownloader struct {
	Client     *http.Client
	RetryCount int // Number of attempts per download (<= 0 means 1)
}

// NewHTTPDownloader returns a downloader with a pooled transport and 3 attempts per download.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		RetryCount: 3,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see Downloader)
// --------------------------------------------------------------------------

func (d *HTTPDownloader) Download(ctx context.Context, rawURL, dst string) error {
	attempts := d.RetryCount
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = d.download(ctx, rawURL, dst); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if _, permanent := err.(*statusError); permanent {
			return err
		}
		plog.Debugf("download %s failed (attempt %d/%d): %v", rawURL, i+1, attempts, err)
	}
	return err
}

type statusError struct {
	url    string
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("download %s: http error: %s", e.url, e.status)
}

func (d *HTTPDownloader) download(ctx context.Context, rawURL, dst string) (err error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			plog.Errorf("Failed to close response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &statusError{url: rawURL, status: resp.Status}
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Temporary directories
// --------------------------------------------------------------------------

// WithTempDir creates a fresh directory below parent (the system default if
// empty), calls fn with it and removes it afterwards, whatever fn returns.
func WithTempDir(parent, prefix string, fn func(dir string) error) error {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return err
		}
	}
	dir, err := os.MkdirTemp(parent, prefix)
	if err != nil {
		return fmt.Errorf("create temporary directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			plog.Warningf("failed to remove temporary directory %s: %v", dir, err)
		}
	}()
	return fn(dir)
}

// LocalName returns the file name a download of rawURL is stored under:
// the last path element of the URL, or "download" if it has none.
func LocalName(rawURL string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	} else {
		name = path.Base(rawURL)
	}
	if name == "" || name == "." || name == "/" {
		return "download"
	}
	return filepath.Base(name)
}
