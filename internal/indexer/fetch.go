package indexer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Fetcher downloads a URL to a local file and reports its size. It is the
// one external collaborator spec.md §1 calls "the HTTP fetcher that
// downloads archive files" — swappable so a different archive source
// (a local mirror, a different CDN) can be plugged in without touching the
// indexing pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (path string, size int64, err error)
}

// HTTPFetcher is the default Fetcher: a plain net/http GET streamed to a
// temp file named by hashing the URL, so different URLs land in different
// files and a repeated fetch of the same URL overwrites that URL's file.
type HTTPFetcher struct {
	Client  *http.Client
	TempDir string
}

// NewHTTPFetcher builds a fetcher using http.DefaultClient and os.TempDir.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: http.DefaultClient, TempDir: os.TempDir()}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, int64, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	dir := f.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	name := fmt.Sprintf("croissantine-%x.tmp", xxhash.Sum64String(url))
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file for %s: %w", url, err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("download %s: %w", url, err)
	}
	return path, n, nil
}
