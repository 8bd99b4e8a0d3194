package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/agentic-research/splash/internal/workspace"
)

// DefaultTimeout bounds a single remote image download.
const DefaultTimeout = 60 * time.Second

// DefaultMaxImageSize bounds the body of a single remote image.
const DefaultMaxImageSize int64 = 32 << 20

// ErrImageTooLarge is returned when a download exceeds the fetcher's size limit.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// FetchError describes a failed fetch-and-save. Network is true when the
// download itself failed; false means a local read or write failed.
type FetchError struct {
	Source  string
	Dest    string
	Network bool
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s -> %s: %v", e.Source, e.Dest, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher downloads http(s) URLs and copies local paths, writing the
// result through the workspace filesystem.
type HTTPFetcher struct {
	FS     *workspace.FS
	Client *http.Client
	// Cache is optional. When set, downloads are revalidated with ETags.
	Cache  *Cache
	Logger *zap.Logger
	// MaxSize caps a downloaded body in bytes. Zero means DefaultMaxImageSize.
	MaxSize int64
}

// NewHTTPFetcher returns a fetcher with a client bounded by timeout.
func NewHTTPFetcher(fs *workspace.FS, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		FS:     fs,
		Client: &http.Client{Timeout: timeout},
	}
}

// FetchAndSave implements Fetcher.
func (f *HTTPFetcher) FetchAndSave(ctx context.Context, baseDir, source, dest string) error {
	var (
		data []byte
		err  error
	)
	if isRemote(source) {
		data, err = f.download(ctx, source)
		if err != nil {
			return &FetchError{Source: source, Dest: dest, Network: true, Err: err}
		}
	} else {
		path := source
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err = f.FS.ReadFile(path)
		if err != nil {
			return &FetchError{Source: source, Dest: dest, Err: err}
		}
	}
	if err := f.FS.WriteFile(dest, data); err != nil {
		return &FetchError{Source: source, Dest: dest, Err: err}
	}
	return nil
}

func (f *HTTPFetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	var cached *CachedAsset
	if f.Cache != nil {
		cached, err = f.Cache.Get(ctx, rawURL)
		if err != nil {
			f.logger().Warn("Asset cache lookup failed", zap.String("url", rawURL), zap.Error(err))
			cached = nil
		}
		if cached != nil && cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		f.logger().Debug("Using cached splash image", zap.String("url", rawURL))
		return cached.Body, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	limit := f.maxSize()
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrImageTooLarge, resp.ContentLength, limit)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, limit)
	}

	if f.Cache != nil {
		asset := CachedAsset{URL: rawURL, ETag: resp.Header.Get("ETag"), Body: body}
		if err := f.Cache.Put(ctx, asset); err != nil {
			f.logger().Warn("Asset cache store failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return body, nil
}

func (f *HTTPFetcher) maxSize() int64 {
	if f.MaxSize <= 0 {
		return DefaultMaxImageSize
	}
	return f.MaxSize
}

func (f *HTTPFetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func isRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// IsNetworkError reports whether err, or any error joined into it, is a
// failed download.
func IsNetworkError(err error) bool {
	return NetworkError(err) != nil
}

// NetworkError returns the first failed download found in err or any error
// joined into it, or nil.
func NetworkError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Network {
		return fe
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if fe := NetworkError(e); fe != nil {
				return fe
			}
		}
	}
	return nil
}
