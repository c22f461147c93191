// Package fetch performs the outbound HTTP GETs used by the geocoding
// providers. It is the only network primitive the providers touch.
package fetch

import (
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"locator-api/internal/cache"
)

// userAgent mirrors a desktop browser; some geocoding endpoints refuse
// obviously scripted clients.
const userAgent = "Mozilla/5.0 (Windows; U; Windows NT 6.1; en-GB; " +
	"rv:1.9.1) Gecko/20090624 Firefox/3.5 (.NET CLR 3.5.30729)"

// requestTimeout bounds both the connect and the whole transaction so a slow
// third-party endpoint cannot block a request indefinitely.
const requestTimeout = 8 * time.Second

// Fetcher retrieves the raw body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// URLFetcher is the concrete Fetcher. When a cache is attached, responses are
// stored keyed by the hash of the request URL under the "geocode" tag. This
// request-level cache is independent of the per-provider geocode cache.
type URLFetcher struct {
	client *http.Client
	cache  cache.LookupCache
}

// New creates a fetcher with connect and total timeouts applied.
// cacheStore may be nil to disable response caching.
func New(cacheStore cache.LookupCache) *URLFetcher {
	return &URLFetcher{
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: requestTimeout,
				}).DialContext,
				DisableCompression: true,
			},
		},
		cache: cacheStore,
	}
}

// cacheKey hashes the request URL into a fixed-size key.
func cacheKey(url string) string {
	sum := md5.Sum([]byte(url))
	return "url_" + hex.EncodeToString(sum[:])
}

// Fetch retrieves url, consulting the response cache first. A cache write
// failure is logged and swallowed; the response is still returned.
func (f *URLFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := cacheKey(url)
	if f.cache != nil {
		if data, ok := f.cache.Get(key); ok {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}

	body := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("fetch: bad gzip body: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("fetch: failed to read body: %w", err)
	}

	if f.cache != nil {
		if err := f.cache.Set(key, data, []string{"geocode"}, 0); err != nil {
			log.Debug().Err(err).Str("url", url).Msg("response cache write failed")
		}
	}
	return data, nil
}

// ImageFunc adapts a Fetcher to the image cache's fetch callback.
func ImageFunc(f Fetcher) cache.FetchFunc {
	return func(url string) ([]byte, error) {
		return f.Fetch(context.Background(), url)
	}
}
