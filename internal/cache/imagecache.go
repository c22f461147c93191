package cache

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const sentinelName = "lastclean.touch"

// FetchFunc retrieves the raw bytes of a remote URL.
type FetchFunc func(url string) ([]byte, error)

// ImageCache is a directory-backed cache for static map images and tiles.
// Files are named provider_md5(url).ext so repeated requests for the same
// image never re-fetch.
type ImageCache struct {
	dir           string
	publicBase    string
	cleanInterval time.Duration
	maxAge        time.Duration
	fetch         FetchFunc
}

// NewImageCache creates the cache rooted at dir. publicBase is the URL prefix
// under which the directory is served.
func NewImageCache(dir, publicBase string, cleanInterval, maxAge time.Duration, fetch FetchFunc) (*ImageCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ImageCache{
		dir:           dir,
		publicBase:    publicBase,
		cleanInterval: cleanInterval,
		maxAge:        maxAge,
		fetch:         fetch,
	}, nil
}

// FileName builds the cache file name for a provider and request URL.
func FileName(provider, url string) string {
	sum := md5.Sum([]byte(url))
	ext := path.Ext(url)
	if ext == "" || len(ext) > 5 {
		ext = ".png"
	}
	return provider + "_" + hex.EncodeToString(sum[:]) + ext
}

// Path returns the on-disk path for a cache file name.
func (c *ImageCache) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// FetchOrCache returns the public URL of the cached copy of url, fetching and
// storing it first if needed. On any failure the remote URL is returned so
// the caller can still embed the image.
func (c *ImageCache) FetchOrCache(provider, url string) string {
	name := FileName(provider, url)
	dst := c.Path(name)

	if fi, err := os.Stat(dst); err == nil && fi.Size() > 0 {
		return c.publicBase + "/" + name
	}

	data, err := c.fetch(url)
	if err != nil || len(data) == 0 {
		log.Warn().Err(err).Str("url", url).Msg("image cache fetch failed")
		return url
	}
	if err := c.write(dst, data); err != nil {
		log.Warn().Err(err).Str("file", dst).Msg("image cache write failed")
		return url
	}
	return c.publicBase + "/" + name
}

// Put stores already-fetched bytes under the cache file name.
func (c *ImageCache) Put(name string, data []byte) error {
	return c.write(c.Path(name), data)
}

// Read returns the cached bytes for name, or false if absent.
func (c *ImageCache) Read(name string) ([]byte, bool) {
	data, err := os.ReadFile(c.Path(name))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// write stores data atomically: temp file in the same directory, then rename,
// so concurrent readers never observe a partial file. A zero-length result is
// removed and reported as a failure.
func (c *ImageCache) write(dst string, data []byte) error {
	tmp := filepath.Join(c.dir, "tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if fi, err := os.Stat(tmp); err != nil || fi.Size() == 0 {
		os.Remove(tmp)
		return os.ErrInvalid
	}
	return os.Rename(tmp, dst)
}

// Sweep deletes cached files older than the max age. The scan itself runs at
// most once per clean interval, gated by a sentinel file's modification time,
// so frequent calls do not hit the filesystem. Concurrent callers may race on
// the sentinel; a double sweep only re-deletes already-old files.
func (c *ImageCache) Sweep() {
	sentinel := filepath.Join(c.dir, sentinelName)

	fi, err := os.Stat(sentinel)
	if err == nil && time.Since(fi.ModTime()) < c.cleanInterval {
		return
	}
	if err != nil {
		if f, err := os.Create(sentinel); err == nil {
			f.Close()
		}
		return
	}
	now := time.Now()
	os.Chtimes(sentinel, now, now)

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	cutoff := now.Add(-c.maxAge)
	for _, e := range entries {
		if e.Name() == sentinelName {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(c.Path(e.Name()))
		}
	}
}

// SweepingCache decorates a LookupCache so that a tagless Clear also sweeps
// the image cache.
type SweepingCache struct {
	LookupCache
	Images *ImageCache
}

// Clear purges entries and, when clearing the whole namespace, sweeps old
// static map images.
func (c *SweepingCache) Clear(tags ...string) error {
	if len(tags) == 0 && c.Images != nil {
		c.Images.Sweep()
	}
	return c.LookupCache.Clear(tags...)
}
