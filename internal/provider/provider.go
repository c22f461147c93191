// Package provider implements the third-party mapping and geocoding services.
// Each provider declares which of the two capabilities it supports and is
// resolved by name through the Registry.
package provider

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"locator-api/internal/cache"
	"locator-api/internal/fetch"
	"locator-api/internal/models"
)

// Outcome classifies a geocode result. ConfigError is operator-actionable
// (missing credentials) and is logged more loudly than NotFound, which is a
// valid call that simply matched nothing. TransientError covers network and
// parse failures and is never cached, so the next call retries.
type Outcome int

const (
	Success Outcome = iota
	NotFound
	ConfigError
	TransientError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NotFound:
		return "not_found"
	case ConfigError:
		return "config_error"
	case TransientError:
		return "transient_error"
	default:
		return "unknown"
	}
}

// MapEmbed is a no-script embeddable map: either an image URL or an iframe
// source URL.
type MapEmbed struct {
	Kind string `json:"kind"` // "image" or "iframe"
	URL  string `json:"url"`
}

// RenderedMap carries everything the display layer needs to draw an
// interactive map. The core returns structure only; it never renders HTML.
type RenderedMap struct {
	Provider   string            `json:"provider"`
	Coordinate models.Coordinate `json:"coordinate"`
	Label      string            `json:"label"`
	APIKey     string            `json:"api_key,omitempty"`
	TileServer string            `json:"tile_server,omitempty"`
}

// Assets collects the script and stylesheet URLs a mapper's client side
// needs. Registration is idempotent per collector, and a collector lives for
// one rendering context, so repeated maps on a page load each asset once.
type Assets struct {
	mu          sync.Mutex
	seen        map[string]struct{}
	Scripts     []string
	Stylesheets []string
}

// NewAssets creates an empty collector for one rendering context.
func NewAssets() *Assets {
	return &Assets{seen: make(map[string]struct{})}
}

// AddScript registers a script URL once.
func (a *Assets) AddScript(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.seen[url]; ok {
		return
	}
	a.seen[url] = struct{}{}
	a.Scripts = append(a.Scripts, url)
}

// AddStylesheet registers a stylesheet URL once.
func (a *Assets) AddStylesheet(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.seen[url]; ok {
		return
	}
	a.seen[url] = struct{}{}
	a.Stylesheets = append(a.Stylesheets, url)
}

// GeoProvider is one third-party service. A provider may support mapping,
// geocoding, both, or neither; callers check the capability flags before use.
type GeoProvider interface {
	Name() string
	DisplayName() string
	IsMapper() bool
	IsGeocoder() bool

	// Geocode resolves an address to a coordinate. The coordinate is the
	// zero value for every outcome except Success.
	Geocode(ctx context.Context, address string) (models.Coordinate, Outcome)

	// RenderMap returns the structured map description for the display
	// layer, or nil when mapping is disabled or unconfigured. The first
	// call per Assets collector registers the provider's client assets.
	RenderMap(assets *Assets, coord models.Coordinate, label string) *RenderedMap

	// StaticMap returns a no-script embed, or nil if unsupported.
	StaticMap(coord models.Coordinate, label string) *MapEmbed
}

// base supplies the shared plumbing and the defaults for unsupported
// capabilities. Concrete providers embed it and override what they support.
type base struct {
	name        string
	displayName string
	fetcher     fetch.Fetcher
	store       cache.LookupCache
	images      *cache.ImageCache
}

func (b *base) Name() string        { return b.name }
func (b *base) DisplayName() string { return b.displayName }
func (b *base) IsMapper() bool      { return false }
func (b *base) IsGeocoder() bool    { return false }

func (b *base) Geocode(ctx context.Context, address string) (models.Coordinate, Outcome) {
	return models.Coordinate{}, NotFound
}

func (b *base) RenderMap(assets *Assets, coord models.Coordinate, label string) *RenderedMap {
	return nil
}

func (b *base) StaticMap(coord models.Coordinate, label string) *MapEmbed {
	return nil
}

// geocodeKey builds the geocode-level cache key from the provider name and
// the hash of the normalized address.
func geocodeKey(name, address string) string {
	normalized := strings.Join(strings.Fields(address), " ")
	sum := md5.Sum([]byte(normalized))
	return name + "_geocode_" + hex.EncodeToString(sum[:])
}

// geocode runs the shared cache-then-fetch flow. parse is applied to the raw
// payload whether it came from the cache or the wire, so a provider's
// candidate selection behaves identically on both paths. Only successful
// payloads are written through, keeping transient failures retryable.
func (b *base) geocode(
	ctx context.Context,
	address string,
	buildURL func(address string) (string, Outcome),
	parse func(payload []byte) (models.Coordinate, Outcome),
) (models.Coordinate, Outcome) {
	if address == "" {
		return models.Coordinate{}, NotFound
	}

	key := geocodeKey(b.name, address)
	if b.store != nil {
		if payload, ok := b.store.Get(key); ok {
			return parse(payload)
		}
	}

	url, outcome := buildURL(address)
	if outcome != Success {
		if outcome == ConfigError {
			log.Error().Str("provider", b.name).Msg("geocoder API key is required")
		}
		return models.Coordinate{}, outcome
	}

	payload, err := b.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("provider", b.name).Msg("geocode request failed")
		return models.Coordinate{}, TransientError
	}

	coord, outcome := parse(payload)
	if outcome == Success && b.store != nil {
		if err := b.store.Set(key, payload, []string{"geocode"}, 0); err != nil {
			log.Debug().Err(err).Str("provider", b.name).Msg("geocode cache write failed")
		}
	}
	return coord, outcome
}

// cachedStaticMap routes an image URL through the disk cache so the same map
// is fetched at most once.
func (b *base) cachedStaticMap(url string) *MapEmbed {
	if b.images == nil {
		return &MapEmbed{Kind: "image", URL: url}
	}
	return &MapEmbed{Kind: "image", URL: b.images.FetchOrCache(b.name, url)}
}

// noopProvider is returned for unknown or unconfigured provider names so
// callers never crash on a bad name. It reports no capabilities and resolves
// nothing.
type noopProvider struct {
	base
}

func newNoopProvider() *noopProvider {
	return &noopProvider{base{name: "none", displayName: "Undefined"}}
}
