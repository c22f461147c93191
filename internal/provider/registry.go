package provider

import (
	"sort"
	"sync"

	"locator-api/internal/cache"
	"locator-api/internal/config"
	"locator-api/internal/fetch"
)

// Deps are the collaborators shared by every provider instance.
type Deps struct {
	Fetcher fetch.Fetcher
	Store   cache.LookupCache
	Images  *cache.ImageCache
}

func (d Deps) base(name, displayName string) base {
	return base{
		name:        name,
		displayName: displayName,
		fetcher:     d.Fetcher,
		store:       d.Store,
		images:      d.Images,
	}
}

// Registry resolves provider names to singleton instances. It is constructed
// once at startup and passed to callers, replacing hidden process-wide state.
// Unknown names resolve to a no-op provider with no capabilities, so a
// misconfigured name degrades to empty results instead of a crash.
type Registry struct {
	cfg  config.Config
	deps Deps

	mu        sync.Mutex
	instances map[string]GeoProvider
}

// NewRegistry creates a registry over the configured providers.
func NewRegistry(cfg config.Config, deps Deps) *Registry {
	return &Registry{
		cfg:       cfg,
		deps:      deps,
		instances: make(map[string]GeoProvider),
	}
}

// knownNames lists every provider implementation, in enumeration order.
var knownNames = []string{"google", "here", "mapbox", "mapquest", "openstreetmap", "uscensus"}

// Get returns the singleton instance for name, constructing it on first use.
func (r *Registry) Get(name string) GeoProvider {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.instances[name]; ok {
		return p
	}
	p := r.construct(name)
	r.instances[name] = p
	return p
}

func (r *Registry) construct(name string) GeoProvider {
	keys := r.cfg.Keys
	switch name {
	case "google":
		return NewGoogle(keys.GoogleAPIKey, keys.GoogleJSKey, r.cfg.ShowMap, r.deps)
	case "here":
		return NewHere(keys.HereRESTKey, keys.HereJSKey, r.cfg.ShowMap, r.deps)
	case "mapbox":
		return NewMapbox(keys.MapboxToken, r.cfg.ShowMap, r.deps)
	case "mapquest":
		return NewMapquest(keys.MapquestKey, r.cfg.ShowMap, r.deps)
	case "openstreetmap":
		return NewOpenStreetMap(r.cfg.ShowMap, r.cfg.TileServerURL(), r.deps)
	case "uscensus":
		return NewUSCensus(r.deps)
	default:
		return newNoopProvider()
	}
}

// Mapper returns the configured default mapping provider.
func (r *Registry) Mapper() GeoProvider {
	return r.Get(r.cfg.Mapper)
}

// Geocoder returns the configured default geocoding provider.
func (r *Registry) Geocoder() GeoProvider {
	return r.Get(r.cfg.Geocoder)
}

// All returns every known provider, sorted by name.
func (r *Registry) All() []GeoProvider {
	names := make([]string, len(knownNames))
	copy(names, knownNames)
	sort.Strings(names)

	out := make([]GeoProvider, 0, len(names))
	for _, name := range names {
		out = append(out, r.Get(name))
	}
	return out
}

// Mappers returns every provider with the mapping capability.
func (r *Registry) Mappers() []GeoProvider {
	var out []GeoProvider
	for _, p := range r.All() {
		if p.IsMapper() {
			out = append(out, p)
		}
	}
	return out
}

// Geocoders returns every provider with the geocoding capability.
func (r *Registry) Geocoders() []GeoProvider {
	var out []GeoProvider
	for _, p := range r.All() {
		if p.IsGeocoder() {
			out = append(out, p)
		}
	}
	return out
}
