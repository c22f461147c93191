package config

import (
	"time"

	"github.com/spf13/viper"
)

// ProviderKeys holds the per-provider credentials. Empty values are allowed;
// providers that require a key report a configuration error when asked to
// geocode without one.
type ProviderKeys struct {
	GoogleAPIKey string `mapstructure:"google_api_key"`
	GoogleJSKey  string `mapstructure:"google_js_key"`
	HereRESTKey  string `mapstructure:"here_rest_key"`
	HereJSKey    string `mapstructure:"here_js_key"`
	MapquestKey  string `mapstructure:"mapquest_key"`
	MapboxToken  string `mapstructure:"mapbox_token"`
}

// Config carries all runtime settings. Every field is a read-only input.
type Config struct {
	ServerAddress string `mapstructure:"server_address"`
	PublicURL     string `mapstructure:"public_url"`
	DBSource      string `mapstructure:"db_source"`

	Mapper          string `mapstructure:"mapper"`
	Geocoder        string `mapstructure:"geocoder"`
	ShowMap         bool   `mapstructure:"show_map"`
	AutofillCoord   bool   `mapstructure:"autofill_coord"`
	OSMUseTileProxy bool   `mapstructure:"osm_use_tileproxy"`

	DefaultRadius int    `mapstructure:"default_radius"`
	DistanceUnit  string `mapstructure:"distance_unit"`
	AddressDelim  string `mapstructure:"address_delim"`

	Keys ProviderKeys `mapstructure:"keys"`

	CacheBackend       string        `mapstructure:"cache_backend"`
	CacheTTLMinutes    int           `mapstructure:"cache_ttl_minutes"`
	ImageCacheDir      string        `mapstructure:"image_cache_dir"`
	CacheCleanInterval time.Duration `mapstructure:"cache_clean_interval"`
	CacheMaxAge        time.Duration `mapstructure:"cache_max_age"`

	SpeedLimitInterval time.Duration `mapstructure:"speed_limit_interval"`
}

// TileServerURL returns the tile endpoint OpenStreetMap maps should use:
// the local caching tile proxy when enabled, otherwise empty so the provider
// falls back to the public tile servers.
func (c Config) TileServerURL() string {
	if c.OSMUseTileProxy {
		return c.PublicURL + "/map/tiles/{z}/{x}/{y}.png"
	}
	return ""
}

// LoadConfig reads configuration from a yaml file in the given path, with
// environment variables taking precedence.
func LoadConfig(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("server_address", "0.0.0.0:8080")
	viper.SetDefault("public_url", "http://localhost:8080")
	viper.SetDefault("mapper", "openstreetmap")
	viper.SetDefault("geocoder", "openstreetmap")
	viper.SetDefault("show_map", true)
	viper.SetDefault("autofill_coord", true)
	viper.SetDefault("default_radius", 30)
	viper.SetDefault("distance_unit", "miles")
	viper.SetDefault("address_delim", ", ")
	viper.SetDefault("cache_backend", "memory")
	viper.SetDefault("cache_ttl_minutes", 1440)
	viper.SetDefault("image_cache_dir", "imgcache")
	viper.SetDefault("cache_clean_interval", 15*time.Minute)
	viper.SetDefault("cache_max_age", 24*time.Hour)
	viper.SetDefault("speed_limit_interval", 30*time.Second)

	var config Config
	if err := viper.ReadInConfig(); err != nil {
		return config, err
	}
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, nil
}
