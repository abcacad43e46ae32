package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer"`
	Google     GoogleConfig     `mapstructure:"google"`
	Foursquare FoursquareConfig `mapstructure:"foursquare"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type OptimizerConfig struct {
	MaxTimeMinutes       float64     `mapstructure:"max_time_minutes"`
	MaxRangeMinutes      float64     `mapstructure:"max_range_minutes"`
	ClusterThresholdKm   float64     `mapstructure:"cluster_threshold_km"`
	VenueRadiusMeters    int         `mapstructure:"venue_radius_meters"`
	VenueCategories      []string    `mapstructure:"venue_categories"`
	VenueLimit           int         `mapstructure:"venue_limit"`
	TopCandidates        int         `mapstructure:"top_candidates"`
	OracleRatePerSecond  float64     `mapstructure:"oracle_rate_per_second"`
	CacheTTLSeconds      int         `mapstructure:"cache_ttl_seconds"`
	CacheSweepSeconds    int         `mapstructure:"cache_sweep_seconds"`
	HubRadiusKm          float64     `mapstructure:"hub_radius_km"`
	TransitHubs          []HubConfig `mapstructure:"transit_hubs"`
}

type HubConfig struct {
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat"`
	Lng  float64 `mapstructure:"lng"`
}

// Hubs converts the configured interchange list into domain form.
func (o OptimizerConfig) Hubs() []domain.TransitHub {
	hubs := make([]domain.TransitHub, 0, len(o.TransitHubs))
	for _, h := range o.TransitHubs {
		hubs = append(hubs, domain.TransitHub{
			Name:     h.Name,
			Location: domain.GeoPoint{Lat: h.Lat, Lng: h.Lng},
		})
	}
	return hubs
}

type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type FoursquareConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("optimizer.max_time_minutes", 60.0)
	v.SetDefault("optimizer.max_range_minutes", 30.0)
	v.SetDefault("optimizer.cluster_threshold_km", 2.0)
	v.SetDefault("optimizer.venue_radius_meters", 500)
	v.SetDefault("optimizer.venue_categories", []string{"restaurant", "cafe"})
	v.SetDefault("optimizer.venue_limit", 10)
	v.SetDefault("optimizer.top_candidates", 8)
	v.SetDefault("optimizer.oracle_rate_per_second", 10.0)
	v.SetDefault("optimizer.cache_ttl_seconds", 3600)
	v.SetDefault("optimizer.cache_sweep_seconds", 600)
	v.SetDefault("optimizer.hub_radius_km", 15.0)
	v.SetDefault("optimizer.transit_hubs", defaultHubs)
	v.SetDefault("google.api_key", "")
	v.SetDefault("foursquare.api_key", "")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MIDWHEREAH_GOOGLE_API_KEY → google.api_key
	v.SetEnvPrefix("MIDWHEREAH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Optimizer.MaxTimeMinutes <= 0 {
		errs = append(errs, "optimizer.max_time_minutes must be positive")
	}
	if c.Optimizer.MaxRangeMinutes <= 0 {
		errs = append(errs, "optimizer.max_range_minutes must be positive")
	}
	if c.Optimizer.ClusterThresholdKm <= 0 {
		errs = append(errs, "optimizer.cluster_threshold_km must be positive")
	}
	if c.Optimizer.OracleRatePerSecond <= 0 {
		errs = append(errs, "optimizer.oracle_rate_per_second must be positive")
	}
	if c.Optimizer.CacheTTLSeconds <= 0 {
		errs = append(errs, "optimizer.cache_ttl_seconds must be positive")
	}
	for i, h := range c.Optimizer.TransitHubs {
		if !(domain.GeoPoint{Lat: h.Lat, Lng: h.Lng}).Valid() {
			errs = append(errs, fmt.Sprintf("optimizer.transit_hubs[%d] (%s) has invalid coordinates", i, h.Name))
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats.enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// defaultHubs covers the major Singapore MRT interchanges. Deployments
// elsewhere override the list in config.
var defaultHubs = []map[string]interface{}{
	{"name": "Dhoby Ghaut", "lat": 1.2993, "lng": 103.8455},
	{"name": "City Hall", "lat": 1.2931, "lng": 103.8520},
	{"name": "Raffles Place", "lat": 1.2840, "lng": 103.8515},
	{"name": "Orchard", "lat": 1.3040, "lng": 103.8318},
	{"name": "Bugis", "lat": 1.3009, "lng": 103.8559},
	{"name": "Jurong East", "lat": 1.3330, "lng": 103.7422},
	{"name": "Bishan", "lat": 1.3509, "lng": 103.8485},
	{"name": "Serangoon", "lat": 1.3498, "lng": 103.8735},
	{"name": "Tampines", "lat": 1.3546, "lng": 103.9450},
	{"name": "Buona Vista", "lat": 1.3070, "lng": 103.7903},
	{"name": "Outram Park", "lat": 1.2804, "lng": 103.8394},
	{"name": "HarbourFront", "lat": 1.2653, "lng": 103.8220},
	{"name": "Paya Lebar", "lat": 1.3177, "lng": 103.8926},
	{"name": "Woodlands", "lat": 1.4370, "lng": 103.7865},
	{"name": "Newton", "lat": 1.3127, "lng": 103.8380},
}
