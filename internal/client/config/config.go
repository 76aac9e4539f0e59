package config

import "time"

// Config holds runtime settings for the CryptoEx terminal client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - DatabasePath: SQLite file that keeps the session between runs.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - WatchInterval: delay between market refreshes of the watch command.
//   - RequestTimeout: deadline applied to every remote call.
//   - DownloadDir: where "statement save" writes exported CSV files.
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	WatchInterval       time.Duration
	RequestTimeout      time.Duration
	DownloadDir         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "cryptoex.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.WatchInterval = 5 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.DownloadDir = "statements"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
