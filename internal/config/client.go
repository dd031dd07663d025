package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
)

// Client is the practice client configuration, read from TOML:
//
//	[server]
//	url = "https://localhost:8443"
//	ping_interval = "15s"
//
//	[cache]
//	path = "/var/lib/nomoslink/cache.db"
//	key_file = "certs/client.key"
type Client struct {
	Server ServerSection `toml:"server"`
	Cache  CacheSection  `toml:"cache"`
	Sync   SyncSection   `toml:"sync"`
	Notify NotifySection `toml:"notify"`
	Log    LogSection    `toml:"log"`
}

// ServerSection points at the remote table store.
type ServerSection struct {
	URL          string   `toml:"url"`
	CertFile     string   `toml:"cert_file"`
	KeyFile      string   `toml:"key_file"`
	CAFile       string   `toml:"ca_file"`
	PingInterval Duration `toml:"ping_interval"`
	Timeout      Duration `toml:"timeout"`
}

// CacheSection configures the durable cache. Driver is "sqlite" (Path is
// the database file) or "dir" (Path is a directory of one file per key).
// An empty KeyFile stores entries in clear text.
type CacheSection struct {
	Driver  string `toml:"driver"`
	Path    string `toml:"path"`
	KeyFile string `toml:"key_file"`
}

// SyncSection tunes the push scheduler.
type SyncSection struct {
	Debounce Duration `toml:"debounce"`
}

// NotifySection tunes notification de-duplication.
type NotifySection struct {
	Window Duration `toml:"window"`
}

// LogSection selects the log level and file.
type LogSection struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultClient returns the built-in client configuration.
func DefaultClient() Client {
	return Client{
		Server: ServerSection{
			URL:          "https://localhost:8443",
			CertFile:     "certs/client.crt",
			KeyFile:      "certs/client.key",
			CAFile:       "certs/ca.crt",
			PingInterval: Duration{15 * time.Second},
			Timeout:      Duration{30 * time.Second},
		},
		Cache:  CacheSection{Driver: "sqlite", Path: "nomoslink.db"},
		Sync:   SyncSection{Debounce: Duration{2 * time.Second}},
		Notify: NotifySection{Window: Duration{3 * time.Second}},
		Log:    LogSection{Level: "warn"},
	}
}

// LoadClient reads path over the defaults. A missing file yields the
// defaults. NOMOSLINK_SERVER and NOMOSLINK_CACHE override the server URL
// and the cache path.
func LoadClient(path string, getenv func(string) string) (Client, error) {
	cfg := DefaultClient()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return Client{}, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Client{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if v := getenv("NOMOSLINK_SERVER"); v != "" {
		cfg.Server.URL = v
	}
	if v := getenv("NOMOSLINK_CACHE"); v != "" {
		cfg.Cache.Path = v
	}
	if err := cfg.validate(); err != nil {
		return Client{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Client) validate() error {
	durations := []struct {
		key string
		d   Duration
	}{
		{"server.ping_interval", c.Server.PingInterval},
		{"server.timeout", c.Server.Timeout},
		{"sync.debounce", c.Sync.Debounce},
		{"notify.window", c.Notify.Window},
	}
	for _, v := range durations {
		if v.d.Duration <= 0 {
			return fmt.Errorf("%s must be positive, got %s", v.key, v.d.Duration)
		}
	}
	return nil
}
