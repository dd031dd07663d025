package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestLoad_Defaults(t *testing.T) {
	opts, err := Load([]string{"-c", ""}, env(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Port != "localhost:8443" {
		t.Errorf("Port = %q", opts.Port)
	}
	if opts.Retention.Duration != 30*24*time.Hour {
		t.Errorf("Retention = %v", opts.Retention)
	}
	if opts.CleanupInterval.Duration != time.Hour {
		t.Errorf("CleanupInterval = %v", opts.CleanupInterval)
	}
	if opts.CertFile != "certs/server.crt" {
		t.Errorf("CertFile = %q", opts.CertFile)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	data := `{"address":":9000","database_dsn":"postgres://file","retention":"48h","log_level":"debug"}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	opts, err := Load([]string{"-a", ":7000", "-c", path}, env(map[string]string{
		"SERVER_ADDRESS": ":8000",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Port != ":8000" {
		t.Errorf("Port = %q; env should win", opts.Port)
	}
	if opts.DatabaseDSN != "postgres://file" {
		t.Errorf("DatabaseDSN = %q", opts.DatabaseDSN)
	}
	if opts.Retention.Duration != 48*time.Hour {
		t.Errorf("Retention = %v", opts.Retention)
	}
	if opts.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", opts.LogLevel)
	}
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	if err := os.WriteFile(path, []byte(`{"cleanup_interval":"10m"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	opts, err := Load(nil, env(map[string]string{"CONFIG": path}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.CleanupInterval.Duration != 10*time.Minute {
		t.Errorf("CleanupInterval = %v", opts.CleanupInterval)
	}
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"retention":"forever"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load([]string{"-c", path}, env(nil)); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestLoadClient_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadClient(filepath.Join(t.TempDir(), "absent.toml"), env(nil))
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	want := DefaultClient()
	if cfg != want {
		t.Errorf("cfg = %+v; want defaults %+v", cfg, want)
	}
}

func TestLoadClient_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.toml")
	data := `
[server]
url = "https://chambers.example:8443"
ping_interval = "1m"

[cache]
driver = "dir"
path = "/var/lib/nomoslink/cache"
key_file = "certs/client.key"

[sync]
debounce = "500ms"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadClient(path, env(map[string]string{"NOMOSLINK_CACHE": "/tmp/override.db"}))
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.Server.URL != "https://chambers.example:8443" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.PingInterval.Duration != time.Minute {
		t.Errorf("PingInterval = %v", cfg.Server.PingInterval)
	}
	if cfg.Server.Timeout.Duration != 30*time.Second {
		t.Errorf("Timeout = %v; default should survive", cfg.Server.Timeout)
	}
	if cfg.Sync.Debounce.Duration != 500*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Sync.Debounce)
	}
	if cfg.Cache.Path != "/tmp/override.db" {
		t.Errorf("Cache.Path = %q; env should win", cfg.Cache.Path)
	}
	if cfg.Cache.KeyFile != "certs/client.key" {
		t.Errorf("Cache.KeyFile = %q", cfg.Cache.KeyFile)
	}
	if cfg.Cache.Driver != "dir" {
		t.Errorf("Cache.Driver = %q", cfg.Cache.Driver)
	}
}

func TestLoadClient_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.toml")
	if err := os.WriteFile(path, []byte("[server]\nadress = \"x\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadClient(path, env(nil)); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadClient_RejectsNonPositiveDurations(t *testing.T) {
	tests := []struct {
		name string
		data string
		key  string
	}{
		{"zero ping interval", "[server]\nping_interval = \"0s\"\n", "server.ping_interval"},
		{"negative timeout", "[server]\ntimeout = \"-5s\"\n", "server.timeout"},
		{"zero debounce", "[sync]\ndebounce = \"0s\"\n", "sync.debounce"},
		{"zero dedup window", "[notify]\nwindow = \"0ms\"\n", "notify.window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "client.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadClient(path, env(nil))
			if err == nil {
				t.Fatalf("expected error for %s", tt.key)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}
