package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
)

const testDefaults = `
bind: ":25565"
clientTimeout: 10s
maxPacketSize: 2MB
status:
  motd: "A gatekeeper"
  maxPlayerCount: 20
allowedDomains:
  - "*.example.com"
`

type testConfig struct {
	Bind           string            `mapstructure:"bind"`
	ClientTimeout  time.Duration     `mapstructure:"clientTimeout"`
	MaxPacketSize  datasize.ByteSize `mapstructure:"maxPacketSize"`
	AllowedDomains []string          `mapstructure:"allowedDomains"`
	Status         struct {
		MOTD           string `mapstructure:"motd"`
		MaxPlayerCount int    `mapstructure:"maxPlayerCount"`
	} `mapstructure:"status"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tt := []struct {
		name     string
		file     string
		content  string
		bind     string
		motd     string
		maxCount int
		domains  []string
	}{
		{
			name:     "defaults only",
			bind:     ":25565",
			motd:     "A gatekeeper",
			maxCount: 20,
			domains:  []string{"*.example.com"},
		},
		{
			name:     "yaml overrides nested keys",
			file:     "config.yml",
			content:  "status:\n  motd: Hello\nallowedDomains: [\"mc.example.org\"]\n",
			bind:     ":25565",
			motd:     "Hello",
			maxCount: 20,
			domains:  []string{"mc.example.org"},
		},
		{
			name:     "json",
			file:     "config.json",
			content:  `{"bind": ":25566"}`,
			bind:     ":25566",
			motd:     "A gatekeeper",
			maxCount: 20,
			domains:  []string{"*.example.com"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var path string
			if tc.file != "" {
				path = writeFile(t, tc.file, tc.content)
			}

			data, err := Load([]byte(testDefaults), path)
			if err != nil {
				t.Fatal(err)
			}

			var cfg testConfig
			if err := Unmarshal(data, &cfg); err != nil {
				t.Fatal(err)
			}

			if cfg.Bind != tc.bind {
				t.Errorf("bind got: %s, want: %s", cfg.Bind, tc.bind)
			}
			if cfg.Status.MOTD != tc.motd {
				t.Errorf("motd got: %s, want: %s", cfg.Status.MOTD, tc.motd)
			}
			if cfg.Status.MaxPlayerCount != tc.maxCount {
				t.Errorf("maxPlayerCount got: %d, want: %d", cfg.Status.MaxPlayerCount, tc.maxCount)
			}
			if len(cfg.AllowedDomains) != len(tc.domains) || cfg.AllowedDomains[0] != tc.domains[0] {
				t.Errorf("allowedDomains got: %v, want: %v", cfg.AllowedDomains, tc.domains)
			}
			if cfg.ClientTimeout != 10*time.Second {
				t.Errorf("clientTimeout got: %v, want: %v", cfg.ClientTimeout, 10*time.Second)
			}
			if cfg.MaxPacketSize != 2*datasize.MB {
				t.Errorf("maxPacketSize got: %v, want: %v", cfg.MaxPacketSize, 2*datasize.MB)
			}
		})
	}
}

func TestLoad_errors(t *testing.T) {
	tt := []struct {
		name     string
		defaults string
		path     func(t *testing.T) string
		err      error
	}{
		{
			name:     "unsupported file type",
			defaults: testDefaults,
			path: func(t *testing.T) string {
				return writeFile(t, "config.toml", "bind = 1")
			},
			err: ErrUnsupportedFileType,
		},
		{
			name:     "missing file",
			defaults: testDefaults,
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.yml")
			},
			err: os.ErrNotExist,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.defaults), tc.path(t))
			if !errors.Is(err, tc.err) {
				t.Errorf("got: %v, want: %v", err, tc.err)
			}
		})
	}
}

func TestFile_Watch(t *testing.T) {
	path := writeFile(t, "config.yml", "bind: \":1\"\n")
	f := NewFile(path, []byte(testDefaults), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Data, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.Watch(ctx, func(data Data) {
			select {
			case changes <- data:
			default:
			}
		})
	}()

	// Give the watcher time to register the directory.
	deadline := time.Now().Add(time.Second)
	for f.watcher.Load() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if err := f.Watch(ctx, func(Data) {}); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("got: %v, want: %v", err, ErrAlreadyWatching)
	}

	if err := os.WriteFile(path, []byte("bind: \":2\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case data := <-changes:
		if data["bind"] != ":2" {
			t.Errorf("got: %v, want: %v", data["bind"], ":2")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no config change received")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Error(err)
	}
}
