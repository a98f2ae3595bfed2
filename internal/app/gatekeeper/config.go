package gatekeeper

import (
	"errors"
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/haveachin/gatekeeper/internal/pkg/api"
	"github.com/haveachin/gatekeeper/internal/pkg/config"
	"github.com/haveachin/gatekeeper/internal/pkg/java"
	"github.com/haveachin/gatekeeper/internal/pkg/storage"
	"github.com/haveachin/gatekeeper/pkg/event"
	"github.com/haveachin/gatekeeper/pkg/ipfilter"
	"github.com/haveachin/gatekeeper/pkg/mqtt"
	"github.com/robfig/cron/v3"
)

var (
	ErrUnknownStoreType = errors.New("unknown session store type")
	ErrUnknownTopic     = errors.New("unknown event topic")
	ErrInvalidSchedule  = errors.New("invalid cron schedule")
)

type StoreType string

const (
	StoreTypeNone   StoreType = "none"
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeSQLite StoreType = "sqlite"
)

type PlayerSampleConfig struct {
	Name string `mapstructure:"name"`
	UUID string `mapstructure:"uuid"`
}

type StatusConfig struct {
	VersionName    string               `mapstructure:"versionName"`
	ProtocolNumber int                  `mapstructure:"protocolNumber"`
	MaxPlayerCount int                  `mapstructure:"maxPlayerCount"`
	MOTD           string               `mapstructure:"motd"`
	IconPath       string               `mapstructure:"iconPath"`
	PlayerSamples  []PlayerSampleConfig `mapstructure:"playerSamples"`
}

// StatusResponse loads the icon from disk.
func (cfg StatusConfig) StatusResponse() (java.StatusResponse, error) {
	favicon, err := java.LoadFavicon(cfg.IconPath)
	if err != nil {
		return java.StatusResponse{}, fmt.Errorf("loading icon: %w", err)
	}

	samples := make(java.PlayerSamples, len(cfg.PlayerSamples))
	for i, s := range cfg.PlayerSamples {
		samples[i] = java.PlayerSample{
			Name: s.Name,
			UUID: s.UUID,
		}
	}

	return java.StatusResponse{
		VersionName:    cfg.VersionName,
		ProtocolNumber: cfg.ProtocolNumber,
		MaxPlayerCount: cfg.MaxPlayerCount,
		PlayerSamples:  samples,
		MOTD:           cfg.MOTD,
		Favicon:        favicon,
	}, nil
}

type SessionServerConfig struct {
	URL                     string        `mapstructure:"url"`
	Timeout                 time.Duration `mapstructure:"timeout"`
	Retries                 int           `mapstructure:"retries"`
	PreventProxyConnections bool          `mapstructure:"preventProxyConnections"`
}

type MessagesConfig struct {
	AuthenticationFailed string `mapstructure:"authenticationFailed"`
	EncryptionFailed     string `mapstructure:"encryptionFailed"`
	ProtocolError        string `mapstructure:"protocolError"`
	DomainNotAllowed     string `mapstructure:"domainNotAllowed"`
	PlayDisconnect       string `mapstructure:"playDisconnect"`
}

func (cfg MessagesConfig) Messages() java.Messages {
	msgs := java.Messages(cfg)
	defaults := java.DefaultMessages
	fallback := func(s *string, def string) {
		if *s == "" {
			*s = def
		}
	}
	fallback(&msgs.AuthenticationFailed, defaults.AuthenticationFailed)
	fallback(&msgs.EncryptionFailed, defaults.EncryptionFailed)
	fallback(&msgs.ProtocolError, defaults.ProtocolError)
	fallback(&msgs.DomainNotAllowed, defaults.DomainNotAllowed)
	fallback(&msgs.PlayDisconnect, defaults.PlayDisconnect)
	return msgs
}

type SessionStoreConfig struct {
	Type StoreType     `mapstructure:"type"`
	TTL  time.Duration `mapstructure:"ttl"`
	// PruneSchedule is a cron spec for deleting expired records from the
	// memory and sqlite stores. Empty disables it.
	PruneSchedule string               `mapstructure:"pruneSchedule"`
	Redis         storage.RedisConfig  `mapstructure:"redis"`
	SQLite        storage.SQLiteConfig `mapstructure:"sqlite"`
}

type WebhookConfig struct {
	ID      string        `mapstructure:"id"`
	URL     string        `mapstructure:"url"`
	Events  []string      `mapstructure:"events"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config is the complete gateway configuration. Optional components such
// as the ip filter or the session store are disabled by their zero value.
type Config struct {
	Bind           string                   `mapstructure:"bind"`
	ServerID       string                   `mapstructure:"serverId"`
	ClientTimeout  time.Duration            `mapstructure:"clientTimeout"`
	MaxPacketSize  datasize.ByteSize        `mapstructure:"maxPacketSize"`
	AllowedDomains []string                 `mapstructure:"allowedDomains"`
	Status         StatusConfig             `mapstructure:"status"`
	SessionServer  SessionServerConfig      `mapstructure:"sessionServer"`
	Messages       MessagesConfig           `mapstructure:"messages"`
	RateLimiter    java.RateLimiterConfig   `mapstructure:"rateLimiter"`
	IPFilter       ipfilter.Config          `mapstructure:"ipFilter"`
	ProxyProtocol  java.ProxyProtocolConfig `mapstructure:"proxyProtocol"`
	SessionStore   SessionStoreConfig       `mapstructure:"sessionStore"`
	API            api.Config               `mapstructure:"api"`
	Webhooks       []WebhookConfig          `mapstructure:"webhooks"`
	MQTT           mqtt.Config              `mapstructure:"mqtt"`
}

// NewConfig decodes and validates data.
func NewConfig(data config.Data) (Config, error) {
	var cfg Config
	if err := config.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	if cfg.Bind == "" {
		return errors.New("bind address is empty")
	}

	if cfg.ProxyProtocol.Receive && len(cfg.ProxyProtocol.TrustedCIDRs) == 0 {
		return fmt.Errorf("proxy protocol: %w", java.ErrNoTrustedCIDRs)
	}

	switch cfg.SessionStore.Type {
	case "", StoreTypeNone, StoreTypeMemory, StoreTypeRedis, StoreTypeSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreType, cfg.SessionStore.Type)
	}

	if spec := cfg.SessionStore.PruneSchedule; spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("session store prune: %w %q: %v", ErrInvalidSchedule, spec, err)
		}
	}

	if cfg.MQTT.Enable && cfg.MQTT.Broker == "" {
		return errors.New("mqtt: broker is empty")
	}

	for _, e := range cfg.MQTT.Events {
		if !isKnownTopic(e) {
			return fmt.Errorf("mqtt: %w: %q", ErrUnknownTopic, e)
		}
	}

	for _, wh := range cfg.Webhooks {
		for _, e := range wh.Events {
			if !isKnownTopic(e) {
				return fmt.Errorf("webhook %q: %w: %q", wh.ID, ErrUnknownTopic, e)
			}
		}
	}
	return nil
}

func isKnownTopic(topic string) bool {
	for _, t := range event.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
