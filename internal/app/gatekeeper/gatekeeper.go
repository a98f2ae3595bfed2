// Package gatekeeper assembles the login gateway and its side services from
// a Config.
package gatekeeper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/haveachin/gatekeeper/internal/pkg/api"
	"github.com/haveachin/gatekeeper/internal/pkg/java"
	"github.com/haveachin/gatekeeper/internal/pkg/metrics"
	"github.com/haveachin/gatekeeper/internal/pkg/storage"
	"github.com/haveachin/gatekeeper/pkg/event"
	"github.com/haveachin/gatekeeper/pkg/ipfilter"
	"github.com/haveachin/gatekeeper/pkg/mqtt"
	"github.com/haveachin/gatekeeper/pkg/webhook"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultStoreTTL = time.Hour

type Gatekeeper struct {
	Config Config
	Logger *zap.Logger

	bus      event.Bus
	players  *java.PlayerRegistry
	status   *java.LiveStatus
	store    storage.SessionStore
	prune    *cron.Cron
	metrics  *metrics.Metrics
	mqtt     *mqtt.Publisher
	handler  *java.Handler
	filters  java.Filters
	reloadFn api.ReloadFunc
}

type Option func(gk *Gatekeeper)

// WithSessionHandler replaces the default handler that disconnects players
// right after they are authenticated.
func WithSessionHandler(sh java.SessionHandler) Option {
	return func(gk *Gatekeeper) {
		gk.handler.SessionHandler = sh
	}
}

func WithSessionEncrypter(enc java.SessionEncrypter) Option {
	return func(gk *Gatekeeper) {
		gk.handler.Encrypter = enc
	}
}

func WithSessionAuthenticator(auth java.SessionAuthenticator) Option {
	return func(gk *Gatekeeper) {
		gk.handler.Authenticator = auth
	}
}

// WithReloadFunc is exposed through the API to reload the config on demand.
func WithReloadFunc(fn api.ReloadFunc) Option {
	return func(gk *Gatekeeper) {
		gk.reloadFn = fn
	}
}

func New(cfg Config, logger *zap.Logger, opts ...Option) (*Gatekeeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	resp, err := cfg.Status.StatusResponse()
	if err != nil {
		return nil, err
	}

	store, err := newSessionStore(cfg.SessionStore)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	gk := &Gatekeeper{
		Config:  cfg,
		Logger:  logger,
		bus:     event.NewInternalBus(),
		players: java.NewPlayerRegistry(logger),
		store:   store,
		metrics: metrics.New(),
	}
	gk.status = java.NewLiveStatus(resp, gk.players.Online)

	gk.handler = &java.Handler{
		Authenticator: java.HTTPSessionAuthenticator{
			BaseURL:                 cfg.SessionServer.URL,
			Timeout:                 cfg.SessionServer.Timeout,
			Retries:                 cfg.SessionServer.Retries,
			PreventProxyConnections: cfg.SessionServer.PreventProxyConnections,
		},
		Status:         gk.status,
		ServerID:       cfg.ServerID,
		AllowedDomains: cfg.AllowedDomains,
		Messages:       cfg.Messages.Messages(),
		EventBus:       gk.bus,
		Logger:         logger,
	}

	for _, opt := range opts {
		opt(gk)
	}

	if gk.handler.Encrypter == nil {
		enc, err := java.NewDefaultSessionEncrypter()
		if err != nil {
			_ = gk.Close()
			return nil, fmt.Errorf("generating key pair: %w", err)
		}
		gk.handler.Encrypter = enc
	}

	next := gk.handler.SessionHandler
	if next == nil {
		next = java.PlayDisconnecter{Message: gk.handler.Messages.PlayDisconnect}
	}
	if store != nil {
		next = recordSessions(store, next, logger)
	}

	if p, ok := store.(storage.Pruner); ok && cfg.SessionStore.PruneSchedule != "" {
		c, err := storage.SchedulePrune(cfg.SessionStore.PruneSchedule, p, logger)
		if err != nil {
			_ = gk.Close()
			return nil, fmt.Errorf("scheduling session prune: %w", err)
		}
		gk.prune = c
	}
	gk.handler.SessionHandler = gk.players.Track(next)

	if cfg.IPFilter.Mode != "" {
		f, err := ipfilter.New(cfg.IPFilter)
		if err != nil {
			_ = gk.Close()
			return nil, fmt.Errorf("creating ip filter: %w", err)
		}
		gk.filters = append(gk.filters, f)
	}

	if cfg.RateLimiter.RequestLimit > 0 {
		gk.filters = append(gk.filters, java.NewRateLimiterByIP(cfg.RateLimiter))
	}

	gk.metrics.Attach(gk.bus)
	if len(cfg.Webhooks) > 0 {
		gk.webhookRecipient().Attach(gk.bus)
	}

	if cfg.MQTT.Enable {
		gk.mqtt = mqtt.NewPublisher(cfg.MQTT, logger)
		gk.mqtt.Attach(gk.bus)
	}

	return gk, nil
}

func newSessionStore(cfg SessionStoreConfig) (storage.SessionStore, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultStoreTTL
	}

	switch cfg.Type {
	case "", StoreTypeNone:
		return nil, nil
	case StoreTypeMemory:
		return storage.NewMemoryStore(ttl), nil
	case StoreTypeRedis:
		redisCfg := cfg.Redis
		if redisCfg.TTL <= 0 {
			redisCfg.TTL = ttl
		}
		store, err := storage.NewRedisStore(redisCfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoreTypeSQLite:
		sqliteCfg := cfg.SQLite
		if sqliteCfg.TTL <= 0 {
			sqliteCfg.TTL = ttl
		}

		store, err := storage.NewSQLiteStore(sqliteCfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreType, cfg.Type)
	}
}

func (gk *Gatekeeper) webhookRecipient() webhook.Recipient {
	r := webhook.Recipient{
		Logger: gk.Logger,
	}

	client := &http.Client{}
	for _, whCfg := range gk.Config.Webhooks {
		r.Webhooks = append(r.Webhooks, webhook.Webhook{
			ID:            whCfg.ID,
			HTTPClient:    client,
			URL:           whCfg.URL,
			AllowedTopics: whCfg.Events,
		})

		if whCfg.Timeout > r.Timeout {
			r.Timeout = whCfg.Timeout
		}
	}
	return r
}

func (gk *Gatekeeper) Players() *java.PlayerRegistry {
	return gk.players
}

func (gk *Gatekeeper) EventBus() event.Bus {
	return gk.bus
}

// Listen opens the client listener on Config.Bind and wraps it for the
// PROXY protocol if enabled.
func (gk *Gatekeeper) Listen() (net.Listener, error) {
	l, err := net.Listen("tcp", gk.Config.Bind)
	if err != nil {
		return nil, err
	}

	if !gk.Config.ProxyProtocol.Receive {
		return l, nil
	}

	pl, err := java.NewProxyProtocolListener(l, gk.Config.ProxyProtocol.TrustedCIDRs)
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	return pl, nil
}

// Run listens on Config.Bind and serves until ctx is done.
func (gk *Gatekeeper) Run(ctx context.Context) error {
	l, err := gk.Listen()
	if err != nil {
		return err
	}
	return gk.Serve(ctx, l)
}

// Serve serves clients from l and, if enabled, the API until ctx is done.
func (gk *Gatekeeper) Serve(ctx context.Context, l net.Listener) error {
	gw := &java.Gateway{
		Listener:      l,
		Handler:       gk.handler,
		Filter:        gk.filters,
		ClientTimeout: gk.Config.ClientTimeout,
		MaxPacketSize: int(gk.Config.MaxPacketSize.Bytes()),
		Logger:        gk.Logger,
		EventBus:      gk.bus,
	}

	if gk.mqtt != nil {
		// The client keeps retrying in the background.
		if err := gk.mqtt.Connect(); err != nil {
			gk.Logger.Warn("failed to connect to mqtt broker", zap.Error(err))
		}
	}

	if !gk.Config.API.Enable {
		return gw.ListenAndServe(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := api.Server{
		Config:   gk.Config.API,
		Players:  gk.players,
		Metrics:  gk.metrics.Handler(),
		Reload:   gk.reloadFn,
		EventBus: gk.bus,
		Logger:   gk.Logger,
	}

	apiErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			apiErrCh <- fmt.Errorf("api: %w", err)
			return
		}
		apiErrCh <- nil
	}()

	gwErrCh := make(chan error, 1)
	go func() {
		gwErrCh <- gw.ListenAndServe(ctx)
	}()

	// Whichever stops first takes the other one down.
	var err error
	select {
	case err = <-gwErrCh:
		cancel()
		err = multierr.Append(err, <-apiErrCh)
	case err = <-apiErrCh:
		cancel()
		err = multierr.Append(err, <-gwErrCh)
	}
	return err
}

// Reload applies the parts of cfg that can change while the gateway is
// running. Currently that is the status response.
func (gk *Gatekeeper) Reload(cfg Config) error {
	resp, err := cfg.Status.StatusResponse()
	if err != nil {
		return err
	}

	gk.status.Store(resp)
	gk.Logger.Info("reloaded status response")
	return nil
}

func (gk *Gatekeeper) Close() error {
	gk.bus.DetachAllRecipients()
	if gk.prune != nil {
		<-gk.prune.Stop().Done()
	}
	if gk.mqtt != nil {
		gk.mqtt.Close()
	}

	if gk.store == nil {
		return nil
	}

	if err := gk.store.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
