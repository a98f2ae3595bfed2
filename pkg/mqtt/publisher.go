// Package mqtt publishes bus events to an MQTT broker. Each event topic is
// published under its own subtopic of TopicPrefix.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/haveachin/gatekeeper/pkg/event"
	"go.uber.org/zap"
)

var ErrTimeout = errors.New("mqtt operation timed out")

const (
	defaultTopicPrefix = "gatekeeper/events"
	defaultTimeout     = 5 * time.Second
)

type Config struct {
	Enable      bool          `mapstructure:"enable"`
	Broker      string        `mapstructure:"broker"`
	ClientID    string        `mapstructure:"clientId"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	TopicPrefix string        `mapstructure:"topicPrefix"`
	QoS         byte          `mapstructure:"qos"`
	Retained    bool          `mapstructure:"retained"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// Events are the bus topics that are published. All if empty.
	Events []string `mapstructure:"events"`
}

// client is the subset of paho.Client the publisher needs.
type client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Disconnect(quiesce uint)
}

type message struct {
	ID         string    `json:"id"`
	Topics     []string  `json:"topics"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

type Publisher struct {
	cfg    Config
	client client
	logger *zap.Logger
}

func NewPublisher(cfg Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	if cfg.ClientID != "" {
		opts.SetClientID(cfg.ClientID)
	}
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	return newPublisher(cfg, paho.NewClient(opts), logger)
}

func newPublisher(cfg Config, c client, logger *zap.Logger) *Publisher {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = defaultTopicPrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Publisher{
		cfg:    cfg,
		client: c,
		logger: logger,
	}
}

func wait(t paho.Token, timeout time.Duration) error {
	if !t.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return t.Error()
}

func (p *Publisher) Connect() error {
	if err := wait(p.client.Connect(), p.cfg.Timeout); err != nil {
		return fmt.Errorf("connecting to %s: %w", p.cfg.Broker, err)
	}
	p.logger.Info("connected to mqtt broker", zap.String("broker", p.cfg.Broker))
	return nil
}

func (p *Publisher) topic(eventTopic string) string {
	return strings.TrimSuffix(p.cfg.TopicPrefix, "/") + "/" + eventTopic
}

func (p *Publisher) Handle(e event.Event) {
	bb, err := json.Marshal(message{
		ID:         e.ID,
		Topics:     e.Topics,
		OccurredAt: e.OccurredAt,
		Data:       e.Data,
	})
	if err != nil {
		p.logger.Warn("failed to encode event", zap.String("eventID", e.ID), zap.Error(err))
		return
	}

	for _, t := range e.Topics {
		if len(p.cfg.Events) > 0 && !contains(p.cfg.Events, t) {
			continue
		}

		if err := wait(p.client.Publish(p.topic(t), p.cfg.QoS, p.cfg.Retained, bb), p.cfg.Timeout); err != nil {
			p.logger.Warn("failed to publish event",
				zap.String("eventID", e.ID),
				zap.String("topic", p.topic(t)),
				zap.Error(err),
			)
		}
	}
}

func (p *Publisher) Attach(bus event.Bus) string {
	id, _ := bus.AttachHandler("mqtt", p, p.cfg.Events...)
	return id
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
