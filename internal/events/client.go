// Package events publishes expense changes to an AMQP exchange.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/m3rciful/expensebot/core/logger"
)

// Config selects the broker and topology. An empty URL disables publishing.
type Config struct {
	AMQPURL  string `yaml:"amqp_url" envconfig:"AMQP_URL"`
	Exchange string `yaml:"exchange" envconfig:"AMQP_EXCHANGE"`
	Queue    string `yaml:"queue" envconfig:"AMQP_QUEUE"`
	// PublishTimeoutSeconds bounds one publish; 0 -> 5s.
	PublishTimeoutSeconds int `yaml:"publish_timeout_seconds"`
}

const (
	defaultExchange       = "expensebot"
	defaultQueue          = "expense-events"
	defaultPublishTimeout = 5 * time.Second
)

// Enabled reports whether a broker URL is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// Normalize fills defaults.
func (c *Config) Normalize() error {
	c.AMQPURL = strings.TrimSpace(c.AMQPURL)
	if c.Exchange = strings.TrimSpace(c.Exchange); c.Exchange == "" {
		c.Exchange = defaultExchange
	}
	if c.Queue = strings.TrimSpace(c.Queue); c.Queue == "" {
		c.Queue = defaultQueue
	}
	if c.PublishTimeoutSeconds < 0 {
		return fmt.Errorf("events.publish_timeout_seconds must be >= 0")
	}
	return nil
}

func (c Config) publishTimeout() time.Duration {
	if c.PublishTimeoutSeconds > 0 {
		return time.Duration(c.PublishTimeoutSeconds) * time.Second
	}
	return defaultPublishTimeout
}

// Publisher delivers expense messages.
type Publisher interface {
	Publish(ctx context.Context, msg ExpenseMessage) error
	Close() error
}

// Client publishes to a durable direct exchange with one bound queue.
type Client struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	cfg     Config
}

// Dial connects to the broker and declares the exchange and queue.
func Dial(cfg Config) (*Client, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	conn, err := amqp091.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	c := &Client{conn: conn, channel: ch, cfg: cfg}
	if err := c.setup(); err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	logger.LogEvent(context.Background(), logger.Events, slog.LevelInfo, "events.connected",
		slog.String("exchange", cfg.Exchange),
		slog.String("queue", cfg.Queue),
	)
	return c, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.cfg.Exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range []string{KindCreated, KindDeleted} {
		if err := c.channel.QueueBind(c.cfg.Queue, key, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", key, err)
		}
	}
	return nil
}

// Publish sends msg as a persistent JSON message routed by its kind.
func (c *Client) Publish(ctx context.Context, msg ExpenseMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.publishTimeout())
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.cfg.Exchange, msg.Kind, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Kind, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Discard drops every message. Used when no broker is configured.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, ExpenseMessage) error { return nil }

// Close implements Publisher.
func (Discard) Close() error { return nil }

// Open dials the broker when cfg is enabled and returns Discard otherwise.
func Open(cfg Config) (Publisher, error) {
	if !cfg.Enabled() {
		return Discard{}, nil
	}
	return Dial(cfg)
}
