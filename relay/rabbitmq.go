package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConfig rabbitmq config struct
type RabbitMQConfig struct {
	URL               string        `json:"url" yaml:"url"`
	Exchange          string        `json:"exchange" yaml:"exchange"`
	HeartbeatInterval time.Duration `json:"heartbeat_interval" yaml:"heartbeat_interval"`
}

// RabbitPublisher publishes events to a topic exchange, routed by event name
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

// NewRabbitPublisher dials cfg.URL and declares the exchange
func NewRabbitPublisher(cfg *RabbitMQConfig) (*RabbitPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is not configured")
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = "rendercore"
	}

	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 10 * time.Second
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{Heartbeat: heartbeat})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect error: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // exchange name
		"topic",  // exchange type
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Name implements Publisher
func (p *RabbitPublisher) Name() string { return "rabbitmq" }

// Publish implements Publisher
func (p *RabbitPublisher) Publish(ctx context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn.IsClosed() {
		return errors.New("rabbitmq connection is not available")
	}

	err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		msg.Topic+"."+msg.Event, // routing key, e.g. rendercore.jobs.job.completed
		false,                   // mandatory
		false,                   // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   string(msg.Key),
			Timestamp:   time.Now(),
			Type:        msg.Event,
			Body:        msg.Body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close implements Publisher
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.ch.Close()
	return p.conn.Close()
}
