package relay

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig kafka config struct
type KafkaConfig struct {
	Brokers      []string      `json:"brokers" yaml:"brokers"`
	ClientID     string        `json:"client_id" yaml:"client_id"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a kafka topic keyed by job id
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a synchronous writer for cfg.Brokers
func NewKafkaPublisher(cfg *KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	transport := &kafka.Transport{ClientID: cfg.ClientID}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           cfg.WriteTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			Transport:              transport,
		},
	}, nil
}

// Name implements Publisher
func (p *KafkaPublisher) Name() string { return "kafka" }

// Publish implements Publisher
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Body,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(msg.Event)},
		},
		Time: time.Now(),
	})
}

// Close implements Publisher
func (p *KafkaPublisher) Close() error { return p.writer.Close() }
