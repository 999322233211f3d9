package relay

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/ncobase/rendercore/event"
	"github.com/ncobase/rendercore/logging/logger"
)

// ProviderSet is the wire provider set for the relay package.
var ProviderSet = wire.NewSet(ProvideRelay)

// Targets selects the brokers to publish to, nil ones are skipped
type Targets struct {
	Redis    *RedisConfig
	Kafka    *KafkaConfig
	RabbitMQ *RabbitMQConfig
}

// ProvideRelay connects the configured brokers and attaches the relay to bus.
// A broker that cannot be reached is logged and left out. The cleanup
// function flushes and closes the relay.
func ProvideRelay(cfg *Config, targets *Targets, bus *event.Bus) (*Relay, func(), error) {
	ctx := context.Background()
	var pubs []Publisher

	if targets != nil {
		if targets.Redis != nil && targets.Redis.Addr != "" {
			if p, err := NewRedisPublisher(ctx, targets.Redis); err != nil {
				logger.Errorf(ctx, "relay: %v", err)
			} else {
				pubs = append(pubs, p)
			}
		}
		if targets.Kafka != nil && len(targets.Kafka.Brokers) > 0 {
			if p, err := NewKafkaPublisher(targets.Kafka); err != nil {
				logger.Errorf(ctx, "relay: %v", err)
			} else {
				pubs = append(pubs, p)
			}
		}
		if targets.RabbitMQ != nil && targets.RabbitMQ.URL != "" {
			if p, err := NewRabbitPublisher(targets.RabbitMQ); err != nil {
				logger.Errorf(ctx, "relay: %v", err)
			} else {
				pubs = append(pubs, p)
			}
		}
	}

	r := New(cfg, pubs...)
	r.Attach(bus)
	r.Start(ctx)
	if len(pubs) > 0 {
		logger.Infof(ctx, "relaying job events to %v", r.Publishers())
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.Close(ctx); err != nil {
			logger.Errorf(ctx, "relay close: %v", err)
		}
	}
	return r, cleanup, nil
}
