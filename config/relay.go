package config

import (
	"time"

	"github.com/ncobase/rendercore/relay"
	"github.com/spf13/viper"
)

// Relay event relay config struct
type Relay struct {
	*relay.Config
	Targets *relay.Targets
}

// getRelayConfig reads the event relay and its brokers. A broker section
// without an address is left nil.
func getRelayConfig(v *viper.Viper) *Relay {
	def := relay.DefaultConfig()
	cfg := &Relay{
		Config: &relay.Config{
			Topic:          getStringOrDefault(v, "relay.topic", def.Topic),
			Buffer:         getIntOrDefault(v, "relay.buffer", def.Buffer),
			PublishTimeout: getDurationOrDefault(v, "relay.publish_timeout", def.PublishTimeout),
		},
		Targets: &relay.Targets{},
	}

	if addr := v.GetString("relay.redis.addr"); addr != "" {
		cfg.Targets.Redis = &relay.RedisConfig{
			Addr:         addr,
			Username:     v.GetString("relay.redis.username"),
			Password:     v.GetString("relay.redis.password"),
			Db:           v.GetInt("relay.redis.db"),
			DialTimeout:  getDurationOrDefault(v, "relay.redis.dial_timeout", 5*time.Second),
			WriteTimeout: getDurationOrDefault(v, "relay.redis.write_timeout", 3*time.Second),
		}
	}
	if brokers := v.GetStringSlice("relay.kafka.brokers"); len(brokers) > 0 {
		cfg.Targets.Kafka = &relay.KafkaConfig{
			Brokers:      brokers,
			ClientID:     getStringOrDefault(v, "relay.kafka.client_id", "rendercore"),
			WriteTimeout: getDurationOrDefault(v, "relay.kafka.write_timeout", 10*time.Second),
		}
	}
	if url := v.GetString("relay.rabbitmq.url"); url != "" {
		cfg.Targets.RabbitMQ = &relay.RabbitMQConfig{
			URL:               url,
			Exchange:          v.GetString("relay.rabbitmq.exchange"),
			HeartbeatInterval: getDurationOrDefault(v, "relay.rabbitmq.heartbeat_interval", 10*time.Second),
		}
	}
	return cfg
}
