package kafka

import "time"

// Config contains Kafka transport configuration loaded from environment
// variables via core/config. The small batch timeout trades throughput for
// the low publish latency an event bus wants.
type Config struct {
	Brokers        []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	Topic          string        `env:"RELAY_KAFKA_TOPIC" envDefault:"relay.events"`
	GroupID        string        `env:"RELAY_KAFKA_GROUP_ID"`
	BatchTimeout   time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"10ms"`
	WriteTimeout   time.Duration `env:"KAFKA_WRITE_TIMEOUT" envDefault:"10s"`
	MinBytes       int           `env:"KAFKA_MIN_BYTES" envDefault:"1"`
	MaxBytes       int           `env:"KAFKA_MAX_BYTES" envDefault:"10485760"`
	MaxWait        time.Duration `env:"KAFKA_MAX_WAIT" envDefault:"500ms"`
	AllowAutoTopic bool          `env:"KAFKA_ALLOW_AUTO_TOPIC" envDefault:"true"`
	RetryAttempts  int           `env:"KAFKA_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"KAFKA_RETRY_INTERVAL" envDefault:"5s"`
}

// withDefaults fills the zero fields a hand-built Config leaves empty.
func (c Config) withDefaults() Config {
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 10 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MinBytes <= 0 {
		c.MinBytes = 1
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10e6
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 500 * time.Millisecond
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 5 * time.Second
	}
	return c
}
