package publish

import "time"

// KafkaOption configures KafkaPublisher.
type KafkaOption func(*KafkaConfig)

// KafkaConfig holds producer configuration.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	RequiredAcks int
	Compression  string // gzip | snappy | lz4 | zstd
	MaxAttempts  int
	WriteTimeout time.Duration
	BatchSize    int
	BatchTimeout time.Duration
}

// WithBrokers sets the broker addresses.
func WithBrokers(brokers []string) KafkaOption {
	return func(c *KafkaConfig) {
		c.Brokers = brokers
	}
}

// WithTopic sets the destination topic.
func WithTopic(topic string) KafkaOption {
	return func(c *KafkaConfig) {
		c.Topic = topic
	}
}

// WithRequiredAcks sets required acks (-1 all, 0 none, 1 leader).
func WithRequiredAcks(acks int) KafkaOption {
	return func(c *KafkaConfig) {
		c.RequiredAcks = acks
	}
}

// WithCompression sets the compression codec.
func WithCompression(compression string) KafkaOption {
	return func(c *KafkaConfig) {
		c.Compression = compression
	}
}

// WithMaxAttempts sets the delivery attempts per batch.
func WithMaxAttempts(n int) KafkaOption {
	return func(c *KafkaConfig) {
		c.MaxAttempts = n
	}
}

// WithWriteTimeout sets the write timeout.
func WithWriteTimeout(d time.Duration) KafkaOption {
	return func(c *KafkaConfig) {
		c.WriteTimeout = d
	}
}

// WithBatching sets batch size and linger time.
func WithBatching(size int, timeout time.Duration) KafkaOption {
	return func(c *KafkaConfig) {
		c.BatchSize = size
		c.BatchTimeout = timeout
	}
}
