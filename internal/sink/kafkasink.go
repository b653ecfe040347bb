package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/event"
	"github.com/shortontech/devprint/internal/metrics"
	"github.com/shortontech/devprint/pkg/config"
)

const (
	schemaVersion = "v1"
	flushTimeout  = 10 * 1000 // ms
)

// KafkaSink produces capture events keyed by fingerprint hash, so every
// capture of one device lands on the same partition.
type KafkaSink struct {
	cfg      config.KafkaConfig
	metrics  *metrics.Metrics
	producer *kafka.Producer
	done     chan struct{}
}

func NewKafkaSink(cfg config.KafkaConfig, m *metrics.Metrics) *KafkaSink {
	return &KafkaSink{cfg: cfg, metrics: m}
}

func (s *KafkaSink) Name() string { return "kafka" }

func kafkaConfigMap(cfg config.KafkaConfig) kafka.ConfigMap {
	cm := kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"acks":              cfg.Acks,
		"retries":           10,
		"retry.backoff.ms":  100,
	}
	if cfg.ClientID != "" {
		cm["client.id"] = cfg.ClientID
	}
	if cfg.LingerMs > 0 {
		cm["linger.ms"] = cfg.LingerMs
	}
	if cfg.BatchBytes > 0 {
		cm["batch.size"] = cfg.BatchBytes
	}
	if cfg.Compression != "" {
		cm["compression.type"] = cfg.Compression
	}

	if cfg.SASLMechanism != "" {
		cm["security.protocol"] = "SASL_SSL"
		cm["sasl.mechanism"] = cfg.SASLMechanism
		if cfg.SASLUser != "" {
			cm["sasl.username"] = cfg.SASLUser
		}
		if cfg.SASLPassword != "" {
			cm["sasl.password"] = cfg.SASLPassword
		}
	}
	if cfg.TLSCAPath != "" {
		if cfg.SASLMechanism == "" {
			cm["security.protocol"] = "SSL"
		}
		cm["ssl.ca.location"] = cfg.TLSCAPath
	}
	if cfg.TLSSkipVerify {
		cm["ssl.endpoint.identification.algorithm"] = "none"
	}
	return cm
}

func (s *KafkaSink) Start(ctx context.Context) error {
	cm := kafkaConfigMap(s.cfg)
	producer, err := kafka.NewProducer(&cm)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	s.producer = producer
	s.done = make(chan struct{})
	go s.handleDeliveryReports(log.Ctx(ctx))
	return nil
}

func newMessage(topic string, e event.Event) (*kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("serialize event: %w", err)
	}
	key := e.Fingerprint.Hash
	if key == "" {
		key = e.EventID
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.EventID)},
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "schema", Value: []byte(schemaVersion)},
		},
	}, nil
}

func (s *KafkaSink) Enqueue(e event.Event) error {
	if s.producer == nil {
		return errNotStarted
	}
	msg, err := newMessage(s.cfg.Topic, e)
	if err != nil {
		return err
	}
	if err := s.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("produce: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s.producer == nil {
		return nil
	}
	remaining := s.producer.Flush(flushTimeout)
	s.producer.Close()
	<-s.done
	s.producer = nil
	if remaining > 0 {
		return fmt.Errorf("%d messages not flushed", remaining)
	}
	return nil
}

// handleDeliveryReports drains producer events until Close closes the
// channel, regardless of the Start context. Flush counts undrained events
// as pending.
func (s *KafkaSink) handleDeliveryReports(logger *zerolog.Logger) {
	defer close(s.done)
	for ev := range s.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if err := e.TopicPartition.Error; err != nil {
				s.metrics.IncrementSinkErrors(s.Name(), "delivery")
				logger.Error().Err(err).Str("key", string(e.Key)).Msg("kafka delivery failed")
			}
		case kafka.Error:
			s.metrics.IncrementSinkErrors(s.Name(), "client")
			logger.Warn().Err(e).Bool("fatal", e.IsFatal()).Msg("kafka client error")
		}
	}
}
