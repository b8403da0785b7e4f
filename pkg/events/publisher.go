// Package events publishes audit events for dispatched voice commands.
package events

import (
	"context"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"VoxMail/pkg/metrics"
)

const DefaultTopic = "voxmail.voice.commands"

type IPublisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

type Config struct {
	Brokers   []string
	Topic     string
	Principal string
	Enabled   bool
}

// ConfigFromEnv reads KAFKA_BROKERS (comma separated), KAFKA_TOPIC and
// KAFKA_ENABLED.
func ConfigFromEnv() *Config {
	cfg := &Config{
		Topic:     os.Getenv("KAFKA_TOPIC"),
		Principal: os.Getenv("KAFKA_PRINCIPAL"),
		Enabled:   os.Getenv("KAFKA_ENABLED") == "true",
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.Principal == "" {
		cfg.Principal = "voxmail"
	}
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.Brokers = append(cfg.Brokers, b)
		}
	}
	return cfg
}

type Publisher struct {
	writer    *kafka.Writer
	topic     string
	principal string
	enabled   bool
	log       *logrus.Logger
	metrics   *metrics.Metrics
}

// New builds a publisher. Without brokers, or when disabled, events are
// only logged.
func New(cfg *Config, log *logrus.Logger, m *metrics.Metrics) *Publisher {
	if m == nil {
		m = metrics.DefaultMetrics
	}

	if cfg == nil {
		log.Info("Kafka disabled (nil config), using log-only mode")
		return &Publisher{topic: DefaultTopic, log: log, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info("Kafka disabled, using log-only mode")
		return &Publisher{
			topic:     cfg.Topic,
			principal: cfg.Principal,
			log:       log,
			metrics:   m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.WithFields(logrus.Fields{
		"brokers":   cfg.Brokers,
		"topic":     cfg.Topic,
		"principal": cfg.Principal,
	}).Info("Kafka publisher initialized")

	return &Publisher{
		writer:    writer,
		topic:     cfg.Topic,
		principal: cfg.Principal,
		enabled:   true,
		log:       log,
		metrics:   m,
	}
}

func (p *Publisher) Enabled() bool {
	return p.enabled
}

func (p *Publisher) Publish(ctx context.Context, key string, event any) error {
	start := time.Now()

	payload, err := jsoniter.Marshal(event)
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"topic": p.topic,
			"error": err.Error(),
		}).Error("Failed to marshal event")
		return err
	}

	p.log.WithFields(logrus.Fields{
		"principal": p.principal,
		"topic":     p.topic,
		"key":       key,
		"payload":   string(payload),
	}).Debug("Publishing event")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordKafkaPublish(p.topic, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte("voice_command")},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.WithFields(logrus.Fields{
			"topic": p.topic,
			"key":   key,
			"error": err.Error(),
		}).Error("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(p.topic, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(p.topic, nil, time.Since(start).Seconds())
	return nil
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		p.log.WithError(err).Error("Error closing Kafka writer")
		return err
	}
	return nil
}
