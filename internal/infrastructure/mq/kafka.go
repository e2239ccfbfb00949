package mq

import (
	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendingmachine/internal/config"
)

// Sender publishes one keyed message to a topic.
type Sender interface {
	SendMessage(topic, key, value string) error
	Close() error
}

// KafkaSender publishes through a sarama SyncProducer.
type KafkaSender struct {
	producer sarama.SyncProducer
}

// NewProducerConfig returns the producer settings used for outbox relay:
// acks from all replicas, three retries, successes reported back.
func NewProducerConfig() *sarama.Config {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true
	return kafkaConfig
}

// InitKafka connects a SyncProducer to the configured brokers.
func InitKafka(cfg *config.KafkaConfig) (*KafkaSender, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewProducerConfig())
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}

	zap.S().Infof("[Kafka] producer connected: %v", cfg.Brokers)
	return NewKafkaSender(producer), nil
}

// NewKafkaSender wraps an existing producer.
func NewKafkaSender(producer sarama.SyncProducer) *KafkaSender {
	return &KafkaSender{producer: producer}
}

// SendMessage implements Sender.
func (k *KafkaSender) SendMessage(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}

	_, _, err := k.producer.SendMessage(msg)
	return err
}

// Close implements Sender.
func (k *KafkaSender) Close() error {
	if k.producer == nil {
		return nil
	}
	return k.producer.Close()
}

// LogSender stands in for Kafka when the broker is disabled; messages are
// only written to the log.
type LogSender struct{}

func (LogSender) SendMessage(topic, key, value string) error {
	zap.S().Infow("[Outbox] kafka disabled, message logged", "topic", topic, "key", key, "payload", value)
	return nil
}

func (LogSender) Close() error { return nil }
