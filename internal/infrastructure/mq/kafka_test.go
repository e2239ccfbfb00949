package mq

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaSenderSendMessage(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewProducerConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		assert.Equal(t, `{"order_no":"ORD1"}`, string(val))
		return nil
	})

	sender := NewKafkaSender(producer)
	require.NoError(t, sender.SendMessage("vending.purchase", "ORD1", `{"order_no":"ORD1"}`))
	require.NoError(t, sender.Close())
}

func TestKafkaSenderPropagatesFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewProducerConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sender := NewKafkaSender(producer)
	err := sender.SendMessage("vending.purchase", "ORD2", "{}")
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, sender.Close())
}

func TestProducerConfig(t *testing.T) {
	cfg := NewProducerConfig()
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.True(t, cfg.Producer.Return.Successes)
}

func TestLogSender(t *testing.T) {
	var s Sender = LogSender{}
	assert.NoError(t, s.SendMessage("t", "k", "v"))
	assert.NoError(t, s.Close())
}
