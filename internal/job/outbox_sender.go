package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"vendingmachine/internal/config"
	"vendingmachine/internal/infrastructure/mq"
	"vendingmachine/internal/model"
	"vendingmachine/internal/repository"
)

// OutboxSender relays pending outbox messages to the broker. A message that
// keeps failing is marked FAILED after maxRetry attempts and left for manual
// replay.
type OutboxSender struct {
	outboxRepo repository.OutboxRepository
	sender     mq.Sender
	stopCh     chan struct{}
	stopOnce   sync.Once
	interval   time.Duration
	batchSize  int
	maxRetry   int
}

func NewOutboxSender(outboxRepo repository.OutboxRepository, sender mq.Sender, cfg *config.BusinessConfig) *OutboxSender {
	s := &OutboxSender{
		outboxRepo: outboxRepo,
		sender:     sender,
		stopCh:     make(chan struct{}),
		interval:   time.Duration(cfg.OutboxIntervalMs) * time.Millisecond,
		batchSize:  cfg.OutboxBatchSize,
		maxRetry:   cfg.MaxRetryCount,
	}
	if s.interval <= 0 {
		s.interval = 100 * time.Millisecond
	}
	if s.batchSize <= 0 {
		s.batchSize = 100
	}
	if s.maxRetry <= 0 {
		s.maxRetry = 3
	}
	return s
}

func (s *OutboxSender) Start(ctx context.Context) {
	zap.S().Info("[OutboxSender] started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("[OutboxSender] context cancelled, exiting")
			return
		case <-s.stopCh:
			zap.S().Info("[OutboxSender] stopped")
			return
		case <-ticker.C:
			s.ProcessPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// ProcessPendingMessages sends one batch. It returns the number of messages
// delivered.
func (s *OutboxSender) ProcessPendingMessages(ctx context.Context) int {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		zap.S().Errorf("[OutboxSender] query pending messages: %v", err)
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.sendMessage(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) bool {
	err := s.sender.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)

	if err == nil {
		if updateErr := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			zap.S().Errorf("[OutboxSender] mark sent: id=%d, err=%v", msg.ID, updateErr)
			return false
		}
		zap.S().Debugf("[OutboxSender] sent: id=%d, topic=%s, key=%s", msg.ID, msg.Topic, msg.MessageKey)
		return true
	}

	zap.S().Warnf("[OutboxSender] send failed: id=%d, attempt=%d, err=%v", msg.ID, msg.RetryCount+1, err)

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		zap.S().Errorf("[OutboxSender] increment retry count: id=%d, err=%v", msg.ID, err)
	}

	if msg.RetryCount+1 >= s.maxRetry {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			zap.S().Errorf("[OutboxSender] mark failed: id=%d, err=%v", msg.ID, err)
		} else {
			zap.S().Warnf("[OutboxSender] retries exhausted, marked FAILED: id=%d", msg.ID)
		}
	}
	return false
}
