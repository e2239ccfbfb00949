package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendingmachine/internal/config"
	"vendingmachine/internal/model"
	"vendingmachine/internal/repository/memory"
)

type recordingSender struct {
	mu   sync.Mutex
	fail bool
	sent []string
}

func (r *recordingSender) SendMessage(topic, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broker unavailable")
	}
	r.sent = append(r.sent, topic+"/"+key)
	return nil
}

func (r *recordingSender) Close() error { return nil }

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func seed(t *testing.T, store *memory.Store, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, store.Outbox().Create(context.Background(), &model.OutboxMessage{
			MessageKey: k,
			EventType:  model.EventPurchaseCompleted,
			Topic:      "vending.purchase",
			Payload:    `{}`,
		}))
	}
}

func TestProcessPendingMessages(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store, "a", "b")
	sender := &recordingSender{}
	job := NewOutboxSender(store.Outbox(), sender, &config.BusinessConfig{MaxRetryCount: 3})

	assert.Equal(t, 2, job.ProcessPendingMessages(ctx))
	assert.Equal(t, []string{"vending.purchase/a", "vending.purchase/b"}, sender.sent)

	pending, err := store.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 0, job.ProcessPendingMessages(ctx))
}

func TestFailedMessagesAreRetriedThenMarkedFailed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store, "a")
	sender := &recordingSender{fail: true}
	job := NewOutboxSender(store.Outbox(), sender, &config.BusinessConfig{MaxRetryCount: 2})

	job.ProcessPendingMessages(ctx)
	pending, err := store.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)

	job.ProcessPendingMessages(ctx)
	pending, err = store.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	sender.fail = false
	assert.Equal(t, 0, job.ProcessPendingMessages(ctx))
	assert.Zero(t, sender.count())
}

func TestStartStop(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "a")
	sender := &recordingSender{}
	job := NewOutboxSender(store.Outbox(), sender, &config.BusinessConfig{OutboxIntervalMs: 5})

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)
	job.Stop()
	job.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender did not stop")
	}
}
