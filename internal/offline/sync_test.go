package offline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahid-dev/restopos/internal/api"
	"github.com/shahid-dev/restopos/internal/offline"
	"github.com/shahid-dev/restopos/internal/storage"
)

type mockSender struct {
	mu         sync.Mutex
	createFunc func(ctx context.Context, req api.OrderRequest, key string) (*api.Order, error)
	updateFunc func(ctx context.Context, id string, req api.OrderRequest) (*api.Order, error)
	calls      []string // idempotency keys, in call order
	customers  []string
	updateIDs  []string
}

func (m *mockSender) CreateOrder(ctx context.Context, req api.OrderRequest, key string) (*api.Order, error) {
	m.mu.Lock()
	m.calls = append(m.calls, key)
	m.customers = append(m.customers, req.CustomerName)
	m.mu.Unlock()
	return m.createFunc(ctx, req, key)
}

func (m *mockSender) UpdateOrder(ctx context.Context, id string, req api.OrderRequest) (*api.Order, error) {
	m.mu.Lock()
	m.updateIDs = append(m.updateIDs, id)
	m.customers = append(m.customers, req.CustomerName)
	m.mu.Unlock()
	return m.updateFunc(ctx, id, req)
}

func (m *mockSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls) + len(m.updateIDs)
}

func TestEngine_FlushSendsInInsertionOrderAndClears(t *testing.T) {
	q := offline.NewQueue(storage.NewMemStore())
	first, err := q.Enqueue(orderReq("Ali"), "")
	require.NoError(t, err)
	second, err := q.Enqueue(orderReq("Sara"), "")
	require.NoError(t, err)

	sender := &mockSender{createFunc: func(ctx context.Context, req api.OrderRequest, key string) (*api.Order, error) {
		return &api.Order{OrderID: "ORD-" + key}, nil
	}}

	engine := offline.NewEngine(q, sender)
	sent, err := engine.Flush(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{first.ID, second.ID}, sender.calls)
	assert.Equal(t, []string{"Ali", "Sara"}, sender.customers)
	assert.Zero(t, q.Len())
}

func TestEngine_FlushEmptyQueueIsNoop(t *testing.T) {
	q := offline.NewQueue(storage.NewMemStore())
	sender := &mockSender{createFunc: func(ctx context.Context, req api.OrderRequest, key string) (*api.Order, error) {
		return &api.Order{}, nil
	}}

	sent, err := offline.NewEngine(q, sender).Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, sender.callCount())
}

func TestEngine_FailureRetainsFailedSuffix(t *testing.T) {
	q := offline.NewQueue(storage.NewMemStore())
	_, err := q.Enqueue(orderReq("Ali"), "")
	require.NoError(t, err)
	_, err = q.Enqueue(orderReq("Sara"), "")
	require.NoError(t, err)
	_, err = q.Enqueue(orderReq("Omar"), "")
	require.NoError(t, err)

	sendErr := errors.New("connection reset")
	sender := &mockSender{createFunc: func(ctx context.Context, req api.OrderRequest, key string) (*api.Order, error) {
		if req.CustomerName == "Sara" {
			return nil, sendErr
		}
		return &api.Order{OrderID: "ORD-1"}, nil
	}}

	engine := offline.NewEngine(q, sender)
	sent, err := engine.Flush(context.Background())
	require.ErrorIs(t, err, sendErr)
	assert.Equal(t, 1, sent)

	// Only the accepted prefix is gone; the failed entry and everything
	// after it stay queued in order. Omar was never attempted.
	pending := q.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "Sara", pending[0].Request.CustomerName)
	assert.Equal(t, "Omar", pending[1].Request.CustomerName)
	assert.Equal(t, []string{"Ali", "Sara"}, sender.customers)
}

func TestEngine_RetryAfterFailureReusesIdempotencyKey(t *testing.T) {
	q := offline.NewQueue(storage.NewMemStore())
	entry, err := q.Enqueue(orderReq("Ali"), "")
	require.NoError(t, err)

	attempts := 0
	sender := &mockSender{}
	sender.createFunc = func(ctx context.Context, req api.OrderRequest, key string) (*api.Order, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("timeout")
		}
		return &api.Order{OrderID: "ORD-1"}, nil
	}

	engine := offline.NewEngine(q, sender)

	_, err = engine.Flush(context.Background())
	require.Error(t, err)
	_, err = engine.Flush(context.Background())
	require.NoError(t, err)

	require.Len(t, sender.calls, 2)
	assert.Equal(t, entry.ID, sender.calls[0])
	assert.Equal(t, entry.ID, sender.calls[1], "a retried entry must present the same idempotency key")
	assert.Zero(t, q.Len())
}

func TestEngine_ConcurrentFlushesShareOnePass(t *testing.T) {
	q := offline.NewQueue(storage.NewMemStore())
	_, err := q.Enqueue(orderReq("Ali"), "")
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	sender := &mockSender{createFunc: func(ctx context.Context, req api.OrderRequest, key string) (*api.Order, error) {
		close(started)
		<-release
		return &api.Order{OrderID: "ORD-1"}, nil
	}}

	engine := offline.NewEngine(q, sender)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = engine.Flush(context.Background())
	}()

	<-started
	go func() {
		defer wg.Done()
		// Arrives while the first flush is blocked in the sender; it must
		// join that pass, not start a second one.
		_, _ = engine.Flush(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, sender.callCount())
	assert.Zero(t, q.Len())
}

func TestEngine_EnqueueDuringFlushStaysQueued(t *testing.T) {
	q := offline.NewQueue(storage.NewMemStore())
	_, err := q.Enqueue(orderReq("Ali"), "")
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	sender := &mockSender{createFunc: func(ctx context.Context, req api.OrderRequest, key string) (*api.Order, error) {
		close(started)
		<-release
		return &api.Order{OrderID: "ORD-1"}, nil
	}}

	engine := offline.NewEngine(q, sender)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.Flush(context.Background())
	}()

	// An order placed while the flush is blocked in the sender must not be
	// wiped out when the flush clears the entries it sent.
	<-started
	sara, err := q.Enqueue(orderReq("Sara"), "")
	require.NoError(t, err)

	close(release)
	<-done

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, sara.ID, pending[0].ID)

	sender.createFunc = func(ctx context.Context, req api.OrderRequest, key string) (*api.Order, error) {
		return &api.Order{OrderID: "ORD-2"}, nil
	}
	sent, err := engine.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"Ali", "Sara"}, sender.customers)
	assert.Zero(t, q.Len())
}

func TestEngine_QueuedUpdateReplaysAsUpdate(t *testing.T) {
	q := offline.NewQueue(storage.NewMemStore())
	_, err := q.Enqueue(orderReq("Ali"), "o-42")
	require.NoError(t, err)

	sender := &mockSender{updateFunc: func(ctx context.Context, id string, req api.OrderRequest) (*api.Order, error) {
		return &api.Order{ID: id, OrderID: "ORD-42"}, nil
	}}

	sent, err := offline.NewEngine(q, sender).Flush(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sent)
	assert.Empty(t, sender.calls, "an update must not be replayed as a creation")
	assert.Equal(t, []string{"o-42"}, sender.updateIDs)
	assert.Zero(t, q.Len())
}
