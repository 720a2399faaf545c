package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wonderwomen/internal/store/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStorage struct {
	*kv.Memory
	mu       sync.Mutex
	failures int // 前 n 次写入失败
	puts     []uint64
}

func (f *failingStorage) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("unavailable")
	}
	return f.Memory.Put(ctx, key, value)
}

func TestRetryEventuallySaves(t *testing.T) {
	storage := &failingStorage{Memory: kv.NewMemory(), failures: 2}
	pool := NewWorkerPool(storage, 1, 4, 3)
	pool.Backoff = time.Millisecond
	pool.Start()
	defer pool.Stop()

	pool.AddTask(SaveTask{Key: "data", Payload: []byte(`{"v":1}`), Version: 1})

	require.Eventually(t, func() bool {
		got, err := storage.Memory.Get(context.Background(), "data")
		return err == nil && string(got) == `{"v":1}`
	}, time.Second, 5*time.Millisecond)
}

func TestStaleTaskIsSkipped(t *testing.T) {
	storage := &failingStorage{Memory: kv.NewMemory()}
	pool := NewWorkerPool(storage, 1, 4, 3)
	pool.MarkPersisted("data", 5)

	require.NoError(t, pool.processTask(SaveTask{Key: "data", Payload: []byte("old"), Version: 3}))
	_, err := storage.Memory.Get(context.Background(), "data")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestMarkPersistedNeverGoesBackwards(t *testing.T) {
	pool := NewWorkerPool(kv.NewMemory(), 1, 4, 3)
	pool.MarkPersisted("data", 7)
	pool.MarkPersisted("data", 4)
	assert.Equal(t, uint64(7), pool.version("data").Load())
}

func TestAddTaskDropsWhenQueueFull(t *testing.T) {
	pool := NewWorkerPool(kv.NewMemory(), 1, 2, 3)
	// 未启动 worker，队列不会被消费
	pool.AddTask(SaveTask{Key: "data", Version: 1})
	pool.AddTask(SaveTask{Key: "data", Version: 2})
	pool.AddTask(SaveTask{Key: "data", Version: 3})
	assert.Len(t, pool.TaskQueue, 2)
}

func TestSaverReplacesDirectWrite(t *testing.T) {
	storage := &failingStorage{Memory: kv.NewMemory()}
	pool := NewWorkerPool(storage, 1, 4, 3)

	var got []uint64
	pool.SetSaver(func(_ context.Context, task SaveTask) error {
		got = append(got, task.Version)
		return nil
	})
	pool.MarkPersisted("data", 9)

	require.NoError(t, pool.processTask(SaveTask{Key: "data", Payload: []byte("x"), Version: 3}))
	assert.Equal(t, []uint64{3}, got, "the saver decides about stale versions")
	_, err := storage.Memory.Get(context.Background(), "data")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
