package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"wonderwomen/internal/store/kv"
	"wonderwomen/pkg/logger"
	"wonderwomen/pkg/metrics"

	"go.uber.org/zap"
)

// SaveTask 一次失败的文档写入
// Version 为文档版本号，重试前如果已有更新的版本写入成功则直接丢弃
type SaveTask struct {
	Key     string
	Payload []byte
	Version uint64
	Retry   int // 重试次数
}

// SaveFunc 由文档所有者执行重试写入，需自行保证与正常写入互斥并跳过过期版本
type SaveFunc func(ctx context.Context, task SaveTask) error

type WorkerPool struct {
	TaskQueue  chan SaveTask
	RetryQueue chan SaveTask // 重试队列
	Storage    kv.Storage
	WorkerNum  int
	MaxRetry   int           // 最大重试次数
	Backoff    time.Duration // 第 n 次重试前等待 n*Backoff

	persisted sync.Map // key -> *atomic.Uint64，已成功写入的最新版本
	saver     atomic.Pointer[SaveFunc]
	log       *zap.Logger
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewWorkerPool(storage kv.Storage, workerNum int, bufferSize int, maxRetry int) *WorkerPool {
	if bufferSize < 2 {
		bufferSize = 2
	}
	return &WorkerPool{
		TaskQueue:  make(chan SaveTask, bufferSize),
		RetryQueue: make(chan SaveTask, bufferSize/2),
		Storage:    storage,
		WorkerNum:  workerNum,
		MaxRetry:   maxRetry,
		Backoff:    time.Second,
		log:        logger.Named("save-worker"),
		done:       make(chan struct{}),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	p.log.Info("worker pool started", zap.Int("workers", p.WorkerNum))
}

// Stop 停止所有协程，未处理的任务丢弃（内存状态仍以 store 为准）
func (p *WorkerPool) Stop() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case task := <-p.TaskQueue:
			p.handle(id, task)
		}
	}
}

func (p *WorkerPool) handle(id int, task SaveTask) {
	err := p.processTask(task)
	if err == nil {
		return
	}
	p.log.Warn("failed to save document",
		zap.Int("worker", id), zap.String("key", task.Key),
		zap.Uint64("version", task.Version), zap.Error(err))

	// 如果未达到最大重试次数，加入重试队列
	if task.Retry < p.MaxRetry {
		task.Retry++
		select {
		case p.RetryQueue <- task:
		default:
			p.logFailedTask(task, err)
		}
		return
	}
	p.logFailedTask(task, err)
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			select {
			case <-time.After(time.Duration(task.Retry) * p.Backoff):
			case <-p.done:
				return
			}

			// 重新加入主队列
			select {
			case p.TaskQueue <- task:
			default:
				p.logFailedTask(task, nil)
			}
		}
	}
}

// SetSaver 替换默认的直接写入
func (p *WorkerPool) SetSaver(fn SaveFunc) {
	p.saver.Store(&fn)
}

func (p *WorkerPool) processTask(task SaveTask) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if fn := p.saver.Load(); fn != nil {
		return (*fn)(ctx, task)
	}

	if p.isStale(task) {
		return nil
	}

	if err := p.Storage.Put(ctx, task.Key, task.Payload); err != nil {
		return err
	}
	p.MarkPersisted(task.Key, task.Version)
	p.log.Info("document saved on retry", zap.String("key", task.Key), zap.Uint64("version", task.Version))
	return nil
}

func (p *WorkerPool) version(key string) *atomic.Uint64 {
	v, _ := p.persisted.LoadOrStore(key, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

// MarkPersisted 记录 key 的最新已持久化版本（只增不减）
func (p *WorkerPool) MarkPersisted(key string, version uint64) {
	v := p.version(key)
	for {
		cur := v.Load()
		if version <= cur || v.CompareAndSwap(cur, version) {
			return
		}
	}
}

func (p *WorkerPool) isStale(task SaveTask) bool {
	return task.Version < p.version(task.Key).Load()
}

func (p *WorkerPool) logFailedTask(task SaveTask, err error) {
	metrics.PersistDropped.Inc()
	p.log.Error("document save dropped, in-memory state remains authoritative",
		zap.String("key", task.Key), zap.Uint64("version", task.Version),
		zap.Int("retry", task.Retry), zap.Error(err))
}

// AddTask 入队，队列满时直接丢弃
func (p *WorkerPool) AddTask(task SaveTask) {
	select {
	case p.TaskQueue <- task:
		// 任务入队成功
	default:
		p.logFailedTask(task, nil)
	}
}
