// Package store 应用状态的唯一数据源
//
// Store 持有完整的 Document，所有变更串行执行并产生新的 Document 值，
// 每次变更后整体写入存储后端。写入失败只记录日志并交给重试队列，内存状态始终有效。
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	userModel "wonderwomen/internal/domain/user/model"
	"wonderwomen/internal/pkg/apperr"
	"wonderwomen/internal/pkg/worker"
	"wonderwomen/internal/store/kv"
	"wonderwomen/internal/store/seed"
	"wonderwomen/pkg/logger"
	"wonderwomen/pkg/metrics"

	"go.uber.org/zap"
)

const (
	DocumentKey = "data"
	SessionKey  = "currentUser"
	// BackupKey 无法完整解析的持久化文档原样保存在这里
	BackupKey = "data.corrupt"
)

// Mutation 纯函数：输入当前文档，返回新文档
type Mutation func(Document) (Document, error)

type Store struct {
	mu        sync.RWMutex
	persistMu sync.Mutex // 保证写入顺序与变更顺序一致
	doc       Document
	version   uint64
	persisted uint64 // 已写入存储的最新版本，persistMu 保护

	storage kv.Storage
	prefix  string
	seed    []byte
	retry   *worker.WorkerPool
	log     *zap.Logger
}

type Option func(*Store)

// WithPrefix 存储键前缀
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithSeed 替换内置种子数据
func WithSeed(data []byte) Option {
	return func(s *Store) { s.seed = data }
}

// WithRetryPool 写入失败时交给重试队列
func WithRetryPool(p *worker.WorkerPool) Option {
	return func(s *Store) { s.retry = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

func New(storage kv.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		seed:    seed.Data,
		log:     logger.Named("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = Document{}.normalize()
	if s.retry != nil {
		s.retry.SetSaver(s.retrySave)
	}
	return s
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// Load 读取持久化文档并与种子数据合并，合并结果立即写回
// 持久化文档损坏时先备份到 BackupKey，备份失败则不覆盖原数据
func (s *Store) Load(ctx context.Context) (Document, error) {
	persisted, err := s.storage.Get(ctx, s.key(DocumentKey))
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return Document{}, apperr.Storage("get", s.key(DocumentKey), err)
	}

	doc, err := Merge(s.seed, persisted)
	if errors.Is(err, ErrCorruptDocument) {
		s.log.Warn("persisted document partly unreadable, falling back to seed", zap.Error(err))
		// 写回合并结果前保留原始内容
		if err := s.storage.Put(ctx, s.key(BackupKey), persisted); err != nil {
			return Document{}, apperr.Storage("backup", s.key(BackupKey), err)
		}
	} else if err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	s.doc = doc
	s.version++
	v := s.version
	s.persistMu.Lock()
	s.mu.Unlock()
	defer s.persistMu.Unlock()

	_ = s.persist(ctx, doc, v)
	s.log.Info("document loaded",
		zap.Int("users", len(doc.Users)),
		zap.Int("forum_posts", len(doc.ForumPosts)),
		zap.Bool("from_storage", len(persisted) > 0))
	return doc, nil
}

// Save 以 doc 整体替换当前文档并写入存储
// 写入失败返回 StorageError，但内存中的文档已经更新
func (s *Store) Save(ctx context.Context, doc Document) error {
	doc = doc.normalize()

	s.mu.Lock()
	s.doc = doc
	s.version++
	v := s.version
	s.persistMu.Lock()
	s.mu.Unlock()
	defer s.persistMu.Unlock()

	return s.persist(ctx, doc, v)
}

// Snapshot 当前文档
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Get 读取集合
func (s *Store) Get(key Key) (any, error) {
	return s.Snapshot().Collection(key)
}

// Replace 替换整个集合
func (s *Store) Replace(ctx context.Context, key Key, value any) (Document, error) {
	return s.Update(ctx, "replace:"+string(key), func(d Document) (Document, error) {
		return d.With(key, value)
	})
}

// Update 串行执行一次变更并持久化
// fn 返回错误时文档保持不变；持久化失败不影响返回值
func (s *Store) Update(ctx context.Context, op string, fn Mutation) (Document, error) {
	s.mu.Lock()
	next, err := fn(s.doc)
	if err != nil {
		cur := s.doc
		s.mu.Unlock()
		return cur, err
	}
	s.doc = next
	s.version++
	v := s.version
	s.persistMu.Lock()
	s.mu.Unlock()
	defer s.persistMu.Unlock()

	metrics.RecordMutation(op)
	_ = s.persist(ctx, next, v)
	return next, nil
}

func (s *Store) persist(ctx context.Context, doc Document, version uint64) error {
	key := s.key(DocumentKey)
	data, err := json.Marshal(doc)
	if err != nil {
		return apperr.Storage("marshal", key, err)
	}

	start := time.Now()
	err = s.storage.Put(ctx, key, data)
	metrics.RecordPersist(time.Since(start), err)
	if err != nil {
		s.log.Error("failed to persist document", zap.String("key", key),
			zap.Uint64("version", version), zap.Error(err))
		if s.retry != nil {
			s.retry.AddTask(worker.SaveTask{Key: key, Payload: data, Version: version})
		}
		return apperr.Storage("put", key, err)
	}
	s.markPersisted(version)
	return nil
}

// markPersisted 调用方需持有 persistMu
func (s *Store) markPersisted(version uint64) {
	if version > s.persisted {
		s.persisted = version
	}
	if s.retry != nil {
		s.retry.MarkPersisted(s.key(DocumentKey), version)
	}
}

// retrySave 重试队列的写入入口
// 与 persist 共用 persistMu，已有更新版本写入成功时直接丢弃
func (s *Store) retrySave(ctx context.Context, task worker.SaveTask) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if task.Version <= s.persisted {
		s.log.Debug("stale retry skipped", zap.Uint64("version", task.Version), zap.Uint64("persisted", s.persisted))
		return nil
	}

	start := time.Now()
	err := s.storage.Put(ctx, task.Key, task.Payload)
	metrics.RecordPersist(time.Since(start), err)
	if err != nil {
		return err
	}
	s.markPersisted(task.Version)
	s.log.Info("document saved on retry", zap.Uint64("version", task.Version))
	return nil
}

// SetSession 保存当前登录用户（不含密码）
func (s *Store) SetSession(ctx context.Context, u userModel.User) error {
	data, err := json.Marshal(u.Public())
	if err != nil {
		return err
	}
	key := s.key(SessionKey)
	if err := s.storage.Put(ctx, key, data); err != nil {
		s.log.Warn("failed to persist session", zap.Error(err))
		return apperr.Storage("put", key, err)
	}
	return nil
}

// Session 当前登录用户，没有时返回 nil
func (s *Store) Session(ctx context.Context) (*userModel.User, error) {
	key := s.key(SessionKey)
	data, err := s.storage.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("get", key, err)
	}
	var u userModel.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, apperr.Storage("decode", key, err)
	}
	return &u, nil
}

// ClearSession 注销
func (s *Store) ClearSession(ctx context.Context) error {
	key := s.key(SessionKey)
	return apperr.Storage("delete", key, s.storage.Delete(ctx, key))
}

// Ping 检查存储后端是否可读
func (s *Store) Ping(ctx context.Context) error {
	key := s.key(DocumentKey)
	if _, err := s.storage.Get(ctx, key); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return apperr.Storage("get", key, err)
	}
	return nil
}
