// Package kv 提供文档持久化使用的键值存储后端
package kv

import (
	"context"
	"errors"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("kv: key not found")

// Storage 键值存储接口
// 值为完整的 JSON 文档，每次写入整体覆盖
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
