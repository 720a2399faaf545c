package model

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator 生成新的实体 ID
// 要求：全局唯一，且按生成顺序严格递增
type IDGenerator interface {
	NewID() ID
}

// UUIDGenerator 基于 UUIDv7 的生成器（时间有序，同一进程内单调递增）
type UUIDGenerator struct{}

// NewID 生成 UUIDv7
func (UUIDGenerator) NewID() ID {
	return ID(uuid.Must(uuid.NewV7()).String())
}

// SequenceGenerator 计数器生成器，主要用于测试和可复现的种子数据
type SequenceGenerator struct {
	prefix string
	n      atomic.Uint64
}

// NewSequenceGenerator 创建计数器生成器
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// NewID 返回 prefix + 零填充序号，字典序与生成顺序一致
func (g *SequenceGenerator) NewID() ID {
	return ID(fmt.Sprintf("%s%012d", g.prefix, g.n.Add(1)))
}
