package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wonderwomen/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// PoolSnapshot 连接池快照
type PoolSnapshot struct {
	Timestamp       time.Time     `json:"timestamp"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	WaitCount       int64         `json:"wait_count"`
	WaitDuration    time.Duration `json:"wait_duration"`
}

// PoolMonitor 连接池监控器
// 指标通过 prometheus 暴露，等待过多时打告警日志
type PoolMonitor struct {
	name     string
	db       *sql.DB
	interval time.Duration
	maxWait  time.Duration
	last     PoolSnapshot
}

// NewPoolMonitor 创建监控器并注册 prometheus 采集器
// 同名采集器重复注册时沿用已有的
func NewPoolMonitor(name string, db *sql.DB, reg prometheus.Registerer) (*PoolMonitor, error) {
	if reg != nil {
		err := reg.Register(collectors.NewDBStatsCollector(db, name))
		var are prometheus.AlreadyRegisteredError
		if err != nil && !errors.As(err, &are) {
			return nil, err
		}
	}
	return &PoolMonitor{
		name:     name,
		db:       db,
		interval: 30 * time.Second,
		maxWait:  5 * time.Second,
	}, nil
}

// Snapshot 采集一次连接池状态
func (pm *PoolMonitor) Snapshot() PoolSnapshot {
	stats := pm.db.Stats()
	return PoolSnapshot{
		Timestamp:       time.Now(),
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		WaitCount:       stats.WaitCount,
		WaitDuration:    stats.WaitDuration,
	}
}

// Run 定期检查连接池，直到 ctx 结束
func (pm *PoolMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(pm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pm.check(pm.Snapshot())
		case <-ctx.Done():
			return
		}
	}
}

// check 比较两次快照之间新增的等待时间
func (pm *PoolMonitor) check(s PoolSnapshot) bool {
	waited := s.WaitDuration - pm.last.WaitDuration
	pm.last = s
	if waited <= pm.maxWait {
		return false
	}
	logger.Named("database").Warn("connection pool saturated",
		zap.String("pool", pm.name),
		zap.Int("open", s.OpenConnections),
		zap.Int("in_use", s.InUse),
		zap.Duration("waited", waited),
	)
	return true
}
