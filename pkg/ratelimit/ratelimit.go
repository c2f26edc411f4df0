package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket 令牌桶速率限制器
type TokenBucket struct {
	capacity   int // 桶容量
	tokens     int // 当前令牌数
	refillRate int // 每秒补充的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建新的令牌桶
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill 补充令牌
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	tokensToAdd := int(elapsed.Seconds()) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
}

// Allow 检查是否允许请求
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait 等待直到允许请求
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}
		wait := time.Second
		if tb.refillRate > 0 {
			wait = time.Second / time.Duration(tb.refillRate)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Manager 按端点类别管理多个令牌桶
type Manager struct {
	buckets map[string]*TokenBucket
	mu      sync.RWMutex
}

// NewManager 创建速率限制管理器
func NewManager() *Manager {
	return &Manager{buckets: make(map[string]*TokenBucket)}
}

// Register 注册端点类别的限制
func (m *Manager) Register(key string, capacity, refillRate int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[key] = NewTokenBucket(capacity, refillRate)
}

// Wait 等待指定端点类别允许请求（未注册的类别不限制）
func (m *Manager) Wait(ctx context.Context, key string) error {
	m.mu.RLock()
	bucket, ok := m.buckets[key]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return bucket.Wait(ctx)
}
