package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(2, 1)
	if !tb.Allow() || !tb.Allow() {
		t.Fatal("容量内的请求应当放行")
	}
	if tb.Allow() {
		t.Fatal("超出容量的请求应当被拒绝")
	}
}

func TestTokenBucketWaitCancel(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := tb.Wait(ctx); err == nil {
		t.Fatal("上下文取消应当中断等待")
	}
}

func TestManagerUnregisteredUnlimited(t *testing.T) {
	m := NewManager()
	// 未注册的类别不限制
	for i := 0; i < 100; i++ {
		if err := m.Wait(context.Background(), "unknown"); err != nil {
			t.Fatalf("Wait error: %v", err)
		}
	}
}

func TestManagerRegistered(t *testing.T) {
	m := NewManager()
	m.Register("orders", 1, 1)

	if err := m.Wait(context.Background(), "orders"); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := m.Wait(ctx, "orders"); err == nil {
		t.Fatal("令牌耗尽后应当阻塞直到超时")
	}
}
