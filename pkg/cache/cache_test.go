package cache

import (
	"testing"
	"time"
)

func TestSetGetNoExpiry(t *testing.T) {
	c := NewInMemoryCache[string, int](0)
	c.Set("a", 1, 0)

	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get got=(%d,%v)", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("不存在的键不应命中")
	}
}

func TestExpiry(t *testing.T) {
	c := NewInMemoryCache[string, int](0)
	c.Set("a", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatal("过期条目不应命中")
	}
}

func TestSetOnce(t *testing.T) {
	c := NewInMemoryCache[string, string](0)
	if !c.SetOnce("k", "first") {
		t.Fatal("首次写入应当成功")
	}
	if c.SetOnce("k", "second") {
		t.Fatal("重复写入应当被拒绝")
	}
	v, _ := c.Get("k")
	if v != "first" {
		t.Fatalf("populate-once 被覆盖: %q", v)
	}
}

func TestDeleteClearSize(t *testing.T) {
	c := NewInMemoryCache[int, int](0)
	c.Set(1, 1, 0)
	c.Set(2, 2, 0)
	if c.Size() != 2 {
		t.Fatalf("Size got=%d", c.Size())
	}
	c.Delete(1)
	if _, ok := c.Get(1); ok {
		t.Fatal("删除后不应命中")
	}
	c.Clear()
	if c.Size() != 0 {
		t.Fatalf("Clear 后 Size got=%d", c.Size())
	}
}
