package middleware

import (
	"testing"
	"time"
)

// TestTokenBucketBurst 验证令牌桶允许突发请求，超出容量后拒绝
func TestTokenBucketBurst(t *testing.T) {
	tb := NewTokenBucket(1, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("第%d个突发请求应被允许", i+1)
		}
	}

	if tb.Allow() {
		t.Error("超出突发容量的请求应被拒绝")
	}
}

// TestTokenBucketRefill 验证令牌随时间填充
func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(100, 1)

	if !tb.Allow() {
		t.Fatal("第一个请求应被允许")
	}
	if tb.Allow() {
		t.Fatal("桶空时请求应被拒绝")
	}

	// 100/秒的速率，20毫秒足够填充一个令牌
	time.Sleep(20 * time.Millisecond)
	if !tb.Allow() {
		t.Error("填充后请求应被允许")
	}
}
