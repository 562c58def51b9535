package utils

import "testing"

// TestHashAndCheckPassword 验证密码哈希和校验
func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("哈希失败: %v", err)
	}

	if !CheckPasswordHash("admin123", hash) {
		t.Error("正确密码应通过校验")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("错误密码不应通过校验")
	}
}
