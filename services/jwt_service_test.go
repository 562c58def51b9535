package services

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"

	"hikbridge-http-service/config"
)

// TestJWTGenerateAndValidate 验证令牌生成后能通过校验并还原声明
func TestJWTGenerateAndValidate(t *testing.T) {
	cfg := &config.Config{JWTSecretKey: "test-secret"}
	s := NewJWTService(cfg)

	tokenString, err := s.GenerateToken(42, "admin")
	if err != nil {
		t.Fatalf("生成令牌失败: %v", err)
	}

	token, err := s.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("校验令牌失败: %v", err)
	}
	if !token.Valid {
		t.Fatal("令牌应有效")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("无法读取令牌声明")
	}
	if claims["role"] != "admin" {
		t.Errorf("期望role=admin，得到%v", claims["role"])
	}
	if claims["user_id"] != float64(42) {
		t.Errorf("期望user_id=42，得到%v", claims["user_id"])
	}
}

// TestJWTValidateWrongKey 验证错误密钥签发的令牌无法通过校验
func TestJWTValidateWrongKey(t *testing.T) {
	s1 := NewJWTService(&config.Config{JWTSecretKey: "secret-one"})
	s2 := NewJWTService(&config.Config{JWTSecretKey: "secret-two"})

	tokenString, err := s1.GenerateToken(1, "admin")
	if err != nil {
		t.Fatalf("生成令牌失败: %v", err)
	}

	if _, err := s2.ValidateToken(tokenString); err == nil {
		t.Fatal("错误密钥签发的令牌不应通过校验")
	}
}
