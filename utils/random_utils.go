package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomFeatureCode 生成云端API请求头featureCode使用的随机十六进制串
func RandomFeatureCode() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic("generate random feature code failed")
	}
	return hex.EncodeToString(buf)
}
