package util

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成一个标准的 UUID (v4)
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateShortUUID 生成一个不带中划线的短 UUID
func GenerateShortUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GenerateChatID 生成会话 ID：12 字节强随机，24 位 hex，不可猜测
func GenerateChatID() string {
	return NewTokenHex(12)
}

// NewTokenHex 生成指定字节数的随机 hex 令牌（邀请、邮箱验证等）
func NewTokenHex(bytes int) string {
	if bytes <= 0 {
		bytes = 24
	}
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand 失败说明系统熵源不可用，回退到 UUID
		return GenerateShortUUID()
	}
	return hex.EncodeToString(b)
}
