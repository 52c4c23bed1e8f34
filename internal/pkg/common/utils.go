package common

import (
	"github.com/google/uuid"
)

// NewEntryID 生成菜單項目識別碼（128-bit 隨機 token，避免時間戳碰撞）
func NewEntryID() string {
	return uuid.NewString()
}
