package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss 快取未命中
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheDisabled 快取停用
var ErrCacheDisabled = errors.New("cache disabled")

// Store 快取存取介面，目錄與參考資料服務透過它做 cache-aside
type Store interface {
	// Get 讀取快取並反序列化到 out；未命中回傳 ErrCacheMiss
	Get(ctx context.Context, key string, out interface{}) error
	// Set 序列化 value 並以 ttl 寫入快取
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete 移除指定鍵
	Delete(ctx context.Context, key string) error
	// Close 關閉快取
	Close() error
}
