package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meal-recommender/internal/infrastructure/cache"
	"meal-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	recipesCacheKey = "catalog:recipes"
	tagsCacheKey    = "catalog:tags"
)

// Reader 目錄資料來源（由持久化後端實作）
type Reader interface {
	ListRecipes(ctx context.Context) ([]common.Recipe, error)
	ListTags(ctx context.Context) ([]common.Tag, error)
}

// Service 食譜目錄與標籤分類服務，對後端做 cache-aside 讀取
type Service struct {
	reader Reader
	cache  cache.Store
	ttl    time.Duration

	mu       sync.RWMutex
	recipes  []common.Recipe
	tagIndex map[string]common.Tag
	loadedAt time.Time
}

// NewService 創建目錄服務（store 可為 nil，表示不使用外部快取）
func NewService(reader Reader, store cache.Store, ttl time.Duration) *Service {
	return &Service{
		reader: reader,
		cache:  store,
		ttl:    ttl,
	}
}

// Recipes 取得食譜目錄
func (s *Service) Recipes(ctx context.Context) ([]common.Recipe, error) {
	s.mu.RLock()
	if s.recipes != nil && time.Since(s.loadedAt) < s.ttl {
		recipes := s.recipes
		s.mu.RUnlock()
		return recipes, nil
	}
	s.mu.RUnlock()

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recipes, nil
}

// Tags 取得標籤列表
func (s *Service) Tags(ctx context.Context) ([]common.Tag, error) {
	index, err := s.TagIndex(ctx)
	if err != nil {
		return nil, err
	}
	tags := make([]common.Tag, 0, len(index))
	for _, tag := range index {
		tags = append(tags, tag)
	}
	return tags, nil
}

// TagIndex 取得以識別碼為鍵的標籤索引（評分引擎用）
func (s *Service) TagIndex(ctx context.Context) (map[string]common.Tag, error) {
	s.mu.RLock()
	if s.tagIndex != nil && time.Since(s.loadedAt) < s.ttl {
		index := s.tagIndex
		s.mu.RUnlock()
		return index, nil
	}
	s.mu.RUnlock()

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tagIndex, nil
}

// RecipeByID 以識別碼查找食譜；查無時回傳 false
func (s *Service) RecipeByID(ctx context.Context, id string) (common.Recipe, bool, error) {
	recipes, err := s.Recipes(ctx)
	if err != nil {
		return common.Recipe{}, false, err
	}
	for _, r := range recipes {
		if r.ID == id {
			return r, true, nil
		}
	}
	return common.Recipe{}, false, nil
}

// Refresh 強制重新載入目錄（繞過所有快取）
func (s *Service) Refresh(ctx context.Context) error {
	recipes, tags, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.storeCaches(ctx, recipes, tags)
	s.memoize(recipes, tags)

	common.LogInfo("目錄已重新載入",
		zap.Int("食譜數", len(recipes)),
		zap.Int("標籤數", len(tags)),
	)
	return nil
}

// load 以快取優先的方式載入目錄
func (s *Service) load(ctx context.Context) error {
	// 先嘗試外部快取
	if s.cache != nil {
		var recipes []common.Recipe
		var tags []common.Tag
		if err := s.cache.Get(ctx, recipesCacheKey, &recipes); err == nil {
			if err := s.cache.Get(ctx, tagsCacheKey, &tags); err == nil {
				s.memoize(recipes, tags)
				return nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			common.LogWarn("目錄快取讀取失敗", zap.Error(err))
		}
	}

	recipes, tags, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.storeCaches(ctx, recipes, tags)
	s.memoize(recipes, tags)
	return nil
}

// fetch 從後端讀取目錄與分類表
func (s *Service) fetch(ctx context.Context) ([]common.Recipe, []common.Tag, error) {
	recipes, err := s.reader.ListRecipes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	tags, err := s.reader.ListTags(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return recipes, tags, nil
}

// storeCaches 寫入外部快取（失敗僅記錄，不阻斷）
func (s *Service) storeCaches(ctx context.Context, recipes []common.Recipe, tags []common.Tag) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, recipesCacheKey, recipes, s.ttl); err != nil {
		common.LogWarn("食譜快取寫入失敗", zap.Error(err))
	}
	if err := s.cache.Set(ctx, tagsCacheKey, tags, s.ttl); err != nil {
		common.LogWarn("標籤快取寫入失敗", zap.Error(err))
	}
}

// memoize 更新本地記憶
func (s *Service) memoize(recipes []common.Recipe, tags []common.Tag) {
	index := make(map[string]common.Tag, len(tags))
	for _, tag := range tags {
		index[tag.ID] = tag
	}

	s.mu.Lock()
	s.recipes = recipes
	s.tagIndex = index
	s.loadedAt = time.Now()
	s.mu.Unlock()
}
