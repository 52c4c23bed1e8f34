package prefs

import (
	"context"
	"fmt"

	"meal-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 偏好資料來源（由持久化後端實作）
type Store interface {
	GetUserPreferences(ctx context.Context, userID string) (*common.UserPreferences, error)
	UpsertUserPreferences(ctx context.Context, prefs *common.UserPreferences) error
}

// Service 使用者偏好服務。每位使用者僅一筆有效紀錄；
// 首次存取時以預設值延遲建立（每週 4 餐、每餐 2 份）
type Service struct {
	store Store
}

// NewService 創建偏好服務
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get 讀取使用者偏好；查無資料時建立並回傳預設偏好
func (s *Service) Get(ctx context.Context, userID string) (*common.UserPreferences, error) {
	prefs, err := s.store.GetUserPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user preferences: %w", err)
	}
	if prefs != nil {
		return prefs, nil
	}

	// 延遲建立預設偏好
	prefs = common.DefaultPreferences(userID)
	if err := s.store.UpsertUserPreferences(ctx, prefs); err != nil {
		// 建立失敗不阻斷讀取，先回傳記憶體中的預設值
		common.LogWarn("預設偏好寫入失敗",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
	common.LogInfo("已建立預設偏好",
		zap.String("user_id", userID),
		zap.Int("meals_per_week", prefs.MealsPerWeek),
		zap.Int("serves_per_meal", prefs.ServesPerMeal),
	)
	return prefs, nil
}

// Update 更新使用者偏好（引擎讀取時視為已生效）
func (s *Service) Update(ctx context.Context, prefs *common.UserPreferences) error {
	if prefs.UserID == "" {
		return common.NewValidationError("user id is required")
	}
	if prefs.MealsPerWeek < 1 {
		return common.NewValidationError("meals per week must be at least 1")
	}
	if prefs.ServesPerMeal < 1 {
		return common.NewValidationError("serves per meal must be at least 1")
	}
	for _, goal := range prefs.Goals {
		switch goal {
		case common.TagTypeCuisine, common.TagTypeProtein, common.TagTypeBudget,
			common.TagTypeMacro, common.TagTypeTime, common.TagTypeMealType:
		default:
			return common.NewValidationError(fmt.Sprintf("unknown goal type: %s", goal))
		}
	}

	if err := s.store.UpsertUserPreferences(ctx, prefs); err != nil {
		return fmt.Errorf("failed to update user preferences: %w", err)
	}
	return nil
}
