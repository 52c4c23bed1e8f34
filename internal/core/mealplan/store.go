package mealplan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meal-recommender/internal/pkg/common"
)

// Backend 週菜單持久化協作方需要的最小介面
type Backend interface {
	ReplaceWeekMealPlan(ctx context.Context, weekID string, meals []common.PlanRowInput, userID string) error
	GetWeekMealPlanWithRecipes(ctx context.Context, weekID, userID string) ([]common.PlanRow, error)
	UpdateWeekMealPlanStatus(ctx context.Context, weekID string, status common.PlanStatus, userID string) error
}

// Store 週範圍的菜單存取：儲存、載入（含遞補產生）、狀態更新
type Store struct {
	backend Backend
	catalog CatalogProvider
}

// NewStore 創建菜單存取服務
func NewStore(backend Backend, catalog CatalogProvider) *Store {
	return &Store{backend: backend, catalog: catalog}
}

// Save 以組裝器目前的快照整週覆寫後端（先刪後插，單次呼叫內原子）
func (s *Store) Save(ctx context.Context, assembler *Assembler, weekID string) error {
	if weekID == "" {
		return common.ErrInvalidWeekID
	}

	entries := assembler.Entries()
	rows := make([]common.PlanRowInput, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, common.PlanRowInput{
			RecipeID:  e.Recipe.ID,
			Servings:  e.Servings,
			SortOrder: i,
			Status:    e.Status,
		})
	}

	if err := s.backend.ReplaceWeekMealPlan(ctx, weekID, rows, assembler.userID); err != nil {
		common.LogError("儲存週菜單失敗",
			zap.Error(err),
			zap.String("week_id", weekID),
			zap.String("user_id", assembler.userID))
		return err
	}

	common.LogInfo("已儲存週菜單",
		zap.String("week_id", weekID),
		zap.String("user_id", assembler.userID),
		zap.Int("rows", len(rows)))
	return nil
}

// Load 載入指定週的菜單到組裝器。後端沒有資料、或讀取失敗時，
// 改為重新產生一份（讀取錯誤保留並隨結果回傳，供呼叫端記錄）
func (s *Store) Load(ctx context.Context, assembler *Assembler, weekID string, recentRecipeIDs map[string]struct{}) ([]Entry, bool, error) {
	if weekID == "" {
		return nil, false, common.ErrInvalidWeekID
	}

	rows, fetchErr := s.backend.GetWeekMealPlanWithRecipes(ctx, weekID, assembler.userID)
	if fetchErr != nil {
		common.LogError("讀取週菜單失敗，改為重新產生",
			zap.Error(fetchErr),
			zap.String("week_id", weekID),
			zap.String("user_id", assembler.userID))
	}

	if fetchErr == nil && len(rows) > 0 {
		assembler.SetWeekID(weekID)
		assembler.Restore(s.hydrate(ctx, rows))
		return assembler.Entries(), true, nil
	}

	// 切換到新的一週：捨棄前一週殘留的工作內容，從頭產生
	assembler.SetWeekID(weekID)
	entries, genErr := assembler.Regenerate(ctx, recentRecipeIDs)
	if genErr != nil {
		return nil, false, genErr
	}
	return entries, false, fetchErr
}

// UpdateStatus 更新整週菜單的工作流程狀態
func (s *Store) UpdateStatus(ctx context.Context, userID, weekID string, status common.PlanStatus) error {
	if weekID == "" {
		return common.ErrInvalidWeekID
	}
	if !status.Valid() {
		return common.ErrInvalidPlanStatus
	}
	if err := s.backend.UpdateWeekMealPlanStatus(ctx, weekID, status, userID); err != nil {
		common.LogError("更新菜單狀態失敗",
			zap.Error(err),
			zap.String("week_id", weekID),
			zap.String("user_id", userID),
			zap.String("status", string(status)))
		return err
	}
	return nil
}

// RecentRecipeIDs 收集最近 n 週出現過的食譜 ID（回鍋懲罰用）。
// 單週讀取失敗只記錄，不阻斷其餘週的收集
func (s *Store) RecentRecipeIDs(ctx context.Context, userID string, weekIDs []string) map[string]struct{} {
	recent := make(map[string]struct{})
	for _, weekID := range weekIDs {
		rows, err := s.backend.GetWeekMealPlanWithRecipes(ctx, weekID, userID)
		if err != nil {
			common.LogError("讀取歷史週菜單失敗",
				zap.Error(err),
				zap.String("week_id", weekID),
				zap.String("user_id", userID))
			continue
		}
		for _, row := range rows {
			recent[row.RecipeID] = struct{}{}
		}
	}
	return recent
}

// hydrate 將後端列還原為菜單項目：以目錄的現行食譜為準，
// 食譜已被移除時退回列上的去正規化快照
func (s *Store) hydrate(ctx context.Context, rows []common.PlanRow) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		recipe, found, err := s.catalog.RecipeByID(ctx, row.RecipeID)
		if err != nil || !found {
			recipe = common.Recipe{
				ID:               row.RecipeID,
				Name:             row.RecipeName,
				ImageURL:         row.RecipeImageURL,
				TotalTimeMinutes: row.RecipeTotalTime,
			}
		}

		status := row.Status
		if !status.Valid() {
			status = common.PlanStatusDraft
		}

		entryID := row.ID
		if entryID == "" {
			entryID = common.NewEntryID()
		}

		createdAt := row.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		updatedAt := row.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}

		entries = append(entries, Entry{
			ID:        entryID,
			Recipe:    recipe,
			Servings:  row.Servings,
			Status:    status,
			WeekID:    row.WeekID,
			UserID:    row.UserID,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		})
	}
	return entries
}
