package mealplan

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"meal-recommender/internal/core/recommend"
	"meal-recommender/internal/pkg/common"
)

// CatalogProvider 目錄協作方需要的最小介面
type CatalogProvider interface {
	Recipes(ctx context.Context) ([]common.Recipe, error)
	TagIndex(ctx context.Context) (map[string]common.Tag, error)
	RecipeByID(ctx context.Context, id string) (common.Recipe, bool, error)
}

// PreferenceProvider 偏好協作方需要的最小介面
type PreferenceProvider interface {
	Get(ctx context.Context, userID string) (*common.UserPreferences, error)
}

// Entry 菜單項目，食譜為載入時的快照
type Entry struct {
	ID        string            `json:"id"`
	Recipe    common.Recipe     `json:"recipe"`
	Servings  int               `json:"servings"`
	Status    common.PlanStatus `json:"status"`
	WeekID    string            `json:"week_id"`
	UserID    string            `json:"user_id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Assembler 單一使用者、單一週的菜單組裝器。
// 維護的不變量：同一食譜不重複出現、份量至少為 1
type Assembler struct {
	mu       sync.RWMutex
	userID   string
	weekID   string
	entries  []*Entry
	catalog  CatalogProvider
	prefs    PreferenceProvider
	selector *recommend.Selector
	now      func() time.Time
}

// NewAssembler 創建菜單組裝器
func NewAssembler(userID, weekID string, catalog CatalogProvider, prefs PreferenceProvider, selector *recommend.Selector) *Assembler {
	return &Assembler{
		userID:   userID,
		weekID:   weekID,
		catalog:  catalog,
		prefs:    prefs,
		selector: selector,
		now:      time.Now,
	}
}

// WeekID 目前作用中的週識別碼
func (a *Assembler) WeekID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.weekID
}

// SetWeekID 切換作用中的週（載入既有菜單時使用）
func (a *Assembler) SetWeekID(weekID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.weekID = weekID
}

// Generate 依偏好向選擇器請求每週餐數筆項目並附加到菜單，
// 已在菜單中的食譜會被排除，手動加入的項目不受影響。
// 偏好或目錄尚未就緒時回傳前置條件錯誤而非靜默跳過
func (a *Assembler) Generate(ctx context.Context, recentRecipeIDs map[string]struct{}) ([]Entry, error) {
	userPrefs, err := a.prefs.Get(ctx, a.userID)
	if err != nil {
		return nil, err
	}
	if userPrefs == nil {
		return nil, common.ErrPreferencesMissing
	}

	recipes, err := a.catalog.Recipes(ctx)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, common.ErrCatalogEmpty
	}

	taxonomy, err := a.catalog.TagIndex(ctx)
	if err != nil {
		return nil, err
	}

	count := userPrefs.MealsPerWeek
	if count < 1 {
		count = common.DefaultMealsPerWeek
	}

	inPlan := a.RecipeIDSet()
	picked := a.selector.Select(recipes, userPrefs, taxonomy, recommend.Options{
		Count:                count,
		ExcludeIDs:           inPlan,
		RecentRecipeIDs:      recentRecipeIDs,
		CurrentPlanRecipeIDs: inPlan,
		CurrentPlanTagIDs:    a.TagIDSet(),
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	// 選取與上鎖之間菜單可能已變動，附加前再次確認不重複
	current := make(map[string]struct{}, len(a.entries))
	for _, e := range a.entries {
		current[e.Recipe.ID] = struct{}{}
	}
	for _, sr := range picked {
		if _, dup := current[sr.Recipe.ID]; dup {
			continue
		}
		a.entries = append(a.entries, a.newEntry(sr.Recipe, a.resolveServings(0, userPrefs, sr.Recipe)))
	}

	common.LogInfo("已產生週菜單",
		zap.String("user_id", a.userID),
		zap.String("week_id", a.weekID),
		zap.Int("entries", len(a.entries)))
	return a.snapshotLocked(), nil
}

// Regenerate 捨棄既有項目後重新產生整週菜單，手動加入的項目也會被清掉
func (a *Assembler) Regenerate(ctx context.Context, recentRecipeIDs map[string]struct{}) ([]Entry, error) {
	a.Clear()
	return a.Generate(ctx, recentRecipeIDs)
}

// Add 加入單一食譜。重複加入同一食譜不改變狀態並回報 added=false。
// servings 為 0 時依序採用使用者預設、食譜預設、最後退到 1
func (a *Assembler) Add(ctx context.Context, recipeID string, servings int) (Entry, bool, error) {
	if servings < 0 {
		return Entry{}, false, common.ErrInvalidServings
	}

	recipe, found, err := a.catalog.RecipeByID(ctx, recipeID)
	if err != nil {
		return Entry{}, false, err
	}
	if !found {
		return Entry{}, false, common.ErrRecipeNotFound
	}

	userPrefs, err := a.prefs.Get(ctx, a.userID)
	if err != nil {
		return Entry{}, false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.entries {
		if e.Recipe.ID == recipeID {
			return *e, false, nil
		}
	}

	entry := a.newEntry(recipe, a.resolveServings(servings, userPrefs, recipe))
	a.entries = append(a.entries, entry)
	return *entry, true, nil
}

// Remove 依項目 ID 移除
func (a *Assembler) Remove(entryID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.entries {
		if e.ID == entryID {
			a.entries = append(a.entries[:i], a.entries[i+1:]...)
			return nil
		}
	}
	return common.ErrEntryNotFound
}

// UpdateServings 調整份量，小於 1 視為無效輸入
func (a *Assembler) UpdateServings(entryID string, servings int) (Entry, error) {
	if servings < 1 {
		return Entry{}, common.ErrInvalidServings
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.entries {
		if e.ID == entryID {
			e.Servings = servings
			e.UpdatedAt = a.now()
			return *e, nil
		}
	}
	return Entry{}, common.ErrEntryNotFound
}

// Clear 清空所有項目
func (a *Assembler) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = a.entries[:0]
}

// GetByID 依項目 ID 查詢
func (a *Assembler) GetByID(entryID string) (Entry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, e := range a.entries {
		if e.ID == entryID {
			return *e, true
		}
	}
	return Entry{}, false
}

// ContainsRecipe 菜單中是否已含指定食譜
func (a *Assembler) ContainsRecipe(recipeID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, e := range a.entries {
		if e.Recipe.ID == recipeID {
			return true
		}
	}
	return false
}

// TotalServings 菜單份量總和
func (a *Assembler) TotalServings() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	total := 0
	for _, e := range a.entries {
		total += e.Servings
	}
	return total
}

// AvailableRecipes 可再加入菜單的食譜：偏好標籤匹配的目錄食譜，
// 扣除已在菜單中的；使用者沒有偏好標籤時回傳整個目錄
func (a *Assembler) AvailableRecipes(ctx context.Context) ([]common.Recipe, error) {
	recipes, err := a.catalog.Recipes(ctx)
	if err != nil {
		return nil, err
	}

	userPrefs, err := a.prefs.Get(ctx, a.userID)
	if err != nil {
		return nil, err
	}
	if userPrefs != nil && len(userPrefs.PreferredTags) > 0 {
		preferred := userPrefs.PreferredTagSet()
		matching := make([]common.Recipe, 0, len(recipes))
		for _, r := range recipes {
			for _, tagID := range r.TagIDs {
				if _, ok := preferred[tagID]; ok {
					matching = append(matching, r)
					break
				}
			}
		}
		recipes = matching
	}

	return recommend.FilterCandidates(recipes, a.RecipeIDSet()), nil
}

// Entries 目前項目的一致性快照（儲存時以此為準）
func (a *Assembler) Entries() []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

// Restore 以既有項目取代目前內容（從後端載入時使用）
func (a *Assembler) Restore(entries []Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = a.entries[:0]
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		e := entries[i]
		if _, dup := seen[e.Recipe.ID]; dup {
			continue
		}
		seen[e.Recipe.ID] = struct{}{}
		if e.Servings < 1 {
			e.Servings = 1
		}
		a.entries = append(a.entries, &e)
	}
}

// RecipeIDSet 菜單食譜 ID 集合（推薦排除用）
func (a *Assembler) RecipeIDSet() map[string]struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	set := make(map[string]struct{}, len(a.entries))
	for _, e := range a.entries {
		set[e.Recipe.ID] = struct{}{}
	}
	return set
}

// TagIDSet 菜單食譜的標籤聯集（多樣性比較用）
func (a *Assembler) TagIDSet() map[string]struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	set := make(map[string]struct{})
	for _, e := range a.entries {
		for _, tagID := range e.Recipe.TagIDs {
			set[tagID] = struct{}{}
		}
	}
	return set
}

func (a *Assembler) snapshotLocked() []Entry {
	out := make([]Entry, len(a.entries))
	for i, e := range a.entries {
		out[i] = *e
	}
	return out
}

func (a *Assembler) newEntry(recipe common.Recipe, servings int) *Entry {
	ts := a.now()
	return &Entry{
		ID:        common.NewEntryID(),
		Recipe:    recipe,
		Servings:  servings,
		Status:    common.PlanStatusDraft,
		WeekID:    a.weekID,
		UserID:    a.userID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// resolveServings 份量決議順序：明確指定 > 使用者預設 > 食譜預設 > 1
func (a *Assembler) resolveServings(explicit int, prefs *common.UserPreferences, recipe common.Recipe) int {
	if explicit >= 1 {
		return explicit
	}
	if prefs != nil && prefs.ServesPerMeal >= 1 {
		return prefs.ServesPerMeal
	}
	if recipe.DefaultServings >= 1 {
		return recipe.DefaultServings
	}
	return 1
}
