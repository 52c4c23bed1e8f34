package common

import (
	"time"
)

// TagType 標籤類型，同時作為使用者「目標」的詞彙表
type TagType string

const (
	TagTypeCuisine  TagType = "cuisine"
	TagTypeProtein  TagType = "protein"
	TagTypeBudget   TagType = "budget"
	TagTypeMacro    TagType = "macro"
	TagTypeTime     TagType = "time"
	TagTypeMealType TagType = "meal_type"
)

// Tag 參考資料標籤
type Tag struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Type TagType `json:"type"`
}

// Recipe 食譜，由目錄協作方提供，引擎視為不可變
type Recipe struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
	PrepTimeMinutes  int      `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes  int      `json:"cook_time_minutes,omitempty"`
	TotalTimeMinutes int      `json:"total_time_minutes,omitempty"`
	DefaultServings  int      `json:"default_servings,omitempty"`
	TagIDs           []string `json:"tag_ids"`
}

// PreferredTag 使用者偏好標籤（priority 越小優先度越高）
type PreferredTag struct {
	TagID    string `json:"tag_id"`
	Priority int    `json:"priority"`
}

// UserPreferences 使用者偏好，每位使用者僅一筆有效紀錄
type UserPreferences struct {
	UserID        string         `json:"user_id"`
	MealsPerWeek  int            `json:"meals_per_week"`
	ServesPerMeal int            `json:"serves_per_meal"`
	Goals         []TagType      `json:"goals"` // 順序即優先度，越前面權重越高
	PreferredTags []PreferredTag `json:"preferred_tags"`
}

const (
	// DefaultMealsPerWeek 首次存取時的預設每週餐數
	DefaultMealsPerWeek = 4
	// DefaultServesPerMeal 首次存取時的預設每餐份量
	DefaultServesPerMeal = 2
)

// DefaultPreferences 建立預設偏好（首次存取時延遲建立）
func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{
		UserID:        userID,
		MealsPerWeek:  DefaultMealsPerWeek,
		ServesPerMeal: DefaultServesPerMeal,
		Goals:         []TagType{},
		PreferredTags: []PreferredTag{},
	}
}

// PreferredTagSet 偏好標籤集合（以標籤 ID 為鍵）
func (p *UserPreferences) PreferredTagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.PreferredTags))
	for _, pt := range p.PreferredTags {
		set[pt.TagID] = struct{}{}
	}
	return set
}

// HasScoringSignals 是否具備任何可用於評分的訊號（偏好標籤或目標）
func (p *UserPreferences) HasScoringSignals() bool {
	return p != nil && (len(p.PreferredTags) > 0 || len(p.Goals) > 0)
}

// PlanStatus 週菜單的工作流程狀態
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusConfirmed PlanStatus = "confirmed"
	PlanStatusCompleted PlanStatus = "completed"
)

// Valid 檢查狀態是否為合法值
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusConfirmed, PlanStatusCompleted:
		return true
	default:
		return false
	}
}

// WeekStatus 週的相對狀態
type WeekStatus string

const (
	WeekStatusPast    WeekStatus = "past"
	WeekStatusCurrent WeekStatus = "current"
	WeekStatusFuture  WeekStatus = "future"
)

// Week 週曆資訊，由週曆服務計算
type Week struct {
	ID        string     `json:"id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	IsCurrent bool       `json:"is_current"`
	Offset    int        `json:"offset"` // 相對於本週的有號位移
	Title     string     `json:"title"`
	Status    WeekStatus `json:"status"`
}

// PlanRowInput 後端 replace_week_meal_plan 的單列輸入
type PlanRowInput struct {
	RecipeID  string     `json:"recipe_id"`
	Servings  int        `json:"servings"`
	SortOrder int        `json:"sort_order"`
	Status    PlanStatus `json:"status"`
}

// PlanRow 後端 get_week_meal_plan_with_recipes 回傳的單列，
// 帶有去正規化的食譜快照，容忍目錄中已被移除的食譜
type PlanRow struct {
	ID              string     `json:"id"`
	RecipeID        string     `json:"recipe_id"`
	RecipeName      string     `json:"recipe_name"`
	RecipeImageURL  string     `json:"recipe_image_url"`
	RecipeTotalTime int        `json:"recipe_total_time"`
	Servings        int        `json:"servings"`
	Status          PlanStatus `json:"status"`
	WeekID          string     `json:"week_id"`
	UserID          string     `json:"user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
