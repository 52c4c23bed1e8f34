package recommend

import (
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

// Weights 評分權重
type Weights struct {
	TagMatch          float64
	Goal              float64
	Diversity         float64
	Recency           float64 // 預設為負值，構成回鍋懲罰
	TieEpsilon        float64
	ScoreFloor        float64
	ScoreFloorEnabled bool
	DiversityTagTypes []common.TagType
}

// DefaultWeights 預設權重
func DefaultWeights() Weights {
	return Weights{
		TagMatch:          1.0,
		Goal:              2.0,
		Diversity:         0.5,
		Recency:           -1.0,
		TieEpsilon:        0.01,
		ScoreFloor:        0,
		ScoreFloorEnabled: false,
		DiversityTagTypes: []common.TagType{common.TagTypeCuisine, common.TagTypeProtein},
	}
}

// WeightsFromConfig 由設定導出權重
func WeightsFromConfig(cfg *config.ScoringConfig) Weights {
	types := make([]common.TagType, 0, len(cfg.DiversityTagTypes))
	for _, t := range cfg.DiversityTagTypes {
		types = append(types, common.TagType(t))
	}
	return Weights{
		TagMatch:          cfg.TagMatchWeight,
		Goal:              cfg.GoalWeight,
		Diversity:         cfg.DiversityWeight,
		Recency:           cfg.RecencyWeight,
		TieEpsilon:        cfg.TieEpsilon,
		ScoreFloor:        cfg.ScoreFloor,
		ScoreFloorEnabled: cfg.ScoreFloorEnabled,
		DiversityTagTypes: types,
	}
}

// Breakdown 可解釋的評分明細
type Breakdown struct {
	TagMatch      float64          `json:"tag_match"`
	GoalAlignment float64          `json:"goal_alignment"`
	Diversity     float64          `json:"diversity"`
	Recency       float64          `json:"recency"`
	MatchedTagIDs []string         `json:"matched_tag_ids,omitempty"`
	MatchedGoals  []common.TagType `json:"matched_goals,omitempty"`
}

// ScoredRecipe 食譜與其總分和明細
type ScoredRecipe struct {
	Recipe    common.Recipe `json:"recipe"`
	Total     float64       `json:"total"`
	Breakdown Breakdown     `json:"breakdown"`
}

// Context 單次評分的呼叫端上下文
type Context struct {
	RecentRecipeIDs      map[string]struct{} // 近期吃過的食譜
	CurrentPlanRecipeIDs map[string]struct{} // 目前菜單中的食譜
	CurrentPlanTagIDs    map[string]struct{} // 目前菜單中食譜的標籤聯集
}

// Scorer 純函數評分引擎：不做 I/O、不持狀態、不改輸入，對任何輸入皆有定義
type Scorer struct {
	weights Weights
}

// NewScorer 創建評分引擎
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score 對單一食譜評分。各項加總，不做上下限裁剪，總分可為負
func (s *Scorer) Score(recipe common.Recipe, prefs *common.UserPreferences, taxonomy map[string]common.Tag, sctx Context) ScoredRecipe {
	scored := ScoredRecipe{Recipe: recipe}

	if prefs != nil {
		// 偏好標籤匹配：每個命中標籤加固定權重
		preferred := prefs.PreferredTagSet()
		for _, tagID := range recipe.TagIDs {
			if _, ok := preferred[tagID]; ok {
				scored.Breakdown.TagMatch += s.weights.TagMatch
				scored.Breakdown.MatchedTagIDs = append(scored.Breakdown.MatchedTagIDs, tagID)
			}
		}

		// 目標對齊：目標順序導出優先度，越前面權重越高；
		// 可同時命中多個目標，各自獨立加分，不設上限
		goalCount := len(prefs.Goals)
		for i, goal := range prefs.Goals {
			priority := goalCount - i
			if recipeHasTagType(recipe, taxonomy, goal) {
				scored.Breakdown.GoalAlignment += float64(priority) * s.weights.Goal
				scored.Breakdown.MatchedGoals = append(scored.Breakdown.MatchedGoals, goal)
			}
		}
	}

	// 多樣性加分：僅在菜單非空時適用。比較設定類型（如菜系、蛋白質）
	// 的標籤與既有菜單的重疊程度，重疊越少加分越多
	if len(sctx.CurrentPlanRecipeIDs) > 0 {
		scored.Breakdown.Diversity = s.diversityBonus(recipe, taxonomy, sctx.CurrentPlanTagIDs)
	}

	// 回鍋懲罰：近期吃過的食譜加上（預設為負的）權重
	if _, ok := sctx.RecentRecipeIDs[recipe.ID]; ok {
		scored.Breakdown.Recency = s.weights.Recency
	}

	scored.Total = scored.Breakdown.TagMatch +
		scored.Breakdown.GoalAlignment +
		scored.Breakdown.Diversity +
		scored.Breakdown.Recency
	return scored
}

// diversityBonus 計算多樣性加分：
// bonus = weight × (1 − 重疊比例)，食譜在設定類型下沒有標籤時視為完全相異
func (s *Scorer) diversityBonus(recipe common.Recipe, taxonomy map[string]common.Tag, planTagIDs map[string]struct{}) float64 {
	typeSet := make(map[common.TagType]struct{}, len(s.weights.DiversityTagTypes))
	for _, t := range s.weights.DiversityTagTypes {
		typeSet[t] = struct{}{}
	}

	var considered, overlapped int
	for _, tagID := range recipe.TagIDs {
		tag, ok := taxonomy[tagID]
		if !ok {
			continue
		}
		if _, ok := typeSet[tag.Type]; !ok {
			continue
		}
		considered++
		if _, ok := planTagIDs[tagID]; ok {
			overlapped++
		}
	}

	if considered == 0 {
		return s.weights.Diversity
	}
	return s.weights.Diversity * (1 - float64(overlapped)/float64(considered))
}

// recipeHasTagType 解析食譜標籤並檢查是否含指定類型
func recipeHasTagType(recipe common.Recipe, taxonomy map[string]common.Tag, tagType common.TagType) bool {
	for _, tagID := range recipe.TagIDs {
		if tag, ok := taxonomy[tagID]; ok && tag.Type == tagType {
			return true
		}
	}
	return false
}
