package recommend

import (
	"math/rand"
	"sort"

	"meal-recommender/internal/pkg/common"
)

// Options 單次推薦請求的選項
type Options struct {
	Count                int
	ExcludeIDs           map[string]struct{}
	RecentRecipeIDs      map[string]struct{}
	CurrentPlanRecipeIDs map[string]struct{}
	CurrentPlanTagIDs    map[string]struct{}
}

// Selector 推薦選擇器：過濾、評分、排序、截斷
type Selector struct {
	scorer *Scorer
}

// NewSelector 創建推薦選擇器
func NewSelector(scorer *Scorer) *Selector {
	return &Selector{scorer: scorer}
}

// Select 回傳最多 opts.Count 筆推薦，分數由高到低。
// 候選不足時回傳全部；使用者沒有任何評分訊號時退回均勻隨機選取。
// 分數差距在 TieEpsilon 內視為同分，同分之間順序隨機
func (s *Selector) Select(recipes []common.Recipe, prefs *common.UserPreferences, taxonomy map[string]common.Tag, opts Options) []ScoredRecipe {
	candidates := FilterCandidates(recipes, opts.ExcludeIDs)
	if len(candidates) == 0 {
		return []ScoredRecipe{}
	}

	if prefs == nil || !prefs.HasScoringSignals() {
		return s.selectRandom(candidates, opts.Count)
	}

	sctx := Context{
		RecentRecipeIDs:      opts.RecentRecipeIDs,
		CurrentPlanRecipeIDs: opts.CurrentPlanRecipeIDs,
		CurrentPlanTagIDs:    opts.CurrentPlanTagIDs,
	}

	scored := make([]ScoredRecipe, 0, len(candidates))
	for _, r := range candidates {
		sr := s.scorer.Score(r, prefs, taxonomy, sctx)
		if s.scorer.weights.ScoreFloorEnabled && sr.Total < s.scorer.weights.ScoreFloor {
			continue
		}
		scored = append(scored, sr)
	}

	// 先依總分嚴格排序，再於各個 epsilon 同分區間內洗牌。
	// 分組以區間首位為基準，確保高出 epsilon 的分數絕不落到低分之後
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Total > scored[j].Total
	})
	epsilon := s.scorer.weights.TieEpsilon
	for start := 0; start < len(scored); {
		end := start + 1
		for end < len(scored) && scored[start].Total-scored[end].Total <= epsilon {
			end++
		}
		group := scored[start:end]
		rand.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		start = end
	}

	if opts.Count > 0 && len(scored) > opts.Count {
		scored = scored[:opts.Count]
	}
	return scored
}

// selectRandom 均勻隨機選取：無偏好訊號時的遞補策略，分數一律為零
func (s *Selector) selectRandom(candidates []common.Recipe, count int) []ScoredRecipe {
	picked := make([]ScoredRecipe, 0, len(candidates))
	for _, r := range candidates {
		picked = append(picked, ScoredRecipe{Recipe: r})
	}
	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if count > 0 && len(picked) > count {
		picked = picked[:count]
	}
	return picked
}
