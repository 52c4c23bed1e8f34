package recommend

import "meal-recommender/internal/pkg/common"

// FilterCandidates 從全集剔除排除名單中的食譜，保留輸入順序，不修改輸入
func FilterCandidates(recipes []common.Recipe, excludeIDs map[string]struct{}) []common.Recipe {
	if len(excludeIDs) == 0 {
		out := make([]common.Recipe, len(recipes))
		copy(out, recipes)
		return out
	}

	out := make([]common.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if _, excluded := excludeIDs[r.ID]; excluded {
			continue
		}
		out = append(out, r)
	}
	return out
}
