package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-recommender/internal/pkg/common"
)

func testCatalog() []common.Recipe {
	return []common.Recipe{
		testRecipe("r-italian-chicken", "t-italian", "t-chicken"),
		testRecipe("r-italian-beef", "t-italian", "t-beef"),
		testRecipe("r-mexican-chicken", "t-mexican", "t-chicken"),
		testRecipe("r-mexican-beef", "t-mexican", "t-beef"),
		testRecipe("r-quick", "t-quick"),
		testRecipe("r-cheap", "t-cheap"),
	}
}

func TestFilterCandidatesPreservesOrder(t *testing.T) {
	recipes := testCatalog()
	exclude := map[string]struct{}{"r-italian-beef": {}, "r-quick": {}}

	filtered := FilterCandidates(recipes, exclude)

	require.Len(t, filtered, 4)
	assert.Equal(t, "r-italian-chicken", filtered[0].ID)
	assert.Equal(t, "r-mexican-chicken", filtered[1].ID)
	assert.Equal(t, "r-mexican-beef", filtered[2].ID)
	assert.Equal(t, "r-cheap", filtered[3].ID)
	// 輸入不被修改
	assert.Len(t, recipes, 6)
}

func TestFilterCandidatesNoExclusions(t *testing.T) {
	recipes := testCatalog()
	filtered := FilterCandidates(recipes, nil)

	require.Len(t, filtered, len(recipes))
	// 回傳副本，修改不影響原切片
	filtered[0] = testRecipe("r-other")
	assert.Equal(t, "r-italian-chicken", recipes[0].ID)
}

func TestSelectCountBound(t *testing.T) {
	selector := NewSelector(NewScorer(DefaultWeights()))
	prefs := prefsWithTags("t-italian")

	picked := selector.Select(testCatalog(), prefs, testTaxonomy(), Options{Count: 3})

	require.Len(t, picked, 3)
	seen := make(map[string]struct{})
	for _, sr := range picked {
		_, dup := seen[sr.Recipe.ID]
		assert.False(t, dup, "recipe %s returned twice", sr.Recipe.ID)
		seen[sr.Recipe.ID] = struct{}{}
	}
}

func TestSelectFewerCandidatesThanCount(t *testing.T) {
	selector := NewSelector(NewScorer(DefaultWeights()))
	prefs := prefsWithTags("t-italian")

	picked := selector.Select(testCatalog()[:2], prefs, testTaxonomy(), Options{Count: 10})

	assert.Len(t, picked, 2)
}

func TestSelectRespectsExclusions(t *testing.T) {
	selector := NewSelector(NewScorer(DefaultWeights()))
	prefs := prefsWithTags("t-italian")

	picked := selector.Select(testCatalog(), prefs, testTaxonomy(), Options{
		Count:      10,
		ExcludeIDs: map[string]struct{}{"r-italian-chicken": {}, "r-italian-beef": {}},
	})

	for _, sr := range picked {
		assert.NotEqual(t, "r-italian-chicken", sr.Recipe.ID)
		assert.NotEqual(t, "r-italian-beef", sr.Recipe.ID)
	}
}

func TestSelectOrderedByScore(t *testing.T) {
	selector := NewSelector(NewScorer(DefaultWeights()))
	prefs := prefsWithTags("t-italian", "t-chicken")

	picked := selector.Select(testCatalog(), prefs, testTaxonomy(), Options{Count: 6})

	require.NotEmpty(t, picked)
	// 雙重匹配的食譜必須排在首位
	assert.Equal(t, "r-italian-chicken", picked[0].Recipe.ID)
	for i := 1; i < len(picked); i++ {
		assert.GreaterOrEqual(t, picked[i-1].Total+0.01, picked[i].Total)
	}
}

func TestSelectNearTiesRandomized(t *testing.T) {
	selector := NewSelector(NewScorer(DefaultWeights()))
	prefs := prefsWithTags("t-chicken")
	// 兩道食譜分數完全相同
	recipes := []common.Recipe{
		testRecipe("r-a", "t-chicken"),
		testRecipe("r-b", "t-chicken"),
	}

	firsts := make(map[string]int)
	for i := 0; i < 200; i++ {
		picked := selector.Select(recipes, prefs, testTaxonomy(), Options{Count: 2})
		require.Len(t, picked, 2)
		firsts[picked[0].Recipe.ID]++
	}

	assert.Greater(t, firsts["r-a"], 0, "r-a never ranked first across trials")
	assert.Greater(t, firsts["r-b"], 0, "r-b never ranked first across trials")
}

func TestSelectEpsilonDoesNotReorderClearWinners(t *testing.T) {
	selector := NewSelector(NewScorer(DefaultWeights()))
	prefs := prefsWithTags("t-italian", "t-chicken")
	recipes := []common.Recipe{
		testRecipe("r-low", "t-chicken"),
		testRecipe("r-high", "t-italian", "t-chicken"),
	}

	for i := 0; i < 50; i++ {
		picked := selector.Select(recipes, prefs, testTaxonomy(), Options{Count: 2})
		require.Len(t, picked, 2)
		assert.Equal(t, "r-high", picked[0].Recipe.ID)
	}
}

func TestSelectNearTieChainKeepsStrictOrder(t *testing.T) {
	// 分數鏈 0.012 / 0.006 / 0，相鄰差距都在 epsilon 內，
	// 但頭尾差距超過 epsilon：最低分絕不能排到最前
	weights := DefaultWeights()
	weights.TagMatch = 0.006
	weights.TieEpsilon = 0.01
	selector := NewSelector(NewScorer(weights))
	prefs := prefsWithTags("t-italian", "t-chicken")
	recipes := []common.Recipe{
		testRecipe("r-none", "t-quick"),
		testRecipe("r-one", "t-italian"),
		testRecipe("r-both", "t-italian", "t-chicken"),
	}

	firsts := make(map[string]int)
	for i := 0; i < 200; i++ {
		picked := selector.Select(recipes, prefs, testTaxonomy(), Options{Count: 3})
		require.Len(t, picked, 3)
		assert.Equal(t, "r-none", picked[2].Recipe.ID, "zero-score recipe must rank last")
		firsts[picked[0].Recipe.ID]++
	}

	// 前兩名在 epsilon 內屬同分組，順序應隨機
	assert.Greater(t, firsts["r-both"], 0)
	assert.Greater(t, firsts["r-one"], 0)
}

func TestSelectRandomFallbackWithoutSignals(t *testing.T) {
	selector := NewSelector(NewScorer(DefaultWeights()))
	// 預設偏好沒有目標也沒有偏好標籤
	prefs := common.DefaultPreferences("user-1")

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		picked := selector.Select(testCatalog(), prefs, testTaxonomy(), Options{Count: 2})
		require.Len(t, picked, 2)
		for _, sr := range picked {
			assert.Zero(t, sr.Total)
			seen[sr.Recipe.ID] = struct{}{}
		}
	}

	// 均勻隨機之下，多次選取應涵蓋整個目錄
	assert.Len(t, seen, len(testCatalog()))
}

func TestSelectScoreFloor(t *testing.T) {
	weights := DefaultWeights()
	weights.ScoreFloorEnabled = true
	weights.ScoreFloor = 0.5
	selector := NewSelector(NewScorer(weights))
	prefs := prefsWithTags("t-italian")

	picked := selector.Select(testCatalog(), prefs, testTaxonomy(), Options{Count: 10})

	// 只剩兩道義式料理達到分數下限
	require.Len(t, picked, 2)
	for _, sr := range picked {
		assert.GreaterOrEqual(t, sr.Total, 0.5)
	}
}

func TestSelectEmptyCandidates(t *testing.T) {
	selector := NewSelector(NewScorer(DefaultWeights()))
	prefs := prefsWithTags("t-italian")

	picked := selector.Select(nil, prefs, testTaxonomy(), Options{Count: 4})
	assert.Empty(t, picked)

	all := map[string]struct{}{}
	for _, r := range testCatalog() {
		all[r.ID] = struct{}{}
	}
	picked = selector.Select(testCatalog(), prefs, testTaxonomy(), Options{Count: 4, ExcludeIDs: all})
	assert.Empty(t, picked)
}
