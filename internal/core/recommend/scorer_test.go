package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-recommender/internal/pkg/common"
)

func testTaxonomy() map[string]common.Tag {
	tags := []common.Tag{
		{ID: "t-italian", Name: "義式", Type: common.TagTypeCuisine},
		{ID: "t-mexican", Name: "墨西哥", Type: common.TagTypeCuisine},
		{ID: "t-chicken", Name: "雞肉", Type: common.TagTypeProtein},
		{ID: "t-beef", Name: "牛肉", Type: common.TagTypeProtein},
		{ID: "t-cheap", Name: "平價", Type: common.TagTypeBudget},
		{ID: "t-high-protein", Name: "高蛋白", Type: common.TagTypeMacro},
		{ID: "t-quick", Name: "快速", Type: common.TagTypeTime},
	}
	index := make(map[string]common.Tag, len(tags))
	for _, tag := range tags {
		index[tag.ID] = tag
	}
	return index
}

func testRecipe(id string, tagIDs ...string) common.Recipe {
	return common.Recipe{ID: id, Name: id, TagIDs: tagIDs}
}

func prefsWithTags(tagIDs ...string) *common.UserPreferences {
	p := common.DefaultPreferences("user-1")
	for i, id := range tagIDs {
		p.PreferredTags = append(p.PreferredTags, common.PreferredTag{TagID: id, Priority: i})
	}
	return p
}

func TestScoreTagMatch(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := prefsWithTags("t-italian", "t-chicken")
	recipe := testRecipe("r-1", "t-italian", "t-chicken", "t-cheap")

	scored := scorer.Score(recipe, prefs, testTaxonomy(), Context{})

	assert.InDelta(t, 2.0, scored.Breakdown.TagMatch, 1e-9)
	assert.ElementsMatch(t, []string{"t-italian", "t-chicken"}, scored.Breakdown.MatchedTagIDs)
	assert.InDelta(t, 2.0, scored.Total, 1e-9)
}

func TestScoreIdempotent(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := prefsWithTags("t-italian")
	prefs.Goals = []common.TagType{common.TagTypeMacro}
	recipe := testRecipe("r-1", "t-italian", "t-high-protein")
	sctx := Context{
		RecentRecipeIDs:      map[string]struct{}{"r-1": {}},
		CurrentPlanRecipeIDs: map[string]struct{}{"r-2": {}},
		CurrentPlanTagIDs:    map[string]struct{}{"t-mexican": {}},
	}

	first := scorer.Score(recipe, prefs, testTaxonomy(), sctx)
	second := scorer.Score(recipe, prefs, testTaxonomy(), sctx)

	assert.Equal(t, first, second)
}

func TestScoreGoalPriorityOrdering(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := common.DefaultPreferences("user-1")
	prefs.Goals = []common.TagType{common.TagTypeMacro, common.TagTypeTime}

	macroOnly := scorer.Score(testRecipe("r-macro", "t-high-protein"), prefs, testTaxonomy(), Context{})
	timeOnly := scorer.Score(testRecipe("r-time", "t-quick"), prefs, testTaxonomy(), Context{})

	// 第一個目標的優先度為 2，第二個為 1
	assert.InDelta(t, 4.0, macroOnly.Breakdown.GoalAlignment, 1e-9)
	assert.InDelta(t, 2.0, timeOnly.Breakdown.GoalAlignment, 1e-9)
	assert.Greater(t, macroOnly.Total, timeOnly.Total)
}

func TestScoreGoalsAdditive(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := common.DefaultPreferences("user-1")
	prefs.Goals = []common.TagType{common.TagTypeMacro, common.TagTypeTime}

	both := scorer.Score(testRecipe("r-both", "t-high-protein", "t-quick"), prefs, testTaxonomy(), Context{})

	assert.InDelta(t, 6.0, both.Breakdown.GoalAlignment, 1e-9)
	assert.ElementsMatch(t,
		[]common.TagType{common.TagTypeMacro, common.TagTypeTime},
		both.Breakdown.MatchedGoals)
}

func TestScoreRecencyPenalty(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := prefsWithTags("t-italian")
	recipe := testRecipe("r-1", "t-mexican")

	scored := scorer.Score(recipe, prefs, testTaxonomy(), Context{
		RecentRecipeIDs: map[string]struct{}{"r-1": {}},
	})

	assert.InDelta(t, -1.0, scored.Breakdown.Recency, 1e-9)
	// 沒有任何匹配時總分可以為負
	assert.InDelta(t, -1.0, scored.Total, 1e-9)
}

func TestScoreDiversityRequiresNonEmptyPlan(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := prefsWithTags("t-italian")
	recipe := testRecipe("r-1", "t-italian", "t-chicken")

	empty := scorer.Score(recipe, prefs, testTaxonomy(), Context{})
	assert.Zero(t, empty.Breakdown.Diversity)

	nonEmpty := scorer.Score(recipe, prefs, testTaxonomy(), Context{
		CurrentPlanRecipeIDs: map[string]struct{}{"r-2": {}},
		CurrentPlanTagIDs:    map[string]struct{}{"t-mexican": {}, "t-beef": {}},
	})
	// 菜系與蛋白質皆無重疊，獲得全額加分
	assert.InDelta(t, 0.5, nonEmpty.Breakdown.Diversity, 1e-9)
}

func TestScoreDiversityOverlap(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := prefsWithTags("t-italian")
	recipe := testRecipe("r-1", "t-italian", "t-chicken")

	fullOverlap := scorer.Score(recipe, prefs, testTaxonomy(), Context{
		CurrentPlanRecipeIDs: map[string]struct{}{"r-2": {}},
		CurrentPlanTagIDs:    map[string]struct{}{"t-italian": {}, "t-chicken": {}},
	})
	assert.Zero(t, fullOverlap.Breakdown.Diversity)

	halfOverlap := scorer.Score(recipe, prefs, testTaxonomy(), Context{
		CurrentPlanRecipeIDs: map[string]struct{}{"r-2": {}},
		CurrentPlanTagIDs:    map[string]struct{}{"t-italian": {}},
	})
	assert.InDelta(t, 0.25, halfOverlap.Breakdown.Diversity, 1e-9)
}

func TestScoreDiversityIgnoresOtherTagTypes(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := prefsWithTags("t-italian")
	// 只有預算與時間標籤，不在多樣性比較範圍內
	recipe := testRecipe("r-1", "t-cheap", "t-quick")

	scored := scorer.Score(recipe, prefs, testTaxonomy(), Context{
		CurrentPlanRecipeIDs: map[string]struct{}{"r-2": {}},
		CurrentPlanTagIDs:    map[string]struct{}{"t-cheap": {}},
	})

	// 比較範圍內沒有標籤時視為完全相異
	assert.InDelta(t, 0.5, scored.Breakdown.Diversity, 1e-9)
}

func TestScoreTagMatchMonotonic(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := prefsWithTags("t-italian", "t-chicken", "t-cheap")

	one := scorer.Score(testRecipe("r-1", "t-italian"), prefs, testTaxonomy(), Context{})
	two := scorer.Score(testRecipe("r-2", "t-italian", "t-chicken"), prefs, testTaxonomy(), Context{})
	three := scorer.Score(testRecipe("r-3", "t-italian", "t-chicken", "t-cheap"), prefs, testTaxonomy(), Context{})

	require.Less(t, one.Total, two.Total)
	require.Less(t, two.Total, three.Total)
}

func TestScoreNilPreferences(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	recipe := testRecipe("r-1", "t-italian")

	scored := scorer.Score(recipe, nil, testTaxonomy(), Context{})

	assert.Zero(t, scored.Total)
	assert.Zero(t, scored.Breakdown.TagMatch)
	assert.Zero(t, scored.Breakdown.GoalAlignment)
}

func TestScoreUnknownTagsIgnored(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prefs := common.DefaultPreferences("user-1")
	prefs.Goals = []common.TagType{common.TagTypeMacro}

	scored := scorer.Score(testRecipe("r-1", "t-ghost"), prefs, testTaxonomy(), Context{})

	assert.Zero(t, scored.Breakdown.GoalAlignment)
}
