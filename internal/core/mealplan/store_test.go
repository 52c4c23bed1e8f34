package mealplan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-recommender/internal/pkg/common"
)

type mockBackend struct {
	rows       map[string][]common.PlanRow
	fetchErr   error
	saveErr    error
	statusErr  error
	savedWeek  string
	savedUser  string
	savedRows  []common.PlanRowInput
	lastStatus common.PlanStatus
}

func (m *mockBackend) ReplaceWeekMealPlan(ctx context.Context, weekID string, meals []common.PlanRowInput, userID string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedWeek = weekID
	m.savedUser = userID
	m.savedRows = meals
	return nil
}

func (m *mockBackend) GetWeekMealPlanWithRecipes(ctx context.Context, weekID, userID string) ([]common.PlanRow, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.rows[weekID], nil
}

func (m *mockBackend) UpdateWeekMealPlanStatus(ctx context.Context, weekID string, status common.PlanStatus, userID string) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.lastStatus = status
	return nil
}

func planRow(id, recipeID, weekID string, servings int) common.PlanRow {
	return common.PlanRow{
		ID:        id,
		RecipeID:  recipeID,
		WeekID:    weekID,
		UserID:    "user-1",
		Servings:  servings,
		Status:    common.PlanStatusDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestSaveWritesSnapshot(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	assembler := newTestAssembler(catalog, &fakePrefs{prefs: testPrefs()})
	backend := &mockBackend{}
	store := NewStore(backend, catalog)

	_, _, err := assembler.Add(context.Background(), "r-1", 3)
	require.NoError(t, err)
	_, _, err = assembler.Add(context.Background(), "r-2", 2)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), assembler, "2026-W35"))

	assert.Equal(t, "2026-W35", backend.savedWeek)
	assert.Equal(t, "user-1", backend.savedUser)
	require.Len(t, backend.savedRows, 2)
	assert.Equal(t, "r-1", backend.savedRows[0].RecipeID)
	assert.Equal(t, 3, backend.savedRows[0].Servings)
	assert.Equal(t, 0, backend.savedRows[0].SortOrder)
	assert.Equal(t, "r-2", backend.savedRows[1].RecipeID)
	assert.Equal(t, 1, backend.savedRows[1].SortOrder)
}

func TestSaveEmptyWeekID(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	assembler := newTestAssembler(catalog, &fakePrefs{prefs: testPrefs()})
	store := NewStore(&mockBackend{}, catalog)

	err := store.Save(context.Background(), assembler, "")
	assert.ErrorIs(t, err, common.ErrInvalidWeekID)
}

func TestLoadExistingWeek(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	assembler := newTestAssembler(catalog, &fakePrefs{prefs: testPrefs()})
	backend := &mockBackend{rows: map[string][]common.PlanRow{
		"2026-W34": {
			planRow("e-1", "r-1", "2026-W34", 2),
			planRow("e-2", "r-4", "2026-W34", 3),
		},
	}}
	store := NewStore(backend, catalog)

	entries, loaded, err := store.Load(context.Background(), assembler, "2026-W34", nil)
	require.NoError(t, err)
	assert.True(t, loaded)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-W34", assembler.WeekID())
	// 以目錄的現行食譜補水
	assert.Equal(t, "義式烤雞", entries[0].Recipe.Name)
	assert.Equal(t, 2, entries[0].Servings)
}

func TestLoadFallsBackToGenerateWhenEmpty(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	assembler := newTestAssembler(catalog, &fakePrefs{prefs: testPrefs()})
	backend := &mockBackend{rows: map[string][]common.PlanRow{}}
	store := NewStore(backend, catalog)

	entries, loaded, err := store.Load(context.Background(), assembler, "2026-W36", nil)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Len(t, entries, 4)
	assert.Equal(t, "2026-W36", assembler.WeekID())
}

func TestLoadFallbackDiscardsStaleEntries(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	assembler := newTestAssembler(catalog, &fakePrefs{prefs: testPrefs()})
	backend := &mockBackend{rows: map[string][]common.PlanRow{}}
	store := NewStore(backend, catalog)

	// 上一週殘留的工作內容不該帶進新載入的一週
	stale, _, err := assembler.Add(context.Background(), "r-5", 0)
	require.NoError(t, err)

	entries, loaded, err := store.Load(context.Background(), assembler, "2026-W36", nil)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Len(t, entries, 4)
	_, found := assembler.GetByID(stale.ID)
	assert.False(t, found, "stale entry survived week switch")
}

func TestLoadFallsBackToGenerateOnFetchError(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	assembler := newTestAssembler(catalog, &fakePrefs{prefs: testPrefs()})
	fetchErr := errors.New("backend unavailable")
	backend := &mockBackend{fetchErr: fetchErr}
	store := NewStore(backend, catalog)

	entries, loaded, err := store.Load(context.Background(), assembler, "2026-W36", nil)
	// 讀取錯誤保留給呼叫端，但仍遞補產生菜單
	assert.ErrorIs(t, err, fetchErr)
	assert.False(t, loaded)
	assert.Len(t, entries, 4)
}

func TestLoadHydrationSnapshotFallback(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	assembler := newTestAssembler(catalog, &fakePrefs{prefs: testPrefs()})
	row := planRow("e-1", "r-removed", "2026-W34", 2)
	row.RecipeName = "已下架的食譜"
	row.RecipeImageURL = "https://img.example/removed.jpg"
	row.RecipeTotalTime = 25
	backend := &mockBackend{rows: map[string][]common.PlanRow{"2026-W34": {row}}}
	store := NewStore(backend, catalog)

	entries, loaded, err := store.Load(context.Background(), assembler, "2026-W34", nil)
	require.NoError(t, err)
	assert.True(t, loaded)
	require.Len(t, entries, 1)
	// 目錄查無食譜時採用列上的去正規化快照
	assert.Equal(t, "已下架的食譜", entries[0].Recipe.Name)
	assert.Equal(t, 25, entries[0].Recipe.TotalTimeMinutes)
}

func TestUpdateStatusValidation(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	backend := &mockBackend{}
	store := NewStore(backend, catalog)

	err := store.UpdateStatus(context.Background(), "user-1", "2026-W35", "archived")
	assert.ErrorIs(t, err, common.ErrInvalidPlanStatus)

	err = store.UpdateStatus(context.Background(), "user-1", "", common.PlanStatusConfirmed)
	assert.ErrorIs(t, err, common.ErrInvalidWeekID)

	require.NoError(t, store.UpdateStatus(context.Background(), "user-1", "2026-W35", common.PlanStatusConfirmed))
	assert.Equal(t, common.PlanStatusConfirmed, backend.lastStatus)
}

func TestRecentRecipeIDsToleratesErrors(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	backend := &mockBackend{rows: map[string][]common.PlanRow{
		"2026-W34": {planRow("e-1", "r-1", "2026-W34", 2)},
		"2026-W33": {planRow("e-2", "r-2", "2026-W33", 2), planRow("e-3", "r-3", "2026-W33", 2)},
	}}
	store := NewStore(backend, catalog)

	recent := store.RecentRecipeIDs(context.Background(), "user-1", []string{"2026-W34", "2026-W33", "2026-W32"})

	assert.Len(t, recent, 3)
	assert.Contains(t, recent, "r-1")
	assert.Contains(t, recent, "r-2")
	assert.Contains(t, recent, "r-3")
}

func TestSessionManagerReusesAssembler(t *testing.T) {
	catalog := &fakeCatalog{recipes: testRecipes(), tags: testTags()}
	prefs := &fakePrefs{prefs: testPrefs()}
	sessions := NewSessionManager(catalog, prefs, newTestAssembler(catalog, prefs).selector)

	first := sessions.Get("user-1", "2026-W35")
	second := sessions.Get("user-1", "2026-W36")
	assert.Same(t, first, second)

	other := sessions.Get("user-2", "2026-W35")
	assert.NotSame(t, first, other)

	sessions.Drop("user-1")
	assert.NotSame(t, first, sessions.Get("user-1", "2026-W35"))
}
