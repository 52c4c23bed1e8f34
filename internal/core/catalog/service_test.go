package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-recommender/internal/infrastructure/cache"
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

type fakeReader struct {
	recipes     []common.Recipe
	tags        []common.Tag
	err         error
	recipeCalls int
	tagCalls    int
}

func (f *fakeReader) ListRecipes(ctx context.Context) ([]common.Recipe, error) {
	f.recipeCalls++
	return f.recipes, f.err
}

func (f *fakeReader) ListTags(ctx context.Context) ([]common.Tag, error) {
	f.tagCalls++
	return f.tags, f.err
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		recipes: []common.Recipe{
			{ID: "r-1", Name: "義式烤雞", TagIDs: []string{"t-italian"}},
			{ID: "r-2", Name: "墨西哥塔可", TagIDs: []string{"t-mexican"}},
		},
		tags: []common.Tag{
			{ID: "t-italian", Name: "義式", Type: common.TagTypeCuisine},
			{ID: "t-mexican", Name: "墨西哥", Type: common.TagTypeCuisine},
		},
	}
}

func newTestMemoryStore(t *testing.T) cache.Store {
	t.Helper()
	store := cache.NewMemoryStore(&config.CacheConfig{
		Enabled:         true,
		MaxSize:         100,
		TTL:             time.Minute,
		CleanupInterval: time.Minute,
	})
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecipesMemoized(t *testing.T) {
	reader := newFakeReader()
	svc := NewService(reader, nil, time.Minute)

	recipes, err := svc.Recipes(context.Background())
	require.NoError(t, err)
	assert.Len(t, recipes, 2)
	assert.Equal(t, 1, reader.recipeCalls)

	// 第二次讀取走本地記憶，不再呼叫後端
	_, err = svc.Recipes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reader.recipeCalls)
}

func TestRecipesCacheAside(t *testing.T) {
	store := newTestMemoryStore(t)
	reader := newFakeReader()

	svc := NewService(reader, store, time.Minute)
	_, err := svc.Recipes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, reader.recipeCalls)

	// 新的服務實例從外部快取補水，不再打到後端
	fresh := NewService(reader, store, time.Minute)
	recipes, err := fresh.Recipes(context.Background())
	require.NoError(t, err)
	assert.Len(t, recipes, 2)
	assert.Equal(t, 1, reader.recipeCalls)
}

func TestTagIndex(t *testing.T) {
	reader := newFakeReader()
	svc := NewService(reader, nil, time.Minute)

	index, err := svc.TagIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, index, 2)
	assert.Equal(t, common.TagTypeCuisine, index["t-italian"].Type)
}

func TestRecipeByID(t *testing.T) {
	reader := newFakeReader()
	svc := NewService(reader, nil, time.Minute)

	recipe, found, err := svc.RecipeByID(context.Background(), "r-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "義式烤雞", recipe.Name)

	_, found, err = svc.RecipeByID(context.Background(), "r-ghost")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRefreshBypassesCaches(t *testing.T) {
	store := newTestMemoryStore(t)
	reader := newFakeReader()
	svc := NewService(reader, store, time.Minute)

	_, err := svc.Recipes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, reader.recipeCalls)

	reader.recipes = append(reader.recipes, common.Recipe{ID: "r-3", Name: "新食譜"})
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 2, reader.recipeCalls)

	recipes, err := svc.Recipes(context.Background())
	require.NoError(t, err)
	assert.Len(t, recipes, 3)
}

func TestRecipesBackendError(t *testing.T) {
	reader := &fakeReader{err: errors.New("backend down")}
	svc := NewService(reader, nil, time.Minute)

	_, err := svc.Recipes(context.Background())
	assert.Error(t, err)
}
