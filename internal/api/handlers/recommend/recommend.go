package recommend

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-recommender/internal/api/middleware"
	"meal-recommender/internal/core/catalog"
	"meal-recommender/internal/core/mealplan"
	"meal-recommender/internal/core/prefs"
	"meal-recommender/internal/core/recommend"
	"meal-recommender/internal/core/week"
	"meal-recommender/internal/pkg/common"
)

// Handler 推薦處理程序
type Handler struct {
	catalog     *catalog.Service
	prefs       *prefs.Service
	selector    *recommend.Selector
	sessions    *mealplan.SessionManager
	store       *mealplan.Store
	weeks       *week.Service
	recentWeeks int
}

// NewHandler 創建推薦處理程序
func NewHandler(catalogSvc *catalog.Service, prefsSvc *prefs.Service, selector *recommend.Selector, sessions *mealplan.SessionManager, store *mealplan.Store, weeks *week.Service, recentWeeks int) *Handler {
	return &Handler{
		catalog:     catalogSvc,
		prefs:       prefsSvc,
		selector:    selector,
		sessions:    sessions,
		store:       store,
		weeks:       weeks,
		recentWeeks: recentWeeks,
	}
}

// Request 推薦請求
type Request struct {
	Count      int      `json:"count"`
	ExcludeIDs []string `json:"exclude_ids,omitempty"`
}

// HandleRecommend 回傳依分數排序的推薦食譜，附評分明細
func (h *Handler) HandleRecommend(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	ctx := c.Request.Context()

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Count < 1 {
		req.Count = common.DefaultMealsPerWeek
	}

	userPrefs, err := h.prefs.Get(ctx, userID)
	if err != nil {
		common.LogError("取得偏好失敗", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load preferences"})
		return
	}

	recipes, err := h.catalog.Recipes(ctx)
	if err != nil {
		common.LogError("取得食譜目錄失敗", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load recipe catalog"})
		return
	}
	taxonomy, err := h.catalog.TagIndex(ctx)
	if err != nil {
		common.LogError("取得標籤失敗", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load tags"})
		return
	}

	// 排除名單：請求指定的食譜加上目前菜單中的食譜
	assembler := h.sessions.Get(userID, h.weeks.CurrentWeek().ID)
	excludeIDs := assembler.RecipeIDSet()
	for _, id := range req.ExcludeIDs {
		excludeIDs[id] = struct{}{}
	}

	recent := h.store.RecentRecipeIDs(ctx, userID, h.weeks.PastWeekIDs(h.recentWeeks))

	scored := h.selector.Select(recipes, userPrefs, taxonomy, recommend.Options{
		Count:                req.Count,
		ExcludeIDs:           excludeIDs,
		RecentRecipeIDs:      recent,
		CurrentPlanRecipeIDs: assembler.RecipeIDSet(),
		CurrentPlanTagIDs:    assembler.TagIDSet(),
	})

	common.LogInfo("已產生推薦",
		zap.String("user_id", userID),
		zap.Int("requested", req.Count),
		zap.Int("returned", len(scored)),
	)

	c.JSON(http.StatusOK, gin.H{
		"recommendations": scored,
		"count":           len(scored),
	})
}
