package prefs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-recommender/internal/api/middleware"
	"meal-recommender/internal/core/prefs"
	"meal-recommender/internal/pkg/common"
)

// Handler 偏好處理程序
type Handler struct {
	service *prefs.Service
}

// NewHandler 創建偏好處理程序
func NewHandler(service *prefs.Service) *Handler {
	return &Handler{service: service}
}

// UpdateRequest 偏好更新請求
type UpdateRequest struct {
	MealsPerWeek  int                   `json:"meals_per_week" binding:"required"`
	ServesPerMeal int                   `json:"serves_per_meal" binding:"required"`
	Goals         []common.TagType      `json:"goals"`
	PreferredTags []common.PreferredTag `json:"preferred_tags"`
}

// HandleGet 取得使用者偏好，首次存取時以預設值建立
func (h *Handler) HandleGet(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	userPrefs, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		common.LogError("取得偏好失敗",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load preferences"})
		return
	}

	c.JSON(http.StatusOK, userPrefs)
}

// HandleUpdate 覆寫使用者偏好
func (h *Handler) HandleUpdate(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	updated := &common.UserPreferences{
		UserID:        userID,
		MealsPerWeek:  req.MealsPerWeek,
		ServesPerMeal: req.ServesPerMeal,
		Goals:         req.Goals,
		PreferredTags: req.PreferredTags,
	}
	if updated.Goals == nil {
		updated.Goals = []common.TagType{}
	}
	if updated.PreferredTags == nil {
		updated.PreferredTags = []common.PreferredTag{}
	}

	if err := h.service.Update(c.Request.Context(), updated); err != nil {
		if common.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		common.LogError("更新偏好失敗",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update preferences"})
		return
	}

	c.JSON(http.StatusOK, updated)
}
