package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-recommender/internal/core/catalog"
	"meal-recommender/internal/pkg/common"
)

// Handler 目錄處理程序
type Handler struct {
	service *catalog.Service
}

// NewHandler 創建目錄處理程序
func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

// HandleListRecipes 列出目錄中的所有食譜
func (h *Handler) HandleListRecipes(c *gin.Context) {
	recipes, err := h.service.Recipes(c.Request.Context())
	if err != nil {
		common.LogError("取得食譜目錄失敗", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load recipe catalog"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// HandleListTags 列出標籤詞彙表
func (h *Handler) HandleListTags(c *gin.Context) {
	tags, err := h.service.Tags(c.Request.Context())
	if err != nil {
		common.LogError("取得標籤失敗", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load tags"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tags":  tags,
		"count": len(tags),
	})
}

// HandleRefresh 強制重新載入目錄（跳過快取）
func (h *Handler) HandleRefresh(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		common.LogError("重新載入目錄失敗", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to refresh catalog"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "refreshed",
	})
}
