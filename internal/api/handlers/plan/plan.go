package plan

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-recommender/internal/api/middleware"
	"meal-recommender/internal/core/mealplan"
	"meal-recommender/internal/core/week"
	"meal-recommender/internal/pkg/common"
)

// Handler 週菜單處理程序
type Handler struct {
	sessions    *mealplan.SessionManager
	store       *mealplan.Store
	weeks       *week.Service
	recentWeeks int
}

// NewHandler 創建週菜單處理程序
func NewHandler(sessions *mealplan.SessionManager, store *mealplan.Store, weeks *week.Service, recentWeeks int) *Handler {
	return &Handler{
		sessions:    sessions,
		store:       store,
		weeks:       weeks,
		recentWeeks: recentWeeks,
	}
}

// AddEntryRequest 加入菜單項目請求
type AddEntryRequest struct {
	RecipeID string `json:"recipe_id" binding:"required"`
	Servings int    `json:"servings"` // 省略時依序採用使用者預設、食譜預設
}

// UpdateEntryRequest 調整菜單項目請求
type UpdateEntryRequest struct {
	Servings int `json:"servings" binding:"required"`
}

// UpdateStatusRequest 更新菜單狀態請求
type UpdateStatusRequest struct {
	Status common.PlanStatus `json:"status" binding:"required"`
}

// respondError 依錯誤類型回應對應的 HTTP 狀態碼
func respondError(c *gin.Context, err error) {
	var customErr *common.CustomError
	if errors.As(err, &customErr) {
		c.JSON(customErr.Status, gin.H{
			"error": customErr.Message,
			"code":  customErr.Code,
		})
		return
	}
	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	common.LogError("菜單操作失敗", zap.Error(err), zap.String("path", c.Request.URL.Path))
	c.JSON(common.ErrBackendError.Status, gin.H{
		"error": common.ErrBackendError.Message,
		"code":  common.ErrBackendError.Code,
	})
}

// session 取得使用者的組裝器工作階段
func (h *Handler) session(c *gin.Context) (*mealplan.Assembler, string) {
	userID := c.GetString(middleware.UserIDKey)
	return h.sessions.Get(userID, h.weeks.CurrentWeek().ID), userID
}

// HandleGenerate 依偏好產生一週菜單，既有項目保留並排除重複食譜
func (h *Handler) HandleGenerate(c *gin.Context) {
	assembler, userID := h.session(c)
	ctx := c.Request.Context()

	recent := h.store.RecentRecipeIDs(ctx, userID, h.weeks.PastWeekIDs(h.recentWeeks))
	entries, err := assembler.Generate(ctx, recent)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"week_id": assembler.WeekID(),
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleRegenerate 清空後重新產生
func (h *Handler) HandleRegenerate(c *gin.Context) {
	assembler, userID := h.session(c)
	ctx := c.Request.Context()

	recent := h.store.RecentRecipeIDs(ctx, userID, h.weeks.PastWeekIDs(h.recentWeeks))
	entries, err := assembler.Regenerate(ctx, recent)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"week_id": assembler.WeekID(),
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleGet 取得目前工作階段的菜單內容
func (h *Handler) HandleGet(c *gin.Context) {
	assembler, _ := h.session(c)
	entries := assembler.Entries()

	c.JSON(http.StatusOK, gin.H{
		"week_id":        assembler.WeekID(),
		"entries":        entries,
		"count":          len(entries),
		"total_servings": assembler.TotalServings(),
	})
}

// HandleAddEntry 加入單一食譜，重複食譜回報 added=false
func (h *Handler) HandleAddEntry(c *gin.Context) {
	assembler, userID := h.session(c)

	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	entry, added, err := assembler.Add(c.Request.Context(), req.RecipeID, req.Servings)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"entry": entry,
		"added": added,
	})
}

// HandleRemoveEntry 移除菜單項目
func (h *Handler) HandleRemoveEntry(c *gin.Context) {
	assembler, _ := h.session(c)

	if err := assembler.Remove(c.Param("entry_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// HandleUpdateEntry 調整菜單項目份量
func (h *Handler) HandleUpdateEntry(c *gin.Context) {
	assembler, userID := h.session(c)

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	entry, err := assembler.UpdateServings(c.Param("entry_id"), req.Servings)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// HandleListWeeks 列出可操作的週（過去與未來各延伸設定的週數）
func (h *Handler) HandleListWeeks(c *gin.Context) {
	weeks := h.weeks.Weeks()
	c.JSON(http.StatusOK, gin.H{
		"weeks": weeks,
		"count": len(weeks),
	})
}

// HandleLoadWeek 載入指定週的菜單；後端沒有資料時改為重新產生
func (h *Handler) HandleLoadWeek(c *gin.Context) {
	assembler, userID := h.session(c)
	ctx := c.Request.Context()

	weekID := c.Param("week_id")
	if !h.weeks.ValidWeekID(weekID) {
		respondError(c, common.ErrInvalidWeekID)
		return
	}

	recent := h.store.RecentRecipeIDs(ctx, userID, h.weeks.PastWeekIDs(h.recentWeeks))
	entries, loaded, err := h.store.Load(ctx, assembler, weekID, recent)
	if entries == nil && err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"week_id":   weekID,
		"entries":   entries,
		"count":     len(entries),
		"loaded":    loaded,
		"generated": !loaded,
		// 後端讀取失敗但已遞補產生時，提示呼叫端資料來源已降級
		"degraded": err != nil,
	})
}

// HandleSaveWeek 以目前工作階段內容整週覆寫後端
func (h *Handler) HandleSaveWeek(c *gin.Context) {
	assembler, _ := h.session(c)

	weekID := c.Param("week_id")
	if !h.weeks.ValidWeekID(weekID) {
		respondError(c, common.ErrInvalidWeekID)
		return
	}

	if err := h.store.Save(c.Request.Context(), assembler, weekID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"week_id": weekID,
		"saved":   len(assembler.Entries()),
	})
}

// HandleUpdateStatus 更新整週菜單的工作流程狀態
func (h *Handler) HandleUpdateStatus(c *gin.Context) {
	_, userID := h.session(c)

	weekID := c.Param("week_id")
	if !h.weeks.ValidWeekID(weekID) {
		respondError(c, common.ErrInvalidWeekID)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.store.UpdateStatus(c.Request.Context(), userID, weekID, req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"week_id": weekID,
		"status":  req.Status,
	})
}
