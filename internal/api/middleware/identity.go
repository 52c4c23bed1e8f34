package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meal-recommender/internal/pkg/common"
)

// UserIDKey gin context 中使用者識別碼的鍵
const UserIDKey = "user_id"

// userIDHeader 呼叫端身分標頭
const userIDHeader = "X-User-ID"

// Identity 身分中間件：所有 /api 路由都需要 X-User-ID 標頭
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing " + userIDHeader + " header",
				"code":  common.ErrCodeUnauthorized,
			})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}
