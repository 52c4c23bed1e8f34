package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogHandler "meal-recommender/internal/api/handlers/catalog"
	"meal-recommender/internal/api/handlers/health"
	planHandler "meal-recommender/internal/api/handlers/plan"
	prefsHandler "meal-recommender/internal/api/handlers/prefs"
	recommendHandler "meal-recommender/internal/api/handlers/recommend"
	"meal-recommender/internal/api/middleware"
	"meal-recommender/internal/core/catalog"
	"meal-recommender/internal/core/mealplan"
	"meal-recommender/internal/core/prefs"
	"meal-recommender/internal/core/recommend"
	"meal-recommender/internal/core/week"
	"meal-recommender/internal/infrastructure/backend"
	"meal-recommender/internal/infrastructure/cache"
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

const (
	// 請求超時
	timeoutDuration = 30 * time.Second
	// 請求體大小限制 (1MB)
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheStore cache.Store) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 初始化服務
	backendClient := backend.NewClient(cfg)
	catalogSvc := catalog.NewService(backendClient, cacheStore, cfg.Cache.TTL)
	prefsSvc := prefs.NewService(backendClient)
	weekSvc := week.NewService(cfg.Plan.WeekSpanPast, cfg.Plan.WeekSpanFuture)

	scorer := recommend.NewScorer(recommend.WeightsFromConfig(&cfg.Scoring))
	selector := recommend.NewSelector(scorer)

	sessions := mealplan.NewSessionManager(catalogSvc, prefsSvc, selector)
	planStore := mealplan.NewStore(backendClient, catalogSvc)

	common.LogInfo("Services initialized",
		zap.Bool("cache_enabled", cfg.Cache.Enabled || cfg.Redis.Enabled),
		zap.Int("week_span_past", cfg.Plan.WeekSpanPast),
		zap.Int("week_span_future", cfg.Plan.WeekSpanFuture),
		zap.Duration("timeout", timeoutDuration),
	)

	// 全局中間件：設置超時和配置
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
			c.Abort()
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck(func(c *gin.Context) error {
		_, err := catalogSvc.Recipes(c.Request.Context())
		return err
	}))
	router.GET("/live", health.LivenessCheck)

	// API 路由組：所有端點都需要呼叫端身分
	api := router.Group("/api/v1")
	api.Use(middleware.Identity())
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Deduplication(cfg))
	{
		catalogH := catalogHandler.NewHandler(catalogSvc)
		api.GET("/recipes", catalogH.HandleListRecipes)
		api.POST("/recipes/refresh", catalogH.HandleRefresh)
		api.GET("/tags", catalogH.HandleListTags)

		prefsH := prefsHandler.NewHandler(prefsSvc)
		api.GET("/preferences", prefsH.HandleGet)
		api.PUT("/preferences", prefsH.HandleUpdate)

		recommendH := recommendHandler.NewHandler(catalogSvc, prefsSvc, selector, sessions, planStore, weekSvc, cfg.Plan.RecentWeeks)
		api.POST("/recommendations", recommendH.HandleRecommend)

		planH := planHandler.NewHandler(sessions, planStore, weekSvc, cfg.Plan.RecentWeeks)
		planGroup := api.Group("/plan")
		{
			planGroup.GET("", planH.HandleGet)
			planGroup.POST("/generate", planH.HandleGenerate)
			planGroup.POST("/regenerate", planH.HandleRegenerate)
			planGroup.POST("/entries", planH.HandleAddEntry)
			planGroup.PATCH("/entries/:entry_id/servings", planH.HandleUpdateEntry)
			planGroup.DELETE("/entries/:entry_id", planH.HandleRemoveEntry)
			planGroup.GET("/weeks", planH.HandleListWeeks)
			planGroup.GET("/:week_id", planH.HandleLoadWeek)
			planGroup.PUT("/:week_id", planH.HandleSaveWeek)
			planGroup.PATCH("/:week_id/status", planH.HandleUpdateStatus)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
