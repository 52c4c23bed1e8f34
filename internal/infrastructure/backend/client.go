package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// Client 持久化後端客戶端（PostgREST 風格的 REST + RPC 介面）
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient 創建後端客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Backend.BaseURL+"/rest/v1").
		SetHeader("apikey", cfg.Backend.APIKey).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Backend.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Backend.Timeout)

	return &Client{
		config: cfg,
		client: client,
	}
}

// rpc 呼叫後端遠程過程並將回應解析到 out（out 可為 nil）
func (c *Client) rpc(ctx context.Context, name string, payload interface{}, out interface{}) error {
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/rpc/" + name)

	common.LogBackendCall(name, time.Since(start), err, "")
	if err != nil {
		return fmt.Errorf("failed to call backend rpc %s: %w", name, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("backend rpc %s returned status %d: %s", name, resp.StatusCode(), resp.String())
	}

	if out != nil {
		if err := common.ParseJSONBytes(resp.Body(), out); err != nil {
			return fmt.Errorf("failed to parse backend rpc %s response: %w", name, err)
		}
	}
	return nil
}

// get 呼叫後端資源讀取並將回應解析到 out
func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)

	common.LogBackendCall("GET "+path, time.Since(start), err, "")
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("backend %s returned status %d: %s", path, resp.StatusCode(), resp.String())
	}

	if err := common.ParseJSONBytes(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

// recipeRow 食譜資料列（帶內嵌的標籤關聯）
type recipeRow struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	ImageURL         string `json:"image_url"`
	PrepTimeMinutes  int    `json:"prep_time_minutes"`
	CookTimeMinutes  int    `json:"cook_time_minutes"`
	TotalTimeMinutes int    `json:"total_time_minutes"`
	DefaultServings  int    `json:"default_servings"`
	RecipeTags       []struct {
		TagID string `json:"tag_id"`
	} `json:"recipe_tags"`
}

// ListRecipes 讀取完整食譜目錄（含標籤識別碼）
func (c *Client) ListRecipes(ctx context.Context) ([]common.Recipe, error) {
	var rows []recipeRow
	query := map[string]string{
		"select": "id,name,description,image_url,prep_time_minutes,cook_time_minutes,total_time_minutes,default_servings,recipe_tags(tag_id)",
		"order":  "name.asc",
	}
	if err := c.get(ctx, "/recipes", query, &rows); err != nil {
		return nil, err
	}

	recipes := make([]common.Recipe, 0, len(rows))
	for _, row := range rows {
		tagIDs := make([]string, 0, len(row.RecipeTags))
		for _, rt := range row.RecipeTags {
			tagIDs = append(tagIDs, rt.TagID)
		}
		recipes = append(recipes, common.Recipe{
			ID:               row.ID,
			Name:             row.Name,
			Description:      row.Description,
			ImageURL:         row.ImageURL,
			PrepTimeMinutes:  row.PrepTimeMinutes,
			CookTimeMinutes:  row.CookTimeMinutes,
			TotalTimeMinutes: row.TotalTimeMinutes,
			DefaultServings:  row.DefaultServings,
			TagIDs:           tagIDs,
		})
	}
	return recipes, nil
}

// ListTags 讀取標籤分類表
func (c *Client) ListTags(ctx context.Context) ([]common.Tag, error) {
	var tags []common.Tag
	query := map[string]string{
		"select": "id,name,type",
		"order":  "name.asc",
	}
	if err := c.get(ctx, "/tags", query, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// GetUserPreferences 讀取使用者偏好；查無資料時回傳 (nil, nil)
func (c *Client) GetUserPreferences(ctx context.Context, userID string) (*common.UserPreferences, error) {
	var rows []common.UserPreferences
	query := map[string]string{
		"select":  "*",
		"user_id": "eq." + userID,
		"limit":   "1",
	}
	if err := c.get(ctx, "/user_preferences", query, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpsertUserPreferences 寫入或更新使用者偏好
func (c *Client) UpsertUserPreferences(ctx context.Context, prefs *common.UserPreferences) error {
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates").
		SetBody(prefs).
		Post("/user_preferences")

	common.LogBackendCall("upsert_user_preferences", time.Since(start), err, "")
	if err != nil {
		return fmt.Errorf("failed to upsert user preferences: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("backend upsert returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// replacePlanPayload replace_week_meal_plan 的請求結構
type replacePlanPayload struct {
	WeekID string                `json:"week_id"`
	Meals  []common.PlanRowInput `json:"meals"`
	UserID string                `json:"user_id"`
}

// ReplaceWeekMealPlan 以整份菜單取代指定週的已存菜單（原子性全量替換）
func (c *Client) ReplaceWeekMealPlan(ctx context.Context, weekID string, meals []common.PlanRowInput, userID string) error {
	payload := replacePlanPayload{
		WeekID: weekID,
		Meals:  meals,
		UserID: userID,
	}
	return c.rpc(ctx, "replace_week_meal_plan", payload, nil)
}

// GetWeekMealPlanWithRecipes 讀取指定週的已存菜單（含食譜快照）
func (c *Client) GetWeekMealPlanWithRecipes(ctx context.Context, weekID, userID string) ([]common.PlanRow, error) {
	payload := map[string]string{
		"week_id": weekID,
		"user_id": userID,
	}
	var rows []common.PlanRow
	if err := c.rpc(ctx, "get_week_meal_plan_with_recipes", payload, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateWeekMealPlanStatus 更新指定週菜單的狀態（不動項目內容）
func (c *Client) UpdateWeekMealPlanStatus(ctx context.Context, weekID string, status common.PlanStatus, userID string) error {
	payload := map[string]string{
		"week_id": weekID,
		"status":  string(status),
		"user_id": userID,
	}
	return c.rpc(ctx, "update_week_meal_plan_status", payload, nil)
}
