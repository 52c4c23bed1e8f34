package week

import (
	"fmt"
	"time"

	"meal-recommender/internal/pkg/common"
)

// Service 週曆服務，計算週識別碼、邊界、位移與顯示標題
type Service struct {
	pastSpan   int
	futureSpan int
	now        func() time.Time
}

// NewService 創建週曆服務
func NewService(pastSpan, futureSpan int) *Service {
	return &Service{
		pastSpan:   pastSpan,
		futureSpan: futureSpan,
		now:        time.Now,
	}
}

// NewServiceWithClock 創建使用自訂時鐘的週曆服務（測試用）
func NewServiceWithClock(pastSpan, futureSpan int, now func() time.Time) *Service {
	return &Service{
		pastSpan:   pastSpan,
		futureSpan: futureSpan,
		now:        now,
	}
}

// startOfWeek 取得包含 t 的那一週的週一 00:00
func startOfWeek(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	weekday := int(t.Weekday())
	// time.Sunday == 0，調整為週一起始
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

// WeekID 由時間導出 ISO 週識別碼，例如 "2026-W35"
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekByOffset 取得相對本週位移 offset 的週
func (s *Service) WeekByOffset(offset int) common.Week {
	start := startOfWeek(s.now()).AddDate(0, 0, offset*7)
	end := start.AddDate(0, 0, 6)

	status := common.WeekStatusCurrent
	switch {
	case offset < 0:
		status = common.WeekStatusPast
	case offset > 0:
		status = common.WeekStatusFuture
	}

	return common.Week{
		ID:        WeekID(start),
		StartDate: start,
		EndDate:   end,
		IsCurrent: offset == 0,
		Offset:    offset,
		Title:     weekTitle(offset, start, end),
		Status:    status,
	}
}

// CurrentWeek 取得本週
func (s *Service) CurrentWeek() common.Week {
	return s.WeekByOffset(0)
}

// Weeks 取得設定範圍內的週列表（由最早到最晚）
func (s *Service) Weeks() []common.Week {
	weeks := make([]common.Week, 0, s.pastSpan+s.futureSpan+1)
	for offset := -s.pastSpan; offset <= s.futureSpan; offset++ {
		weeks = append(weeks, s.WeekByOffset(offset))
	}
	return weeks
}

// PastWeekIDs 取得最近 n 週（不含本週）的週識別碼，用於回鍋懲罰
func (s *Service) PastWeekIDs(n int) []string {
	ids := make([]string, 0, n)
	for offset := -1; offset >= -n; offset-- {
		ids = append(ids, s.WeekByOffset(offset).ID)
	}
	return ids
}

// ValidWeekID 檢查識別碼是否落在可規劃的範圍內
func (s *Service) ValidWeekID(weekID string) bool {
	for offset := -s.pastSpan; offset <= s.futureSpan; offset++ {
		if s.WeekByOffset(offset).ID == weekID {
			return true
		}
	}
	return false
}

// weekTitle 導出顯示標題
func weekTitle(offset int, start, end time.Time) string {
	switch offset {
	case 0:
		return "This Week"
	case 1:
		return "Next Week"
	case -1:
		return "Last Week"
	default:
		return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2"))
	}
}
