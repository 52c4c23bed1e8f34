package mealplan

import (
	"sync"

	"meal-recommender/internal/core/recommend"
)

// SessionManager 每位使用者一個組裝器工作階段
type SessionManager struct {
	sessions sync.Map // userID -> *Assembler
	catalog  CatalogProvider
	prefs    PreferenceProvider
	selector *recommend.Selector
}

// NewSessionManager 創建工作階段管理器
func NewSessionManager(catalog CatalogProvider, prefs PreferenceProvider, selector *recommend.Selector) *SessionManager {
	return &SessionManager{
		catalog:  catalog,
		prefs:    prefs,
		selector: selector,
	}
}

// Get 取得使用者的組裝器，不存在時以指定週建立
func (m *SessionManager) Get(userID, weekID string) *Assembler {
	if v, ok := m.sessions.Load(userID); ok {
		return v.(*Assembler)
	}
	a := NewAssembler(userID, weekID, m.catalog, m.prefs, m.selector)
	actual, _ := m.sessions.LoadOrStore(userID, a)
	return actual.(*Assembler)
}

// Drop 移除使用者的工作階段
func (m *SessionManager) Drop(userID string) {
	m.sessions.Delete(userID)
}
