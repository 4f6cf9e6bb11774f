package app

import (
	"sync"

	"infosec-dashboard/internal/assessment"
	"infosec-dashboard/internal/catalog"
	"infosec-dashboard/internal/chat"
)

// Dashboard groups the view-models of one operator.
type Dashboard struct {
	Auth        *AuthService
	Sheets      *SheetService
	Documents   *catalog.Catalog
	Assessments *assessment.History

	newChat func() *chat.Session

	mu   sync.RWMutex
	chat *chat.Session
}

func NewDashboard(
	authService *AuthService,
	sheets *SheetService,
	documents *catalog.Catalog,
	assessments *assessment.History,
	newChat func() *chat.Session,
) *Dashboard {
	return &Dashboard{
		Auth:        authService,
		Sheets:      sheets,
		Documents:   documents,
		Assessments: assessments,
		newChat:     newChat,
		chat:        newChat(),
	}
}

func (d *Dashboard) Chat() *chat.Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.chat
}

// Reset drops per-user state after the session ends: the sheet panel is
// cleared and a new chat starts from the greeting.
func (d *Dashboard) Reset() {
	d.Sheets.Clear()
	d.mu.Lock()
	d.chat = d.newChat()
	d.mu.Unlock()
}
