package app

import (
	"sync"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// AppState состояние приложения: флаги интерфейса и последняя загрузка.
// Все изменения идут через Update, после каждого вызывается Presenter.Render.
type AppState struct {
	mu        sync.RWMutex
	ui        entity.UIState
	upload    []byte
	presenter port.Presenter
}

// NewAppState создаёт состояние с начальными флагами
func NewAppState(presenter port.Presenter) *AppState {
	if presenter == nil {
		presenter = MultiPresenter{}
	}
	return &AppState{
		ui:        entity.NewUIState(),
		presenter: presenter,
	}
}

// Update применяет изменение и отдаёт снимок презентеру.
// Рендер идёт под блокировкой, чтобы порядок снимков совпадал с порядком изменений.
func (a *AppState) Update(fn func(s *entity.UIState)) entity.UIState {
	a.mu.Lock()
	defer a.mu.Unlock()

	fn(&a.ui)
	snapshot := a.ui
	a.presenter.Render(snapshot)
	return snapshot
}

// Snapshot возвращает копию текущего состояния
func (a *AppState) Snapshot() entity.UIState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ui
}

// Alert передаёт уведомление презентеру
func (a *AppState) Alert(message string) {
	a.presenter.Alert(message)
}

// SetUpload запоминает байты загруженного изображения для отображения
func (a *AppState) SetUpload(data []byte) {
	a.mu.Lock()
	a.upload = data
	a.mu.Unlock()
}

// Upload возвращает последнее загруженное изображение
func (a *AppState) Upload() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.upload
}
