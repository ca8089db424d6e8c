package port

import (
	"io"

	"webcam-classifier/internal/domain/entity"
)

// Presenter отображает состояние интерфейса пользователю
type Presenter interface {
	// Render получает снимок состояния после каждого изменения
	Render(state entity.UIState)

	// Alert показывает блокирующее уведомление
	Alert(message string)
}

// UploadFile файл, выбранный пользователем
type UploadFile interface {
	Name() string
	Open() (io.ReadCloser, error)
}
