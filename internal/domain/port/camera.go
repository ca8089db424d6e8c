package port

import (
	"context"
	"image"
	"time"

	"webcam-classifier/internal/domain/entity"
)

// Camera открывает устройство захвата в выбранном режиме
type Camera interface {
	// Open захватывает устройство. Ошибку классифицирует вызывающий.
	Open(ctx context.Context, mode entity.DeviceMode) (FrameSource, error)
}

// FrameSource открытое устройство, отдающее кадры
type FrameSource interface {
	// Read читает текущий кадр
	Read() (image.Image, error)

	// Close освобождает устройство
	Close() error
}

// Ticker источник тиков перерисовки для цикла инференса
type Ticker interface {
	C() <-chan time.Time
	Stop()
}
