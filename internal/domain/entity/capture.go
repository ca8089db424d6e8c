package entity

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// CaptureState состояние источника кадров
type CaptureState string

const (
	CaptureIdle        CaptureState = "idle"        // Камера выключена
	CaptureNegotiating CaptureState = "negotiating" // Идёт захват устройства
	CaptureRunning     CaptureState = "running"     // Кадры поступают
)

// DeviceMode режим выбора камеры при согласовании
type DeviceMode string

const (
	ModePreferred DeviceMode = "preferred" // Предпочтительная (задняя) камера
	ModeDefault   DeviceMode = "default"   // Камера по умолчанию
)

// CaptureSession активный захват камеры.
// Одновременно существует не больше одной сессии.
type CaptureSession struct {
	ID        string
	Mode      DeviceMode
	StartedAt time.Time

	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
}

// NewCaptureSession создаёт запущенную сессию для выбранного режима.
func NewCaptureSession(mode DeviceMode) *CaptureSession {
	s := &CaptureSession{
		ID:        uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
	s.running.Store(true)
	return s
}

// Running сообщает, активна ли ещё сессия
func (s *CaptureSession) Running() bool {
	if s == nil {
		return false
	}
	return s.running.Load()
}

// MarkStopped гасит флаг сессии. Повторный вызов безопасен.
func (s *CaptureSession) MarkStopped() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		s.running.Store(false)
		close(s.done)
	})
}

// Done закрывается при остановке сессии
func (s *CaptureSession) Done() <-chan struct{} {
	return s.done
}
