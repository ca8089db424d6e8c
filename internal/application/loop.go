package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// DefaultFrameInterval период тиков перерисовки (~30 FPS)
const DefaultFrameInterval = 33 * time.Millisecond

// intervalTicker адаптер time.Ticker к port.Ticker
type intervalTicker struct {
	t *time.Ticker
}

// NewIntervalTicker создаёт тикер с фиксированным периодом
func NewIntervalTicker(d time.Duration) port.Ticker {
	if d <= 0 {
		d = DefaultFrameInterval
	}
	return intervalTicker{t: time.NewTicker(d)}
}

func (t intervalTicker) C() <-chan time.Time { return t.t.C }
func (t intervalTicker) Stop()               { t.t.Stop() }

// InferenceLoop цикл инференса для одной сессии камеры.
// Работает в одной горутине, поэтому вызовы классификатора не пересекаются.
// Тики, пришедшие во время медленной классификации, теряются.
type InferenceLoop struct {
	capture   *CaptureService
	predictor *Predictor
	newTicker func() port.Ticker
	log       logrus.FieldLogger
}

// NewInferenceLoop создаёт цикл. newTicker вызывается на каждый запуск.
func NewInferenceLoop(capture *CaptureService, predictor *Predictor, newTicker func() port.Ticker, log logrus.FieldLogger) *InferenceLoop {
	if newTicker == nil {
		newTicker = func() port.Ticker { return NewIntervalTicker(DefaultFrameInterval) }
	}
	return &InferenceLoop{
		capture:   capture,
		predictor: predictor,
		newTicker: newTicker,
		log:       log,
	}
}

// Run крутит циклы, пока сессия запущена. Продолжение зависит только от
// флага running сессии, ctx отменяется при завершении процесса.
func (l *InferenceLoop) Run(ctx context.Context, session *entity.CaptureSession) {
	ticker := l.newTicker()
	defer ticker.Stop()

	log := l.log.WithField("session", session.ID)
	log.Debug("inference loop started")
	defer log.Debug("inference loop finished")

	for {
		select {
		case <-ctx.Done():
			return
		case <-session.Done():
			return
		case <-ticker.C():
		}

		if !session.Running() {
			return
		}
		l.cycle(ctx, log)
	}
}

// cycle один проход: обновить кадр, классифицировать, показать результат.
// Ошибки не прерывают цикл.
func (l *InferenceLoop) cycle(ctx context.Context, log logrus.FieldLogger) {
	frame, err := l.capture.Update()
	if err != nil {
		log.WithError(err).Error("loop error")
		return
	}
	if frame == nil {
		return
	}

	// Ошибку уже записал Predictor, текст сбоя выставлен.
	_, _ = l.predictor.Predict(ctx, frame)
}
