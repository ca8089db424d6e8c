package app

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// Controller владеет состоянием приложения и обрабатывает действия пользователя:
// старт/стоп камеры и загрузку файла.
type Controller struct {
	state     *AppState
	loader    port.ModelLoader
	capture   *CaptureService
	predictor *Predictor
	loop      *InferenceLoop
	log       logrus.FieldLogger

	wg sync.WaitGroup
}

// NewController собирает контроллер из готовых сервисов
func NewController(state *AppState, loader port.ModelLoader, capture *CaptureService, predictor *Predictor, loop *InferenceLoop, log logrus.FieldLogger) *Controller {
	return &Controller{
		state:     state,
		loader:    loader,
		capture:   capture,
		predictor: predictor,
		loop:      loop,
		log:       log,
	}
}

// Init загружает модель, показывая индикатор загрузки.
// Ошибка загрузки превращается в уведомление, процесс продолжает работать.
func (c *Controller) Init(ctx context.Context) error {
	c.state.Update(func(s *entity.UIState) { s.ShowLoading() })
	err := c.loader.Load(ctx)
	c.state.Update(func(s *entity.UIState) { s.HideLoading() })

	if err != nil {
		c.log.WithError(err).Error("model load error")
		c.state.Alert(entity.UserMessage(err))
		return err
	}

	c.log.Info("model loaded")
	return nil
}

// StartWebcam запускает камеру и цикл инференса.
// Повторный вызов при работающей камере ничего не делает.
func (c *Controller) StartWebcam(ctx context.Context) error {
	c.state.Update(func(s *entity.UIState) { s.HideUploadPanel() })

	session, started, err := c.capture.Start(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.log.WithError(err).Error("webcam start failed")
		c.state.Update(func(s *entity.UIState) { s.SetCaptureRunning(false) })
		c.state.Alert(entity.UserMessage(err))
		return err
	}
	if !started {
		return nil
	}

	c.state.Update(func(s *entity.UIState) {
		s.ShowWebcamPanel()
		s.SetCaptureRunning(true)
	})

	// Цикл живёт дольше запроса, который его запустил.
	loopCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loop.Run(loopCtx, session)
	}()

	return nil
}

// StopWebcam останавливает камеру. Безопасен в любом состоянии.
func (c *Controller) StopWebcam() {
	c.capture.Stop()
	c.state.Update(func(s *entity.UIState) {
		s.ClearWebcamPanel()
		s.SetCaptureRunning(false)
	})
}

// State возвращает снимок состояния интерфейса
func (c *Controller) State() entity.UIState {
	return c.state.Snapshot()
}

// CaptureState возвращает состояние камеры
func (c *Controller) CaptureState() entity.CaptureState {
	return c.capture.State()
}

// Frame возвращает последний кадр камеры
func (c *Controller) Frame() image.Image {
	return c.capture.Frame()
}

// UploadedImage возвращает байты последнего загруженного изображения
func (c *Controller) UploadedImage() []byte {
	return c.state.Upload()
}

// Close останавливает камеру и ждёт завершения циклов инференса.
func (c *Controller) Close() {
	c.StopWebcam()
	c.wg.Wait()
}
