package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync"

	"github.com/sirupsen/logrus"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// errNegotiationAborted камеру остановили, пока шло согласование устройства.
var errNegotiationAborted = fmt.Errorf("capture stopped during negotiation: %w", context.Canceled)

// CaptureService управляет жизненным циклом камеры:
// idle -> negotiating -> running -> idle.
type CaptureService struct {
	camera port.Camera
	log    logrus.FieldLogger

	mu      sync.Mutex
	state   entity.CaptureState
	session *entity.CaptureSession
	source  port.FrameSource
	frame   image.Image
	gen     uint64

	// readMu не даёт закрыть устройство посреди чтения кадра
	readMu sync.Mutex
}

// NewCaptureService создаёт сервис камеры в состоянии idle.
func NewCaptureService(camera port.Camera, log logrus.FieldLogger) *CaptureService {
	return &CaptureService{
		camera: camera,
		log:    log,
		state:  entity.CaptureIdle,
	}
}

// Start захватывает камеру: сначала предпочтительный режим, затем режим по умолчанию.
// Если камера уже запущена или идёт согласование, новая сессия не создаётся
// и started == false.
func (s *CaptureService) Start(ctx context.Context) (session *entity.CaptureSession, started bool, err error) {
	s.mu.Lock()
	if s.state != entity.CaptureIdle {
		session = s.session
		s.mu.Unlock()
		return session, false, nil
	}
	s.state = entity.CaptureNegotiating
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	src, mode, err := s.negotiate(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		// Stop пришёл во время согласования
		if src != nil {
			s.closeSource(src)
		}
		return nil, false, errNegotiationAborted
	}
	if err != nil {
		s.state = entity.CaptureIdle
		return nil, false, err
	}
	s.session = entity.NewCaptureSession(mode)
	s.source = src
	s.state = entity.CaptureRunning

	s.log.WithFields(logrus.Fields{
		"session": s.session.ID,
		"mode":    mode,
	}).Info("webcam started")

	return s.session, true, nil
}

// negotiate делает ровно две попытки открыть устройство.
func (s *CaptureService) negotiate(ctx context.Context) (port.FrameSource, entity.DeviceMode, error) {
	src, err := s.camera.Open(ctx, entity.ModePreferred)
	if err == nil {
		return src, entity.ModePreferred, nil
	}
	s.log.WithError(err).Warn("preferred camera unavailable, trying default camera")

	src, err = s.camera.Open(ctx, entity.ModeDefault)
	if err != nil {
		return nil, "", ClassifyCaptureError(err)
	}
	return src, entity.ModeDefault, nil
}

// Stop освобождает устройство. Безопасен в любом состоянии, ошибок не возвращает.
func (s *CaptureService) Stop() {
	s.mu.Lock()
	src, session := s.source, s.session
	wasRunning := s.state == entity.CaptureRunning
	s.source = nil
	s.session = nil
	s.frame = nil
	s.state = entity.CaptureIdle
	s.gen++
	s.mu.Unlock()

	session.MarkStopped()

	if src != nil {
		s.readMu.Lock()
		s.closeSource(src)
		s.readMu.Unlock()
	}
	if wasRunning {
		s.log.WithField("session", session.ID).Info("webcam stopped")
	}
}

func (s *CaptureService) closeSource(src port.FrameSource) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Warn("error stopping webcam")
		}
	}()
	if err := src.Close(); err != nil {
		s.log.WithError(err).Warn("error stopping webcam")
	}
}

// Update читает новый кадр в буфер и возвращает его.
// В состоянии idle возвращает nil без ошибки.
func (s *CaptureService) Update() (image.Image, error) {
	s.mu.Lock()
	src := s.source
	s.mu.Unlock()
	if src == nil {
		return nil, nil
	}

	s.readMu.Lock()
	img, err := src.Read()
	s.readMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source != src {
		return nil, nil
	}
	s.frame = img
	return img, nil
}

// Frame возвращает последний прочитанный кадр
func (s *CaptureService) Frame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// State возвращает текущее состояние камеры
func (s *CaptureService) State() entity.CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Session возвращает активную сессию или nil
func (s *CaptureService) Session() *entity.CaptureSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ClassifyCaptureError сводит ошибку устройства к одной из причин.
func ClassifyCaptureError(err error) *entity.CaptureUnavailableError {
	var ce *entity.CaptureUnavailableError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, fs.ErrPermission):
		return entity.NewCaptureError(entity.CausePermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist):
		return entity.NewCaptureError(entity.CauseDeviceNotFound, err)
	default:
		return entity.NewCaptureError(entity.CauseUnknown, err)
	}
}
