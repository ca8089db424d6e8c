package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrModelLoad модель не удалось скачать или разобрать
	ErrModelLoad = errors.New("model load failed")
	// ErrModelNotLoaded классификатор ещё не загружен
	ErrModelNotLoaded = errors.New("model is not loaded")
	// ErrInference ошибка классификации изображения
	ErrInference = errors.New("inference failed")
)

// CaptureCause причина недоступности камеры
type CaptureCause string

const (
	CausePermissionDenied CaptureCause = "permission_denied"
	CauseDeviceNotFound   CaptureCause = "device_not_found"
	CauseUnknown          CaptureCause = "unknown"
)

// CaptureUnavailableError камеру не удалось открыть ни в одном режиме.
type CaptureUnavailableError struct {
	Cause   CaptureCause
	Message string
	Err     error
}

func (e *CaptureUnavailableError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("capture unavailable (%s): %s", e.Cause, e.Message)
	}
	return fmt.Sprintf("capture unavailable (%s)", e.Cause)
}

func (e *CaptureUnavailableError) Unwrap() error {
	return e.Err
}

// NewCaptureError оборачивает ошибку устройства с указанной причиной.
func NewCaptureError(cause CaptureCause, err error) *CaptureUnavailableError {
	e := &CaptureUnavailableError{Cause: cause, Err: err}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// CaptureCauseOf возвращает причину, если err содержит CaptureUnavailableError.
func CaptureCauseOf(err error) (CaptureCause, bool) {
	var ce *CaptureUnavailableError
	if errors.As(err, &ce) {
		return ce.Cause, true
	}
	return "", false
}

// UserMessage переводит ошибку в сообщение для пользователя.
func UserMessage(err error) string {
	var ce *CaptureUnavailableError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		switch ce.Cause {
		case CausePermissionDenied:
			return "Camera access was denied. Check camera permissions for this user and allow camera access."
		case CauseDeviceNotFound:
			return "No camera found on this device."
		default:
			msg := ce.Message
			if msg == "" {
				msg = string(ce.Cause)
			}
			return "Could not start camera: " + msg
		}
	case errors.Is(err, ErrModelLoad):
		return "Failed to load the model. Check logs for details."
	case errors.Is(err, ErrModelNotLoaded):
		return "The model is not loaded yet."
	case errors.Is(err, ErrInference):
		return PredictionFailedText
	default:
		return err.Error()
	}
}
