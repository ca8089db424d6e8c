//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"errors"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// GoCVCamera камера-заглушка (без OpenCV).
type GoCVCamera struct {
	cfg Config
}

// NewGoCVCamera создаёт камеру-заглушку.
func NewGoCVCamera(cfg Config) *GoCVCamera {
	return &GoCVCamera{cfg: cfg}
}

// Open проверяет устройство и возвращает ошибку, если сборка без тега gocv.
func (c *GoCVCamera) Open(ctx context.Context, mode entity.DeviceMode) (port.FrameSource, error) {
	_ = ctx
	spec, err := c.cfg.deviceFor(mode)
	if err != nil {
		return nil, err
	}
	if err := probe(parseDevice(spec)); err != nil {
		return nil, err
	}
	return nil, entity.NewCaptureError(entity.CauseUnknown, errors.New("gocv build tag is not enabled"))
}

var _ port.Camera = (*GoCVCamera)(nil)
