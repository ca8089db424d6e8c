//go:build gocv
// +build gocv

package camera

import (
	"context"
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// GoCVCamera камера через OpenCV VideoCapture
type GoCVCamera struct {
	cfg Config
}

// NewGoCVCamera создаёт камеру с настройками захвата.
func NewGoCVCamera(cfg Config) *GoCVCamera {
	return &GoCVCamera{cfg: cfg}
}

// Open открывает устройство для режима согласования.
func (c *GoCVCamera) Open(ctx context.Context, mode entity.DeviceMode) (port.FrameSource, error) {
	spec, err := c.cfg.deviceFor(mode)
	if err != nil {
		return nil, err
	}
	dev := parseDevice(spec)
	if err := probe(dev); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(dev.id)
	if err != nil {
		return nil, entity.NewCaptureError(entity.CauseUnknown, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, entity.NewCaptureError(entity.CauseDeviceNotFound, fmt.Errorf("device %s is not opened", spec))
	}

	if c.cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	}
	if c.cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	}

	return &gocvSource{
		vc:   vc,
		mat:  gocv.NewMat(),
		flip: c.cfg.Flip,
	}, nil
}

type gocvSource struct {
	vc   *gocv.VideoCapture
	mat  gocv.Mat
	flip bool
}

// Read читает кадр и переводит его в image.Image.
func (s *gocvSource) Read() (image.Image, error) {
	if ok := s.vc.Read(&s.mat); !ok {
		return nil, errors.New("cannot read frame from device")
	}
	if s.mat.Empty() {
		return nil, errors.New("empty frame")
	}

	if s.flip {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(s.mat, &flipped, 1)
		return flipped.ToImage()
	}

	return s.mat.ToImage()
}

func (s *gocvSource) Close() error {
	err := s.vc.Close()
	if cerr := s.mat.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ port.Camera = (*GoCVCamera)(nil)
