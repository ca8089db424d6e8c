package camera

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"webcam-classifier/internal/domain/entity"
)

// Config параметры захвата камеры
type Config struct {
	PreferredDevice string // индекс или путь, например "1" или "/dev/video2"
	DefaultDevice   string
	Width           int
	Height          int
	Flip            bool // зеркалить кадр по горизонтали
}

// device разобранное описание устройства
type device struct {
	id   any    // int для индекса, string для пути/URL
	node string // файл устройства для проверки доступа, может быть пустым
}

// deviceFor выбирает устройство для режима согласования.
func (c Config) deviceFor(mode entity.DeviceMode) (string, error) {
	spec := c.DefaultDevice
	if mode == entity.ModePreferred {
		spec = c.PreferredDevice
	}
	if spec == "" {
		return "", entity.NewCaptureError(entity.CauseDeviceNotFound, fmt.Errorf("no device configured for %s mode", mode))
	}
	return spec, nil
}

func parseDevice(spec string) device {
	if idx, err := strconv.Atoi(spec); err == nil {
		d := device{id: idx}
		if runtime.GOOS == "linux" {
			d.node = fmt.Sprintf("/dev/video%d", idx)
		}
		return d
	}
	if len(spec) > 0 && spec[0] == '/' {
		return device{id: spec, node: spec}
	}
	return device{id: spec}
}

// probe проверяет файл устройства до открытия, чтобы отличить
// отсутствие камеры от запрета доступа.
func probe(d device) error {
	if d.node == "" {
		return nil
	}

	if _, err := os.Stat(d.node); err != nil {
		return classify(err)
	}

	f, err := os.OpenFile(d.node, os.O_RDWR, 0)
	if err != nil {
		return classify(err)
	}
	return f.Close()
}

func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return entity.NewCaptureError(entity.CausePermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist):
		return entity.NewCaptureError(entity.CauseDeviceNotFound, err)
	default:
		return entity.NewCaptureError(entity.CauseUnknown, err)
	}
}
