package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// MaxUploadSize ограничение на размер загружаемого изображения (10MB)
const MaxUploadSize = 10 << 20

// HandleUpload классифицирует загруженный файл.
// Камера останавливается всегда, даже если файла нет.
func (c *Controller) HandleUpload(ctx context.Context, file port.UploadFile) (string, error) {
	c.StopWebcam()

	if file == nil {
		return "", nil
	}

	img, data, err := decodeUpload(file)
	if err != nil {
		c.log.WithError(err).WithField("file", file.Name()).Error("upload decode error")
		c.state.Update(func(s *entity.UIState) { s.SetPrediction(entity.PredictionFailedText) })
		return entity.PredictionFailedText, fmt.Errorf("decode upload %q: %w", file.Name(), errors.Join(entity.ErrInference, err))
	}

	c.state.SetUpload(data)
	c.state.Update(func(s *entity.UIState) { s.ShowUploadPanel() })

	return c.predictor.Predict(ctx, img)
}

// decodeUpload читает и декодирует файл. Ридер закрывается после
// декодирования, при успехе и при ошибке.
func decodeUpload(file port.UploadFile) (image.Image, []byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxUploadSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, nil, fmt.Errorf("file is larger than %d bytes", MaxUploadSize)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}

	return img, data, nil
}

// BytesFile загрузка, уже прочитанная в память (фото из бота, файл из CLI).
type BytesFile struct {
	FileName string
	Data     []byte
}

func (f BytesFile) Name() string { return f.FileName }

func (f BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
