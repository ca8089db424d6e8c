package port

import (
	"context"
	"image"

	"webcam-classifier/internal/domain/entity"
)

// Classifier интерфейс классификатора изображений
type Classifier interface {
	// Ready сообщает, загружена ли модель
	Ready() bool

	// Classify возвращает вероятности классов для изображения
	Classify(ctx context.Context, img image.Image) (entity.Prediction, error)
}

// ModelLoader загружает модель один раз при старте
type ModelLoader interface {
	Load(ctx context.Context) error
}
