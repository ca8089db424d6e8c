package app

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// Predictor классифицирует одно изображение и показывает результат.
type Predictor struct {
	classifier port.Classifier
	state      *AppState
	log        logrus.FieldLogger
}

// NewPredictor создаёт предиктор поверх классификатора
func NewPredictor(classifier port.Classifier, state *AppState, log logrus.FieldLogger) *Predictor {
	return &Predictor{
		classifier: classifier,
		state:      state,
		log:        log,
	}
}

// Predict классифицирует изображение и обновляет текст предсказания.
// Пока модель не загружена, запрос отклоняется без изменений интерфейса
// и возвращается entity.ErrModelNotLoaded.
// Индикатор загрузки виден только на время вызова классификатора.
func (p *Predictor) Predict(ctx context.Context, img image.Image) (string, error) {
	if p.classifier == nil || !p.classifier.Ready() {
		return "", entity.ErrModelNotLoaded
	}

	p.state.Update(func(s *entity.UIState) { s.ShowLoading() })

	text, err := p.classify(ctx, img)
	if err != nil {
		p.log.WithError(err).Error("prediction error")
		text = entity.PredictionFailedText
	}

	p.state.Update(func(s *entity.UIState) {
		s.SetPrediction(text)
		s.HideLoading()
	})

	return text, err
}

func (p *Predictor) classify(ctx context.Context, img image.Image) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", entity.ErrInference, r)
		}
	}()

	prediction, err := p.classifier.Classify(ctx, img)
	if err != nil {
		return "", err
	}

	best, ok := prediction.Best()
	if !ok {
		return "", fmt.Errorf("%w: empty prediction", entity.ErrInference)
	}

	p.log.WithFields(logrus.Fields{
		"label": best.Label,
		"prob":  best.Probability,
	}).Debug("prediction")

	return entity.FormatPrediction(best), nil
}
