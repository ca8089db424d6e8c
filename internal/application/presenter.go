package app

import (
	"github.com/sirupsen/logrus"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// MultiPresenter рассылает состояние всем подключённым презентерам
type MultiPresenter []port.Presenter

func (m MultiPresenter) Render(state entity.UIState) {
	for _, p := range m {
		p.Render(state)
	}
}

func (m MultiPresenter) Alert(message string) {
	for _, p := range m {
		p.Alert(message)
	}
}

// LogPresenter пишет уведомления и смену предсказания в лог.
type LogPresenter struct {
	Log  logrus.FieldLogger
	last string
}

func (p *LogPresenter) Render(state entity.UIState) {
	if state.PredictionText == "" || state.PredictionText == p.last {
		return
	}
	p.last = state.PredictionText
	p.Log.WithField("prediction", state.PredictionText).Debug("prediction changed")
}

func (p *LogPresenter) Alert(message string) {
	p.Log.WithField("alert", message).Warn("user notification")
}

var (
	_ port.Presenter = MultiPresenter(nil)
	_ port.Presenter = (*LogPresenter)(nil)
)
