package entity

import "fmt"

// PredictionFailedText выводится вместо результата, если классификация не удалась.
const PredictionFailedText = "Prediction failed (see logs)."

// ClassPrediction вероятность одного класса
type ClassPrediction struct {
	Label       string  // имя класса из метаданных модели
	Probability float64 // вероятность в диапазоне [0, 1]
}

// Prediction ранжированный ответ классификатора для одного изображения.
// Порядок совпадает с порядком меток модели.
type Prediction []ClassPrediction

// Best возвращает класс с максимальной вероятностью.
// При равенстве побеждает первый в списке.
func (p Prediction) Best() (ClassPrediction, bool) {
	if len(p) == 0 {
		return ClassPrediction{}, false
	}

	best := p[0]
	for _, c := range p[1:] {
		if c.Probability > best.Probability {
			best = c
		}
	}
	return best, true
}

// FormatPrediction форматирует класс для отображения: "cat — 82.0%".
func FormatPrediction(c ClassPrediction) string {
	return fmt.Sprintf("%s — %.1f%%", c.Label, c.Probability*100)
}
