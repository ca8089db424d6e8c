package port

import (
	"context"

	"webcam-classifier/internal/domain/entity"
)

// SubscriberRepository интерфейс хранилища чатов бота
type SubscriberRepository interface {
	// Get возвращает подписчика по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error)

	// Save сохраняет состояние подписчика
	Save(ctx context.Context, s *entity.Subscriber) error

	// UpdateState обновляет состояние подписчика
	UpdateState(ctx context.Context, userID int64, state entity.SubscriberState) error

	// Watching возвращает чаты, подписанные на обновления
	Watching(ctx context.Context) ([]int64, error)
}
