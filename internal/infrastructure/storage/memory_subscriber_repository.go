package storage

import (
	"context"
	"sort"
	"sync"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// MemorySubscriberRepository in-memory хранилище чатов бота
type MemorySubscriberRepository struct {
	mu          sync.RWMutex
	subscribers map[int64]*entity.Subscriber
}

// NewMemorySubscriberRepository создаёт новое in-memory хранилище
func NewMemorySubscriberRepository() *MemorySubscriberRepository {
	return &MemorySubscriberRepository{
		subscribers: make(map[int64]*entity.Subscriber),
	}
}

// Get возвращает подписчика по ID, создаёт нового если не найден
func (r *MemorySubscriberRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.subscribers[userID]; exists {
		return s, nil
	}

	s := entity.NewSubscriber(userID, chatID)
	r.subscribers[userID] = s
	return s, nil
}

// Save сохраняет состояние подписчика
func (r *MemorySubscriberRepository) Save(ctx context.Context, s *entity.Subscriber) error {
	r.mu.Lock()
	r.subscribers[s.ID] = s
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние подписчика
func (r *MemorySubscriberRepository) UpdateState(ctx context.Context, userID int64, state entity.SubscriberState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.subscribers[userID]; exists {
		s.SetState(state)
	}

	return nil
}

// Watching возвращает чаты в состоянии watching, отсортированные по ID.
func (r *MemorySubscriberRepository) Watching(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chats := make([]int64, 0, len(r.subscribers))
	for _, s := range r.subscribers {
		if s.Watching() {
			chats = append(chats, s.ChatID)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })

	return chats, nil
}

// Проверка реализации интерфейса
var _ port.SubscriberRepository = (*MemorySubscriberRepository)(nil)
