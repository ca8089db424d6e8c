package app

import (
	"context"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// SubscriberService управляет подпиской чатов на смену предсказаний
type SubscriberService struct {
	repo port.SubscriberRepository
}

func NewSubscriberService(repo port.SubscriberRepository) *SubscriberService {
	return &SubscriberService{repo: repo}
}

func (s *SubscriberService) Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *SubscriberService) SetState(ctx context.Context, userID, chatID int64, state entity.SubscriberState) (*entity.Subscriber, error) {
	sub, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	sub.SetState(state)
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *SubscriberService) Watch(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.SetState(ctx, userID, chatID, entity.StateWatching)
}

func (s *SubscriberService) Unwatch(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// WatchingChats возвращает чаты, которым нужно рассылать обновления
func (s *SubscriberService) WatchingChats(ctx context.Context) ([]int64, error) {
	return s.repo.Watching(ctx)
}
