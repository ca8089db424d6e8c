package entity

// SubscriberState состояние чата в боте
type SubscriberState string

const (
	StateMainMenu SubscriberState = "main_menu" // В главном меню
	StateWatching SubscriberState = "watching"  // Получает смену предсказаний
)

// Subscriber чат Telegram, который общается с ботом
type Subscriber struct {
	ID     int64           // Telegram User ID
	ChatID int64           // Telegram Chat ID
	State  SubscriberState // Текущее состояние
}

// NewSubscriber создаёт подписчика в главном меню
func NewSubscriber(userID, chatID int64) *Subscriber {
	return &Subscriber{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние подписчика
func (s *Subscriber) SetState(state SubscriberState) {
	s.State = state
}

// Watching сообщает, получает ли чат обновления
func (s *Subscriber) Watching() bool {
	return s.State == StateWatching
}
