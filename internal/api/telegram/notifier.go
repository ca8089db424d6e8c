package telegram

import (
	"context"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// Render ставит в очередь новое предсказание для подписанных чатов.
// Вызывается под блокировкой состояния, поэтому не блокирует.
func (b *Bot) Render(state entity.UIState) {
	text := state.PredictionText
	if text == "" {
		return
	}

	b.mu.Lock()
	now := b.now()
	if text == b.lastText || now.Sub(b.lastSent) < b.notifyInterval {
		b.mu.Unlock()
		return
	}
	b.lastText = text
	b.lastSent = now
	b.mu.Unlock()

	b.enqueue("🔎 " + text)
}

// Alert ставит уведомление в очередь рассылки
func (b *Bot) Alert(message string) {
	b.enqueue("⚠️ " + message)
}

func (b *Bot) enqueue(text string) {
	select {
	case b.notify <- text:
	default:
		b.log.Warn("telegram notify queue full, message dropped")
	}
}

// sendLoop рассылает уведомления подписанным чатам до отмены ctx
func (b *Bot) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-b.notify:
			chats, err := b.subs.WatchingChats(ctx)
			if err != nil {
				b.log.WithError(err).Error("list watching chats")
				continue
			}
			for _, chatID := range chats {
				b.sendMessage(chatID, text)
			}
		}
	}
}

var _ port.Presenter = (*Bot)(nil)
