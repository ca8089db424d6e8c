package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	app "webcam-classifier/internal/application"
	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я классифицирую изображения с камеры и присланные фото.

📸 Отправьте мне фото, и я скажу, что на нём.

📋 Команды:
/camera_on — включить камеру
/camera_off — выключить камеру
/status — текущее предсказание
/watch — присылать смену предсказаний
/unwatch — перестать присылать
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото, бот вернёт самый вероятный класс
2️⃣ Или включите камеру командой /camera_on
3️⃣ Командой /watch подпишитесь на смену предсказаний

📋 Команды:
/camera_on, /camera_off, /status, /watch, /unwatch`

	msgSendPhoto      = "📸 Пожалуйста, отправьте фото для классификации."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing     = "⏳ Обрабатываю изображение..."
	msgDownloadError  = "⚠️ Не удалось скачать фото. Попробуйте ещё раз."
	msgCameraOn       = "🎥 Камера включена."
	msgCameraOff      = "⏹ Камера выключена."
	msgWatching       = "🔔 Буду присылать смену предсказаний."
	msgUnwatched      = "🔕 Подписка отключена."
	msgNoPrediction   = "пока нет"
)

// DefaultNotifyInterval минимальный интервал между рассылками предсказаний
const DefaultNotifyInterval = 5 * time.Second

// Controller действия пользователя, доступные боту
type Controller interface {
	State() entity.UIState
	CaptureState() entity.CaptureState
	StartWebcam(ctx context.Context) error
	StopWebcam()
	HandleUpload(ctx context.Context, file port.UploadFile) (string, error)
}

// botAPI часть tgbotapi.BotAPI, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

// Bot представляет Telegram-бота. Он же презентер: рассылает уведомления
// и смену предсказаний подписанным чатам.
type Bot struct {
	api    botAPI
	ctrl   Controller
	subs   *app.SubscriberService
	client *http.Client
	log    logrus.FieldLogger

	notify         chan string
	notifyInterval time.Duration
	now            func() time.Time

	mu       sync.Mutex
	lastText string
	lastSent time.Time
}

// NewBot создаёт нового бота
func NewBot(token string, client *http.Client, subs *app.SubscriberService, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	log.WithField("account", api.Self.UserName).Info("telegram bot authorized")

	return newBot(api, client, subs, log), nil
}

func newBot(api botAPI, client *http.Client, subs *app.SubscriberService, log logrus.FieldLogger) *Bot {
	return &Bot{
		api:            api,
		subs:           subs,
		client:         client,
		log:            log,
		notify:         make(chan string, 32),
		notifyInterval: DefaultNotifyInterval,
		now:            time.Now,
	}
}

// Attach подключает контроллер
func (b *Bot) Attach(ctrl Controller) {
	b.ctrl = ctrl
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.sendLoop(ctx)
	}()
	defer wg.Wait()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		if _, err := b.subs.Unwatch(ctx, msg.From.ID, chatID); err != nil {
			b.log.WithError(err).Error("reset subscriber")
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "camera_on":
		if err := b.ctrl.StartWebcam(ctx); err != nil {
			b.sendMessage(chatID, "⚠️ "+entity.UserMessage(err))
			return
		}
		b.sendMessage(chatID, msgCameraOn)

	case "camera_off":
		b.ctrl.StopWebcam()
		b.sendMessage(chatID, msgCameraOff)

	case "status":
		b.sendMessage(chatID, b.status())

	case "watch":
		if _, err := b.subs.Watch(ctx, msg.From.ID, chatID); err != nil {
			b.log.WithError(err).Error("watch")
			return
		}
		b.sendMessage(chatID, msgWatching)

	case "unwatch":
		if _, err := b.subs.Unwatch(ctx, msg.From.ID, chatID); err != nil {
			b.log.WithError(err).Error("unwatch")
			return
		}
		b.sendMessage(chatID, msgUnwatched)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) status() string {
	text := b.ctrl.State().PredictionText
	if text == "" {
		text = msgNoPrediction
	}
	return fmt.Sprintf("📷 Камера: %s\n🔎 Предсказание: %s", b.ctrl.CaptureState(), text)
}

// handlePhoto классифицирует присланное фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	data, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.log.WithError(err).Error("download photo")
		b.sendMessage(msg.Chat.ID, msgDownloadError)
		return
	}

	text, err := b.ctrl.HandleUpload(ctx, app.BytesFile{FileName: photo.FileUniqueID + ".jpg", Data: data})
	if err != nil {
		b.log.WithError(err).Warn("photo classification failed")
		b.sendMessage(msg.Chat.ID, "⚠️ "+entity.UserMessage(err))
		return
	}

	b.sendMessage(msg.Chat.ID, "🔎 "+text)
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, app.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithError(err).WithField("chat", chatID).Error("send message")
	}
}
