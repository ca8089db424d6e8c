package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	app "webcam-classifier/internal/application"
	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
	"webcam-classifier/internal/infrastructure/storage"
)

type sent struct {
	chatID int64
	text   string
}

type fakeAPI struct {
	mu      sync.Mutex
	sent    []sent
	fileURL string
	updates chan tgbotapi.Update
	stopped bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.mu.Lock()
	f.sent = append(f.sent, sent{chatID: msg.ChatID, text: msg.Text})
	f.mu.Unlock()
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) {
	if f.fileURL == "" {
		return "", errors.New("no file")
	}
	return f.fileURL, nil
}

func (f *fakeAPI) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

func (f *fakeAPI) last() sent {
	m := f.messages()
	if len(m) == 0 {
		return sent{}
	}
	return m[len(m)-1]
}

type fakeController struct {
	ui       entity.UIState
	capture  entity.CaptureState
	startErr error
	stops    int
	text     string
	err      error
	upload   []byte
}

func (f *fakeController) State() entity.UIState             { return f.ui }
func (f *fakeController) CaptureState() entity.CaptureState { return f.capture }
func (f *fakeController) StopWebcam()                       { f.stops++ }

func (f *fakeController) StartWebcam(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.capture = entity.CaptureRunning
	return nil
}

func (f *fakeController) HandleUpload(_ context.Context, file port.UploadFile) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	f.upload, _ = io.ReadAll(rc)
	return f.text, f.err
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *fakeController) {
	t.Helper()
	log, _ := test.NewNullLogger()
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
	ctrl := &fakeController{ui: entity.NewUIState(), capture: entity.CaptureIdle}
	subs := app.NewSubscriberService(storage.NewMemorySubscriberRepository())

	b := newBot(api, http.DefaultClient, subs, log)
	b.Attach(ctrl)
	return b, api, ctrl
}

func command(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: chatID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}
}

func TestBot_Commands(t *testing.T) {
	b, api, ctrl := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command(1, "/start"))
	require.Equal(t, msgStart, api.last().text)

	b.handleMessage(ctx, command(1, "/help"))
	require.Equal(t, msgHelp, api.last().text)

	b.handleMessage(ctx, command(1, "/camera_on"))
	require.Equal(t, msgCameraOn, api.last().text)
	require.Equal(t, entity.CaptureRunning, ctrl.capture)

	b.handleMessage(ctx, command(1, "/camera_off"))
	require.Equal(t, msgCameraOff, api.last().text)
	require.Equal(t, 1, ctrl.stops)

	b.handleMessage(ctx, command(1, "/nope"))
	require.Equal(t, msgUnknownCommand, api.last().text)

	b.handleMessage(ctx, &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}, Text: "hi"})
	require.Equal(t, msgSendPhoto, api.last().text)
}

func TestBot_CameraOnFailure(t *testing.T) {
	b, api, ctrl := newTestBot(t)
	ctrl.startErr = entity.NewCaptureError(entity.CauseDeviceNotFound, errors.New("no device"))

	b.handleMessage(context.Background(), command(1, "/camera_on"))
	require.Equal(t, "⚠️ No camera found on this device.", api.last().text)
}

func TestBot_Status(t *testing.T) {
	b, api, ctrl := newTestBot(t)

	b.handleMessage(context.Background(), command(1, "/status"))
	require.Contains(t, api.last().text, msgNoPrediction)
	require.Contains(t, api.last().text, string(entity.CaptureIdle))

	ctrl.ui.SetPrediction("cat — 82.0%")
	b.handleMessage(context.Background(), command(1, "/status"))
	require.Contains(t, api.last().text, "cat — 82.0%")
}

func TestBot_WatchUnwatch(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command(7, "/watch"))
	require.Equal(t, msgWatching, api.last().text)

	chats, err := b.subs.WatchingChats(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{7}, chats)

	b.handleMessage(ctx, command(7, "/unwatch"))
	require.Equal(t, msgUnwatched, api.last().text)

	chats, err = b.subs.WatchingChats(ctx)
	require.NoError(t, err)
	require.Empty(t, chats)
}

func TestBot_Photo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("photo-bytes"))
	}))
	defer srv.Close()

	b, api, ctrl := newTestBot(t)
	api.fileURL = srv.URL + "/file.jpg"
	ctrl.text = "dog — 91.0%"

	msg := &tgbotapi.Message{
		From:  &tgbotapi.User{ID: 1},
		Chat:  &tgbotapi.Chat{ID: 1},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big", FileUniqueID: "u1"}},
	}
	b.handleMessage(context.Background(), msg)

	require.Equal(t, []byte("photo-bytes"), ctrl.upload)
	require.Equal(t, "🔎 dog — 91.0%", api.last().text)
}

func TestBot_PhotoErrors(t *testing.T) {
	b, api, ctrl := newTestBot(t)
	msg := &tgbotapi.Message{
		From:  &tgbotapi.User{ID: 1},
		Chat:  &tgbotapi.Chat{ID: 1},
		Photo: []tgbotapi.PhotoSize{{FileID: "big"}},
	}

	b.handleMessage(context.Background(), msg)
	require.Equal(t, msgDownloadError, api.last().text)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("junk"))
	}))
	defer srv.Close()
	api.fileURL = srv.URL
	ctrl.text = entity.PredictionFailedText
	ctrl.err = errors.Join(entity.ErrInference, errors.New("decode"))

	b.handleMessage(context.Background(), msg)
	require.Equal(t, "⚠️ "+entity.PredictionFailedText, api.last().text)
}

func TestBot_NotifiesWatchingChats(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := b.subs.Watch(ctx, 5, 5)
	require.NoError(t, err)
	_, err = b.subs.Get(ctx, 6, 6)
	require.NoError(t, err)

	current := time.Unix(1000, 0)
	b.now = func() time.Time { return current }

	done := make(chan error)
	go func() { done <- b.Run(ctx) }()

	state := entity.NewUIState()
	state.SetPrediction("cat — 82.0%")
	b.Render(state)
	b.Render(state) // тот же текст
	current = current.Add(time.Second)
	state.SetPrediction("dog — 60.0%")
	b.Render(state) // слишком рано
	b.Alert("No camera found on this device.")

	require.Eventually(t, func() bool { return len(api.messages()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []sent{
		{chatID: 5, text: "🔎 cat — 82.0%"},
		{chatID: 5, text: "⚠️ No camera found on this device."},
	}, api.messages())

	cancel()
	require.NoError(t, <-done)
	require.True(t, api.stopped)
}
