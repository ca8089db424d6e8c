package container

import (
	"github.com/sirupsen/logrus"

	"webcam-classifier/config"
	"webcam-classifier/internal/api/telegram"
	"webcam-classifier/internal/api/web"
	app "webcam-classifier/internal/application"
	"webcam-classifier/internal/domain/port"
	"webcam-classifier/internal/httpc"
	"webcam-classifier/internal/infrastructure/camera"
	"webcam-classifier/internal/infrastructure/model"
	"webcam-classifier/internal/infrastructure/storage"
)

type Container struct {
	Controller  *app.Controller
	Model       *model.Gateway
	Subscribers *app.SubscriberService
	Web         *web.Server
	Bot         *telegram.Bot // nil, если TELEGRAM_TOKEN не задан
}

// New собирает сервисы приложения и поверхности представления.
func New(cfg *config.Config, log logrus.FieldLogger) (*Container, error) {
	client := httpc.New(httpc.DefaultTimeout)

	subscribers := app.NewSubscriberService(storage.NewMemorySubscriberRepository())

	server := web.NewServer(cfg.HTTPAddr, log.WithField("component", "web"))
	presenters := app.MultiPresenter{
		server,
		&app.LogPresenter{Log: log.WithField("component", "presenter")},
	}

	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		var err error
		bot, err = telegram.NewBot(cfg.TelegramToken, client, subscribers, log.WithField("component", "telegram"))
		if err != nil {
			return nil, err
		}
		presenters = append(presenters, bot)
	}

	state := app.NewAppState(presenters)

	gateway := model.NewGateway(
		cfg.ModelURL,
		cfg.ModelCacheDir,
		client,
		model.ONNXBackend{LibraryPath: cfg.ONNXRuntimeLib},
		log.WithField("component", "model"),
	)

	cam := camera.NewGoCVCamera(camera.Config{
		PreferredDevice: cfg.CameraPreferredDevice,
		DefaultDevice:   cfg.CameraDefaultDevice,
		Width:           cfg.CameraWidth,
		Height:          cfg.CameraHeight,
		Flip:            cfg.CameraFlip,
	})

	captureLog := log.WithField("component", "capture")
	capture := app.NewCaptureService(cam, captureLog)
	predictor := app.NewPredictor(gateway, state, log.WithField("component", "predictor"))
	interval := cfg.FrameInterval
	loop := app.NewInferenceLoop(capture, predictor, func() port.Ticker {
		return app.NewIntervalTicker(interval)
	}, log.WithField("component", "loop"))

	controller := app.NewController(state, gateway, capture, predictor, loop, log.WithField("component", "controller"))

	server.Attach(controller)
	if bot != nil {
		bot.Attach(controller)
	}

	return &Container{
		Controller:  controller,
		Model:       gateway,
		Subscribers: subscribers,
		Web:         server,
		Bot:         bot,
	}, nil
}

// Close останавливает камеру и освобождает сессию модели
func (c *Container) Close() error {
	c.Controller.Close()
	return c.Model.Close()
}
