// Package web веб-панель классификатора: REST API, websocket с состоянием
// интерфейса и встроенная страница.
package web

import (
	"context"
	_ "embed"
	"image"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	app "webcam-classifier/internal/application"
	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

//go:embed static/index.html
var indexHTML []byte

// Controller действия пользователя, доступные панели
type Controller interface {
	State() entity.UIState
	CaptureState() entity.CaptureState
	StartWebcam(ctx context.Context) error
	StopWebcam()
	HandleUpload(ctx context.Context, file port.UploadFile) (string, error)
	Frame() image.Image
	UploadedImage() []byte
}

// Event сообщение websocket-канала /ws/state
type Event struct {
	Type    string          `json:"type"` // state | alert
	State   *entity.UIState `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Server веб-панель. Одновременно является презентером состояния.
type Server struct {
	app  *fiber.App
	addr string
	ctrl Controller
	hub  *Hub
	log  logrus.FieldLogger
}

// NewServer создаёт сервер. Контроллер подключается через Attach,
// потому что сервер нужен контроллеру как презентер.
func NewServer(addr string, log logrus.FieldLogger) *Server {
	s := &Server{
		addr: addr,
		hub:  NewHub(log.WithField("hub", "state")),
		log:  log,
	}

	a := fiber.New(fiber.Config{
		AppName:               "webcam-classifier",
		DisableStartupMessage: true,
		BodyLimit:             app.MaxUploadSize + 1<<20,
	})
	a.Use(recover.New())
	a.Use(cors.New())

	a.Get("/", s.handleIndex)
	a.Get("/health", s.handleHealth)

	api := a.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/webcam/start", s.handleStart)
	api.Post("/webcam/stop", s.handleStop)
	api.Post("/upload", s.handleUpload)
	api.Get("/upload/image", s.handleUploadedImage)
	api.Get("/frame.jpg", s.handleFrame)

	a.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	a.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = a
	return s
}

// Attach подключает контроллер
func (s *Server) Attach(ctrl Controller) {
	s.ctrl = ctrl
}

// App возвращает fiber-приложение (для тестов)
func (s *Server) App() *fiber.App {
	return s.app
}

// Start запускает хаб и слушает addr. Блокирует до Shutdown.
func (s *Server) Start() error {
	go s.hub.Run()
	s.log.WithField("addr", s.addr).Info("web dashboard listening")
	return s.app.Listen(s.addr)
}

// Shutdown останавливает сервер и хаб
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	return s.app.ShutdownWithContext(ctx)
}

// Render рассылает снимок состояния клиентам
func (s *Server) Render(state entity.UIState) {
	if err := s.hub.BroadcastJSON(Event{Type: "state", State: &state}); err != nil {
		s.log.WithError(err).Error("encode state event")
	}
}

// Alert рассылает уведомление клиентам
func (s *Server) Alert(message string) {
	if err := s.hub.BroadcastJSON(Event{Type: "alert", Message: message}); err != nil {
		s.log.WithError(err).Error("encode alert event")
	}
}

var _ port.Presenter = (*Server)(nil)
