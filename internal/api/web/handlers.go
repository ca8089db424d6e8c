package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"webcam-classifier/internal/domain/entity"
)

const jpegQuality = 80

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(indexHTML)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// stateResponse состояние интерфейса и камеры
type stateResponse struct {
	UI      entity.UIState     `json:"ui"`
	Capture entity.CaptureState `json:"capture"`
}

func (s *Server) state() stateResponse {
	return stateResponse{UI: s.ctrl.State(), Capture: s.ctrl.CaptureState()}
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.state())
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	if err := s.ctrl.StartWebcam(c.UserContext()); err != nil {
		body := fiber.Map{"error": entity.UserMessage(err)}
		if cause, ok := entity.CaptureCauseOf(err); ok {
			body["cause"] = cause
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(s.state())
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	s.ctrl.StopWebcam()
	return c.JSON(s.state())
}

// formFile файл из multipart-формы
type formFile struct {
	h *multipart.FileHeader
}

func (f formFile) Name() string { return f.h.Filename }

func (f formFile) Open() (io.ReadCloser, error) { return f.h.Open() }

func (s *Server) handleUpload(c *fiber.Ctx) error {
	// Нет файла: как отменённый выбор в браузере, камера всё равно останавливается.
	h, err := c.FormFile("image")
	if err != nil {
		s.log.WithError(err).Debug("upload without image field")
		h = nil
	}

	var text string
	if h == nil {
		text, err = s.ctrl.HandleUpload(c.UserContext(), nil)
	} else {
		text, err = s.ctrl.HandleUpload(c.UserContext(), formFile{h: h})
	}

	switch {
	case errors.Is(err, entity.ErrModelNotLoaded):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": entity.UserMessage(err)})
	case err != nil:
		s.log.WithError(err).Warn("upload classification failed")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": text})
	}

	return c.JSON(fiber.Map{"prediction": text, "ui": s.ctrl.State()})
}

func (s *Server) handleUploadedImage(c *fiber.Ctx) error {
	data := s.ctrl.UploadedImage()
	if len(data) == 0 {
		return fiber.ErrNotFound
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(data))
	return c.Send(data)
}

func (s *Server) handleFrame(c *fiber.Ctx) error {
	frame := s.ctrl.Frame()
	if frame == nil {
		return fiber.ErrNotFound
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}

func (s *Server) handleStateWS(conn *websocket.Conn) {
	state := s.ctrl.State()
	initial, err := json.Marshal(Event{Type: "state", State: &state})
	if err != nil {
		s.log.WithError(err).Error("encode state event")
		return
	}
	NewClient(s.hub, conn, initial).Run()
}
