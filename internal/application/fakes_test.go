package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

func newTestLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func testFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

// fakeSource кадры из памяти
type fakeSource struct {
	closed   atomic.Int32
	readErr  error
	closeErr error
}

func (s *fakeSource) Read() (image.Image, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return testFrame(), nil
}

func (s *fakeSource) Close() error {
	s.closed.Add(1)
	return s.closeErr
}

// fakeCamera отвечает заранее заданными ошибками по режимам
type fakeCamera struct {
	mu     sync.Mutex
	errs   map[entity.DeviceMode]error
	opened []entity.DeviceMode
	source *fakeSource
	gate   chan struct{}
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{errs: map[entity.DeviceMode]error{}, source: &fakeSource{}}
}

func (c *fakeCamera) Open(ctx context.Context, mode entity.DeviceMode) (port.FrameSource, error) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = append(c.opened, mode)
	if err := c.errs[mode]; err != nil {
		return nil, err
	}
	return c.source, nil
}

func (c *fakeCamera) attempts() []entity.DeviceMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.DeviceMode(nil), c.opened...)
}

// fakeClassifier возвращает заданные ответы по очереди, последний повторяется
type fakeClassifier struct {
	mu      sync.Mutex
	ready   bool
	results []entity.Prediction
	errs    []error
	calls   int
	block   chan struct{}
	onCall  func()
	active  atomic.Int32
	overlap atomic.Bool
}

func (c *fakeClassifier) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *fakeClassifier) Classify(ctx context.Context, img image.Image) (entity.Prediction, error) {
	if c.active.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.active.Add(-1)

	c.mu.Lock()
	i := c.calls
	c.calls++
	onCall, block := c.onCall, c.block
	var res entity.Prediction
	var err error
	if len(c.results) > 0 {
		res = c.results[minInt(i, len(c.results)-1)]
	}
	if len(c.errs) > 0 {
		err = c.errs[minInt(i, len(c.errs)-1)]
	}
	c.mu.Unlock()

	if onCall != nil {
		onCall()
	}
	if block != nil {
		<-block
	}
	if img == nil {
		return nil, errors.New("nil image")
	}
	return res, err
}

func (c *fakeClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// fakeLoader загрузчик модели с заданной ошибкой
type fakeLoader struct {
	err        error
	classifier *fakeClassifier
}

func (l *fakeLoader) Load(ctx context.Context) error {
	if l.err != nil {
		return l.err
	}
	l.classifier.mu.Lock()
	l.classifier.ready = true
	l.classifier.mu.Unlock()
	return nil
}

// manualTicker тикает только по команде теста
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

// tick блокируется, пока цикл не заберёт тик
func (t *manualTicker) tick() bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

// recordingPresenter запоминает снимки и уведомления
type recordingPresenter struct {
	mu     sync.Mutex
	states []entity.UIState
	alerts []string
}

func (p *recordingPresenter) Render(state entity.UIState) {
	p.mu.Lock()
	p.states = append(p.states, state)
	p.mu.Unlock()
}

func (p *recordingPresenter) Alert(message string) {
	p.mu.Lock()
	p.alerts = append(p.alerts, message)
	p.mu.Unlock()
}

func (p *recordingPresenter) Alerts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.alerts...)
}

func (p *recordingPresenter) States() []entity.UIState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.UIState(nil), p.states...)
}

// memFile загрузка с отслеживанием закрытия
type memFile struct {
	name   string
	data   []byte
	closed atomic.Bool
}

func (f *memFile) Name() string { return f.name }

func (f *memFile) Open() (io.ReadCloser, error) {
	return &trackingReader{Reader: bytes.NewReader(f.data), closed: &f.closed}, nil
}

type trackingReader struct {
	io.Reader
	closed *atomic.Bool
}

func (r *trackingReader) Close() error {
	r.closed.Store(true)
	return nil
}

// testEnv собранный контроллер с фейками
type testEnv struct {
	ctrl       *Controller
	camera     *fakeCamera
	classifier *fakeClassifier
	loader     *fakeLoader
	presenter  *recordingPresenter
	ticker     *manualTicker
	capture    *CaptureService
	hook       *test.Hook
}

func newTestEnv() *testEnv {
	log, hook := newTestLogger()
	camera := newFakeCamera()
	classifier := &fakeClassifier{ready: true}
	presenter := &recordingPresenter{}
	ticker := newManualTicker()

	state := NewAppState(presenter)
	capture := NewCaptureService(camera, log)
	predictor := NewPredictor(classifier, state, log)
	loop := NewInferenceLoop(capture, predictor, func() port.Ticker { return ticker }, log)
	loader := &fakeLoader{classifier: classifier}

	return &testEnv{
		ctrl:       NewController(state, loader, capture, predictor, loop, log),
		camera:     camera,
		classifier: classifier,
		loader:     loader,
		presenter:  presenter,
		ticker:     ticker,
		capture:    capture,
		hook:       hook,
	}
}
