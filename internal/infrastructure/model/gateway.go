package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"webcam-classifier/internal/domain/entity"
	"webcam-classifier/internal/domain/port"
)

// Session открытая сессия рантайма для одной модели
type Session interface {
	Run(input []float32) ([]float32, error)
	Close() error
}

// Backend открывает сессию по файлу весов
type Backend interface {
	NewSession(weightsPath string, d Descriptor) (Session, error)
}

// handle загруженная модель. Создаётся один раз и больше не меняется.
type handle struct {
	session    Session
	descriptor Descriptor
	metadata   Metadata
}

// Gateway загружает классификатор по базовому URL и классифицирует изображения.
type Gateway struct {
	baseURL  string
	cacheDir string
	client   *http.Client
	backend  Backend
	log      logrus.FieldLogger

	loadMu sync.Mutex
	mu     sync.RWMutex
	handle *handle

	// Сессия рантайма не потокобезопасна
	runMu sync.Mutex
}

// NewGateway создаёт шлюз модели. Модель не загружается до вызова Load.
func NewGateway(baseURL, cacheDir string, client *http.Client, backend Backend, log logrus.FieldLogger) *Gateway {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "webcam-classifier")
	}
	return &Gateway{
		baseURL:  baseURL,
		cacheDir: cacheDir,
		client:   client,
		backend:  backend,
		log:      log,
	}
}

// Load скачивает описатель, метаданные и веса и открывает сессию.
// Все ошибки оборачивают entity.ErrModelLoad. Повторный вызов после
// успешной загрузки ничего не делает.
func (g *Gateway) Load(ctx context.Context) error {
	g.loadMu.Lock()
	defer g.loadMu.Unlock()

	if g.Ready() {
		return nil
	}

	h, err := g.load(ctx)
	if err != nil {
		return wrapLoad(err)
	}

	g.mu.Lock()
	g.handle = h
	g.mu.Unlock()

	g.log.WithFields(logrus.Fields{
		"model":  h.metadata.ModelName,
		"labels": h.metadata.Labels,
		"size":   h.metadata.ImageSize,
	}).Info("model loaded")

	return nil
}

func (g *Gateway) load(ctx context.Context) (*handle, error) {
	descriptorURL, err := resolve(g.baseURL, DescriptorFile)
	if err != nil {
		return nil, err
	}
	metadataURL, err := resolve(g.baseURL, MetadataFile)
	if err != nil {
		return nil, err
	}

	var d Descriptor
	if err := fetchJSON(ctx, g.client, descriptorURL, &d); err != nil {
		return nil, fmt.Errorf("descriptor: %w", err)
	}
	var m Metadata
	if err := fetchJSON(ctx, g.client, metadataURL, &m); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	if err := normalize(&d, &m); err != nil {
		return nil, err
	}

	weights, _ := d.WeightsPath()
	weightsURL, err := resolve(g.baseURL, weights)
	if err != nil {
		return nil, err
	}
	local := filepath.Join(g.cacheDir, cacheKey(g.baseURL), weights)

	g.log.WithField("url", weightsURL).Debug("downloading weights")
	if err := download(ctx, g.client, weightsURL, local); err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}

	session, err := g.backend.NewSession(local, d)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	return &handle{session: session, descriptor: d, metadata: m}, nil
}

// cacheKey каталог кэша для конкретного URL модели
func cacheKey(baseURL string) string {
	sum := sha256.Sum256([]byte(baseURL))
	return hex.EncodeToString(sum[:6])
}

// Ready сообщает, загружена ли модель
func (g *Gateway) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.handle != nil
}

// Labels возвращает метки модели или nil, если модель не загружена
func (g *Gateway) Labels() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.handle == nil {
		return nil
	}
	return append([]string(nil), g.handle.metadata.Labels...)
}

// Classify возвращает вероятности в порядке меток модели.
func (g *Gateway) Classify(ctx context.Context, img image.Image) (entity.Prediction, error) {
	g.mu.RLock()
	h := g.handle
	g.mu.RUnlock()

	if h == nil {
		return nil, entity.ErrModelNotLoaded
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", entity.ErrInference)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInference, err)
	}

	input := toTensor(img, h.metadata.ImageSize, h.descriptor.InputLayout)

	g.runMu.Lock()
	output, err := h.session.Run(input)
	g.runMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInference, err)
	}

	labels := h.metadata.Labels
	if len(output) < len(labels) {
		return nil, fmt.Errorf("%w: got %d scores for %d labels", entity.ErrInference, len(output), len(labels))
	}

	prediction := make(entity.Prediction, len(labels))
	for i, label := range labels {
		prediction[i] = entity.ClassPrediction{Label: label, Probability: float64(output[i])}
	}
	return prediction, nil
}

// Close закрывает сессию рантайма
func (g *Gateway) Close() error {
	g.mu.Lock()
	h := g.handle
	g.mu.Unlock()

	if h == nil {
		return nil
	}
	g.runMu.Lock()
	defer g.runMu.Unlock()
	return h.session.Close()
}

var (
	_ port.Classifier  = (*Gateway)(nil)
	_ port.ModelLoader = (*Gateway)(nil)
)
