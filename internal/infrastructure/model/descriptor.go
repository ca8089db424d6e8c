package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"webcam-classifier/internal/domain/entity"
)

const (
	DescriptorFile = "model.json"
	MetadataFile   = "metadata.json"

	// SupportedFormat формат весов, который умеет открыть бэкенд
	SupportedFormat = "onnx"

	DefaultImageSize = 224
)

// ErrUnsupportedFormat описатель собран для другого рантайма
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Descriptor описатель топологии (model.json) со списком файлов весов
type Descriptor struct {
	Format          string         `json:"format"`
	GeneratedBy     string         `json:"generatedBy"`
	ConvertedBy     string         `json:"convertedBy"`
	InputName       string         `json:"inputName"`
	OutputName      string         `json:"outputName"`
	InputShape      []int64        `json:"inputShape"`
	OutputShape     []int64        `json:"outputShape"`
	InputLayout     string         `json:"inputLayout"` // nhwc (по умолчанию) или nchw
	WeightsManifest []WeightsGroup `json:"weightsManifest"`
}

// WeightsGroup группа файлов весов
type WeightsGroup struct {
	Paths []string `json:"paths"`
}

// Metadata метаданные модели (metadata.json): метки и размер входа
type Metadata struct {
	TMVersion      string   `json:"tmVersion"`
	PackageVersion string   `json:"packageVersion"`
	PackageName    string   `json:"packageName"`
	ModelName      string   `json:"modelName"`
	Labels         []string `json:"labels"`
	ImageSize      int      `json:"imageSize"`
}

// WeightsPath возвращает единственный файл весов из манифеста.
func (d *Descriptor) WeightsPath() (string, error) {
	var paths []string
	for _, g := range d.WeightsManifest {
		paths = append(paths, g.Paths...)
	}
	if len(paths) != 1 {
		return "", fmt.Errorf("weights manifest must list exactly one file, got %d", len(paths))
	}

	p := paths[0]
	if p == "" || strings.Contains(p, "..") || strings.ContainsAny(p, `/\`) {
		return "", fmt.Errorf("invalid weights path %q", p)
	}
	return p, nil
}

// normalize проверяет описатель и метаданные и заполняет значения по умолчанию.
func normalize(d *Descriptor, m *Metadata) error {
	if !strings.EqualFold(d.Format, SupportedFormat) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, d.Format)
	}
	if len(m.Labels) == 0 {
		return errors.New("metadata has no labels")
	}
	if m.ImageSize <= 0 {
		m.ImageSize = DefaultImageSize
	}
	if d.InputName == "" {
		d.InputName = "input"
	}
	if d.OutputName == "" {
		d.OutputName = "output"
	}

	switch strings.ToLower(d.InputLayout) {
	case "", "nhwc":
		d.InputLayout = "nhwc"
		if len(d.InputShape) == 0 {
			size := int64(m.ImageSize)
			d.InputShape = []int64{1, size, size, 3}
		}
	case "nchw":
		d.InputLayout = "nchw"
		if len(d.InputShape) == 0 {
			size := int64(m.ImageSize)
			d.InputShape = []int64{1, 3, size, size}
		}
	default:
		return fmt.Errorf("unknown input layout %q", d.InputLayout)
	}

	if len(d.InputShape) != 4 {
		return fmt.Errorf("input shape must have 4 dims, got %v", d.InputShape)
	}
	want := 3 * m.ImageSize * m.ImageSize
	if n := shapeSize(d.InputShape); n != want {
		return fmt.Errorf("input shape %v does not match image size %d", d.InputShape, m.ImageSize)
	}

	if len(d.OutputShape) == 0 {
		d.OutputShape = []int64{1, int64(len(m.Labels))}
	}
	if last := d.OutputShape[len(d.OutputShape)-1]; last != int64(len(m.Labels)) {
		return fmt.Errorf("output shape %v does not match %d labels", d.OutputShape, len(m.Labels))
	}

	if _, err := d.WeightsPath(); err != nil {
		return err
	}
	return nil
}

func shapeSize(shape []int64) int {
	n := 1
	for _, v := range shape {
		n *= int(v)
	}
	return n
}

// resolve строит URL файла относительно базового адреса модели.
func resolve(base, name string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse model url: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.Path = path.Join(u.Path, name)
	return u.String(), nil
}

// fetchJSON скачивает и разбирает JSON-файл модели.
func fetchJSON(ctx context.Context, client *http.Client, rawURL string, v any) error {
	resp, err := get(ctx, client, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return nil
}

// download сохраняет файл во временный и атомарно переименовывает.
func download(ctx context.Context, client *http.Client, rawURL, dst string) error {
	resp, err := get(ctx, client, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".weights-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmp.Name(), dst)
}

func get(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	return resp, nil
}

// wrapLoad помечает ошибку как ошибку загрузки модели
func wrapLoad(err error) error {
	return fmt.Errorf("%w: %w", entity.ErrModelLoad, err)
}
