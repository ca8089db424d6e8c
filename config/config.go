package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultModelURL модель Teachable Machine по умолчанию
const DefaultModelURL = "https://teachablemachine.withgoogle.com/models/YIf5c0Y8X/"

type Config struct {
	TelegramToken string
	HTTPAddr      string

	ModelURL       string
	ModelCacheDir  string
	ONNXRuntimeLib string

	CameraPreferredDevice string
	CameraDefaultDevice   string
	CameraWidth           int
	CameraHeight          int
	CameraFlip            bool
	FrameInterval         time.Duration

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:         os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:              getString("HTTP_ADDR", ":8080"),
		ModelURL:              getString("MODEL_URL", DefaultModelURL),
		ModelCacheDir:         getString("MODEL_CACHE_DIR", defaultCacheDir()),
		ONNXRuntimeLib:        os.Getenv("ONNXRUNTIME_LIB"),
		CameraPreferredDevice: getString("CAMERA_PREFERRED_DEVICE", "1"),
		CameraDefaultDevice:   getString("CAMERA_DEFAULT_DEVICE", "0"),
		LogLevel:              getString("LOG_LEVEL", "info"),
		LogFormat:             getString("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.CameraWidth, err = getInt("CAMERA_WIDTH", 320); err != nil {
		return nil, err
	}
	if cfg.CameraHeight, err = getInt("CAMERA_HEIGHT", 320); err != nil {
		return nil, err
	}
	if cfg.CameraFlip, err = getBool("CAMERA_FLIP", true); err != nil {
		return nil, err
	}
	if cfg.FrameInterval, err = getDuration("FRAME_INTERVAL", 33*time.Millisecond); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "webcam-classifier")
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid positive integer %q", key, v)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}
