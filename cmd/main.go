package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"webcam-classifier/config"
	"webcam-classifier/internal/container"
	"webcam-classifier/internal/logger"
)

func main() {
	imagePath := flag.String("image", "", "classify one image file and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Failed to init logger: %v", err)
	}

	c, err := container.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to build services")
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("close")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *imagePath == "" {
		run(ctx, c, log)
		return
	}

	if err := classifyOnce(ctx, c, *imagePath); err != nil {
		log.WithError(err).Error("classification failed")
		stop()
		_ = c.Close()
		os.Exit(1)
	}
}

// diskFile загрузка из локального файла
type diskFile string

func (f diskFile) Name() string { return filepath.Base(string(f)) }

func (f diskFile) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

func classifyOnce(ctx context.Context, c *container.Container, path string) error {
	if err := c.Controller.Init(ctx); err != nil {
		return err
	}
	text, err := c.Controller.HandleUpload(ctx, diskFile(path))
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func run(parent context.Context, c *container.Container, log logrus.FieldLogger) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		// Ошибка загрузки уже показана пользователю, сервис продолжает работу.
		_ = c.Controller.Init(ctx)
	}()

	if c.Bot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Bot.Run(ctx); err != nil {
				log.WithError(err).Error("Bot error")
			}
		}()
	} else {
		log.Info("TELEGRAM_TOKEN is not set, bot disabled")
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- c.Web.Start() }()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Web server error")
		}
	}

	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := c.Web.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("web shutdown")
	}

	wg.Wait()
	log.Info("stopped")
}
