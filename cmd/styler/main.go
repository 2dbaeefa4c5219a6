// Command styler applies a style transfer model to a camera, video or image
// slideshow in real time.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"styler/internal/assets"
	"styler/internal/autoadvance"
	"styler/internal/capture"
	"styler/internal/config"
	"styler/internal/core"
	"styler/internal/gui"
	"styler/internal/inference"
	"styler/internal/inference/dnn"
	"styler/internal/io"
	"styler/internal/metrics"
	"styler/internal/pipeline"
	"styler/internal/remote"
	"styler/internal/scaler"
	"styler/internal/source"
	"styler/internal/style"
)

const (
	AppName    = "styler"
	AppID      = "io.styler.app"
	AppVersion = "1.0.0"

	// devices tried by --list
	listDeviceLimit = 10
)

func main() {
	cfg, warnings, err := config.Parse(AppName, os.Args[1:], os.Stderr)
	if err != nil {
		if config.IsHelp(err) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if cfg.Version {
		fmt.Println(AppVersion)
		return
	}

	logger := initLogger(cfg.Verbose)
	log := logger.WithField("session", uuid.NewString())
	for _, w := range warnings {
		log.Warn(w)
	}

	if cfg.List {
		devices := capture.ListDevices(listDeviceLimit, log)
		if len(devices) == 0 {
			fmt.Println("no camera devices found")
		}
		for _, d := range devices {
			fmt.Printf("%d\n", d)
		}
		return
	}

	log.WithFields(logrus.Fields{
		"version": AppVersion,
		"config":  cfg.ConfigPath,
	}).Info("starting")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	log.Info("shutting down")
}

// initLogger initializes the logger with appropriate level
func initLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

func run(cfg *config.Config, log logrus.FieldLogger) error {
	styles, err := assets.ListImages(cfg.StyleDir)
	if err != nil {
		return fmt.Errorf("styles: %w", err)
	}
	images, err := assets.ListImages(cfg.ImageDir)
	if err != nil {
		log.WithError(err).Warn("no input images")
	}
	videos, err := assets.ListVideos(cfg.VideoDir)
	if err != nil {
		log.WithError(err).Warn("no input videos")
	}
	log.WithFields(logrus.Fields{
		"styles": len(styles),
		"images": len(images),
		"videos": len(videos),
	}).Info("assets")

	clock := core.SystemClock{}
	loader := io.NewImageLoader(log)
	stats := metrics.NewTracker(metrics.DefaultWindow)

	// model
	layout, err := inference.ParseLayout(cfg.Layout)
	if err != nil {
		return err
	}
	dnnCfg := dnn.DefaultConfig()
	dnnCfg.Model = cfg.Model
	dnnCfg.Layout = layout
	dnnCfg.Backend = cfg.Backend
	dnnCfg.Target = cfg.Target
	engine := dnn.New(dnnCfg, log)
	if err := engine.Setup(cfg.Width, cfg.Height); err != nil {
		return err
	}
	defer engine.Close()

	bridge := inference.NewBridge(engine, log)
	bridge.SetObserver(stats)

	// sources
	timer := autoadvance.NewTimer(cfg.Auto, cfg.AutoInterval(), clock, log)
	camSettings := source.CameraSettings{
		Device: cfg.Device,
		Width:  cfg.Width,
		Height: cfg.Height,
		Rate:   cfg.Rate,
	}
	camera := source.NewCameraSource(capture.NewCameraOpener(log), camSettings, log)
	imageSource := source.NewImageSource(loader, clock, log)
	imageSource.SetPaths(images)
	imageSource.SetFrameTime(cfg.SlideDuration())
	videoSource := source.NewVideoSource(capture.NewVideoOpener(log), clock, log)
	videoSource.SetPaths(videos)

	registry := source.NewRegistry(timer, log, camera, videoSource, imageSource)
	defer registry.Close()
	openFirst(registry, log, source.KindCamera, source.KindVideo, source.KindImage)

	// style
	sw, sh := bridge.StyleSize()
	selector, err := style.NewSelector(styles, loader, bridge, sw, sh, log)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.StyleDir, err)
	}
	if err := selector.Init(); err != nil {
		return err
	}

	var styleCamera source.Source
	if cfg.StyleDevice >= 0 {
		sc := source.NewCameraSource(capture.NewCameraOpener(log), source.CameraSettings{
			Device: cfg.StyleDevice,
			Width:  cfg.Width,
			Height: cfg.Height,
			Rate:   cfg.Rate,
		}, log)
		if err := sc.Open(); err != nil {
			log.WithError(err).Warn("style camera disabled")
		} else {
			sc.Play()
			defer sc.Close()
			styleCamera = sc
		}
	}

	fit := scaler.New(cfg.Width, cfg.Height)
	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Registry:    registry,
		Bridge:      bridge,
		Selector:    selector,
		Timer:       timer,
		Scaler:      fit,
		StyleCamera: styleCamera,
		Saver:       loader,
		Clock:       clock,
		Ticks:       stats,
	}, pipeline.Options{
		Width:          cfg.Width,
		Height:         cfg.Height,
		StaticSize:     cfg.StaticSize,
		Mirror:         cfg.Mirror,
		Flip:           cfg.Flip,
		StyleMirror:    cfg.StyleMirror,
		StyleFlip:      cfg.StyleFlip,
		StyleSave:      cfg.StyleSave,
		Pip:            true,
		Fullscreen:     cfg.Fullscreen,
		OutputDir:      cfg.OutputDir,
		StyleOutputDir: cfg.StyleOutputDir,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	if !cfg.Sync {
		if err := bridge.Start(ctx); err != nil {
			return err
		}
		defer bridge.Stop()
	}

	if cfg.Port > 0 {
		srv, err := remote.NewServer(cfg.Port, orch, log)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				log.WithError(err).Error("osc server stopped")
			}
		}()
	}

	if cfg.Watch {
		watcher, err := assets.NewWatcher(cfg.StyleDir, assets.ListImages, func(paths []string) {
			orch.Enqueue(pipeline.Event{Cmd: pipeline.CmdRefreshStyles, Paths: paths})
		}, log)
		if err != nil {
			log.WithError(err).Warn("style directory not watched")
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				watcher.Run(ctx)
			}()
		}
	}

	fyneApp := app.NewWithID(AppID)
	fyneApp.Settings().SetTheme(theme.DefaultTheme())
	win := gui.NewDisplay(fyneApp, orch, cfg.Width, cfg.Height, cfg.Fullscreen, log)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runLoop(ctx, cfg.TickInterval(), orch, win, stats)
	}()

	win.ShowAndRun()
	cancel()
	wg.Wait()
	return nil
}

// openFirst switches to the first source kind that opens
func openFirst(registry *source.Registry, log logrus.FieldLogger, kinds ...source.Kind) {
	for _, kind := range kinds {
		err := registry.SwitchTo(kind)
		if err == nil {
			return
		}
		log.WithError(err).WithField("source", kind).Warn("source unavailable")
	}
	log.Error("no input source available")
}

// runLoop ticks the orchestrator and hands each view to the display
func runLoop(ctx context.Context, interval time.Duration, orch *pipeline.Orchestrator, win *gui.Display, stats *metrics.Tracker) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			orch.Tick()
			var summary string
			if orch.Options().Debug {
				summary = stats.Format()
			}
			win.Apply(orch.View(summary))
		}
	}
}
