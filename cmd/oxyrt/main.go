// Command oxyrt runs the ray-tracing bridge against a built-in demo scene.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-rt/engine"
	"github.com/Carmen-Shannon/oxy-rt/engine/config"
	"github.com/Carmen-Shannon/oxy-rt/engine/logging"
	"github.com/Carmen-Shannon/oxy-rt/engine/mods"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/mesh"
	"github.com/Carmen-Shannon/oxy-rt/engine/timing"
	"github.com/Carmen-Shannon/oxy-rt/engine/window"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "oxyrt.toml", "path to the TOML configuration")
	profiling := flag.Bool("profile", false, "log frame and memory statistics every second")
	flag.Parse()

	cfg, cfgErr := config.Load(*configPath)
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	switch {
	case cfgErr == nil:
	case errors.Is(cfgErr, os.ErrNotExist):
		logger.Info("config file not found, using defaults", zap.String("path", *configPath))
	default:
		logger.Fatal("failed to load config", zap.Error(cfgErr))
	}

	files := cfg.Mods.Files()
	if err := os.MkdirAll(cfg.Mods.Dir, 0o755); err != nil {
		logger.Fatal("failed to create mods directory", zap.String("dir", cfg.Mods.Dir), zap.Error(err))
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		logger.Fatal("failed to open window", zap.Error(err))
	}
	width, height := win.Size()

	msaa := backend.MSAAOff
	if cfg.Backend.MSAA > 1 {
		msaa = backend.MSAASampleCount(cfg.Backend.MSAA)
	}
	b, err := backend.NewWGPUBackend(win.SurfaceDescriptor(), width, height,
		backend.WithMSAA(msaa),
		backend.WithForceSoftwareRenderer(cfg.Backend.ForceSoftware),
		backend.WithVSync(cfg.Backend.PresentMode == "vsync"),
		backend.WithLogger(logger.Named("backend")),
	)
	if err != nil {
		logger.Fatal("failed to initialize backend", zap.Error(err))
	}
	defer b.Release()

	clock := timing.RealClock{}
	pacer := timing.NewPacer(clock,
		timing.WithTickRate(cfg.Frame.TickRate),
		timing.WithSleepMargin(cfg.Frame.SleepMargin()),
		timing.WithLogger(logger.Named("pacer")),
	)

	r, err := renderer.NewRenderer(b,
		renderer.WithLogger(logger.Named("renderer")),
		renderer.WithClock(clock),
		renderer.WithTickDuration(pacer.TickDuration()),
		renderer.WithMaxInstances(cfg.Frame.MaxInstances),
		renderer.WithFrameSlots(cfg.Frame.RenderFrames),
		renderer.WithInterpolationWorkers(cfg.Frame.InterpolationWorkers),
		renderer.WithModFiles(files),
		renderer.WithMeshCacheOptions(
			mesh.WithRequiredFrames(cfg.Mesh.RequiredFrames),
			mesh.WithMaxPromotionsPerFrame(cfg.Mesh.MaxPromotionsPerFrame),
			mesh.WithDynamicLifetime(cfg.Mesh.DynamicLifetime),
			mesh.WithStaticLifetime(cfg.Mesh.StaticLifetime),
		),
	)
	if err != nil {
		logger.Fatal("failed to create renderer", zap.Error(err))
	}
	defer r.Release()

	eng := engine.NewEngine(r,
		engine.WithWindow(win),
		engine.WithPacer(pacer),
		engine.WithLogger(logger.Named("engine")),
		engine.WithProfiling(*profiling),
	)

	scene := newDemoScene()
	eng.SetTickCallback(scene.Update)
	eng.SetDrawCallback(scene.Draw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.Mods.Watch {
		w, err := mods.NewWatcher(files, r.ReloadMods,
			mods.WithDebounce(cfg.Mods.Debounce()),
			mods.WithWatcherLogger(logger.Named("mods")),
		)
		if err != nil {
			logger.Error("mod hot reload disabled", zap.Error(err))
		} else {
			g.Go(func() error { return w.Run(ctx) })
		}
	}

	g.Go(func() error {
		<-ctx.Done()
		eng.Quit()
		return nil
	})

	// The window message loop must stay on the main thread.
	eng.Run()
	stop()
	if err := g.Wait(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("bye", zap.Uint64("ticks", eng.Ticks()), zap.Uint64("dropped", eng.DroppedFrames()))
}
