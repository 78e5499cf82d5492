package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/trackforge/engine/internal/config"
	coresys "github.com/trackforge/engine/internal/core/system"
	"github.com/trackforge/engine/internal/data"
	"github.com/trackforge/engine/internal/train"
	"github.com/trackforge/engine/internal/viewer"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trackforge",
		Short: "Rail network editor engine",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(simCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if p := os.Getenv("TRACKFORGE_CONFIG"); p != "" {
			path = p
		}
	}
	if path == "" {
		return config.Defaults(), nil
	}
	return config.Load(path)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// trainSystem advances the kinematic simulation each frame.
type trainSystem struct {
	srv *viewer.Server
}

func (s *trainSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }
func (s *trainSystem) Update(dt time.Duration) {
	s.srv.Tick(float64(dt.Milliseconds()))
}

// broadcastSystem publishes train state to connected viewers each frame.
type broadcastSystem struct {
	srv *viewer.Server
}

func (s *broadcastSystem) Phase() coresys.Phase { return coresys.PhaseOutput }
func (s *broadcastSystem) Update(time.Duration) {
	s.srv.BroadcastTrainState()
}

func serveCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve [layout.yaml]",
		Short: "Serve a layout over HTTP and websockets",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runServe(cfgPath, args[0])
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (TOML)")
	return cmd
}

func runServe(cfgPath, layoutPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	layout, err := data.LoadLayout(layoutPath)
	if err != nil {
		return err
	}
	if layout.Gauge == 0 {
		layout.Gauge = cfg.Editor.Gauge
	}
	g, tr, err := layout.Build(log)
	if err != nil {
		return fmt.Errorf("build layout: %w", err)
	}
	g.SetHitRadius(cfg.Editor.ProjectionRadius)
	g.SetElevationRange(cfg.Editor.MinElevation, cfg.Editor.MaxElevation)
	log.Info("layout loaded",
		zap.Int("joints", g.JointCount()),
		zap.Int("segments", g.SegmentCount()),
		zap.Bool("train", tr != nil))

	srv := viewer.NewServer(g, tr, cfg.Viewer.AllowOrigins, log)

	runner := coresys.NewRunner()
	runner.Register(&trainSystem{srv: srv})
	runner.Register(&broadcastSystem{srv: srv})

	httpSrv := &http.Server{
		Addr:         cfg.Viewer.BindAddress,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Viewer.ReadTimeout,
		WriteTimeout: cfg.Viewer.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		srv.Hub().Run(ctx)
		return nil
	})

	grp.Go(func() error {
		log.Info("viewer listening", zap.String("addr", cfg.Viewer.BindAddress))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	grp.Go(func() error {
		ticker := time.NewTicker(cfg.Train.TickRate)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				runner.Tick(now.Sub(last))
				last = now
			}
		}
	})

	grp.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})

	return grp.Wait()
}

func simCmd() *cobra.Command {
	var (
		cfgPath  string
		seconds  float64
		throttle string
	)

	cmd := &cobra.Command{
		Use:   "sim [layout.yaml]",
		Short: "Run a headless simulation of a layout's train",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSim(cfgPath, args[0], seconds, throttle)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (TOML)")
	cmd.Flags().Float64VarP(&seconds, "seconds", "s", 30, "simulated seconds")
	cmd.Flags().StringVarP(&throttle, "throttle", "t", "P3", "throttle step")
	return cmd
}

func runSim(cfgPath, layoutPath string, seconds float64, throttle string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	layout, err := data.LoadLayout(layoutPath)
	if err != nil {
		return err
	}
	g, tr, err := layout.Build(log)
	if err != nil {
		return fmt.Errorf("build layout: %w", err)
	}
	if tr == nil {
		return fmt.Errorf("layout %s declares no train", layoutPath)
	}

	step, ok := train.ParseThrottle(throttle)
	if !ok {
		return fmt.Errorf("unknown throttle step %q", throttle)
	}
	tr.SetThrottle(step)

	tickMs := float64(cfg.Train.TickRate.Milliseconds())
	if tickMs <= 0 {
		tickMs = 16
	}
	steps := int(seconds * 1000 / tickMs)
	for i := 0; i < steps; i++ {
		tr.Update(tickMs)
	}

	pos := tr.Position()
	seg := g.Segment(pos.Segment)
	fields := []zap.Field{
		zap.Float64("seconds", seconds),
		zap.String("throttle", tr.Throttle().String()),
		zap.Float64("speed", tr.Speed()),
		zap.Uint32("segment", uint32(pos.Segment)),
		zap.Float64("t", pos.T),
	}
	if seg != nil {
		p := seg.Curve.Eval(pos.T)
		fields = append(fields, zap.Float64("x", p.X), zap.Float64("y", p.Y))
	}
	log.Info("simulation finished", fields...)
	return nil
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [layout.yaml]",
		Short: "Validate a layout file without serving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			layout, err := data.LoadLayout(args[0])
			if err != nil {
				return err
			}
			g, tr, err := layout.Build(zap.NewNop())
			if err != nil {
				return err
			}
			fmt.Printf("ok: %d joints, %d segments, train=%v\n",
				g.JointCount(), g.SegmentCount(), tr != nil)
			return nil
		},
	}
}
