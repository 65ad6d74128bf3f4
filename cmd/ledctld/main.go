// Command ledctld is the display daemon: it owns the hardware renderer,
// the ingress listeners, the control plane HTTP server, and the optional
// LAN discovery and wake/sleep scheduler.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ledgrid/ledctld/internal/arbiter"
	"github.com/ledgrid/ledctld/internal/configstore"
	"github.com/ledgrid/ledctld/internal/controller"
	"github.com/ledgrid/ledctld/internal/controlplane"
	"github.com/ledgrid/ledctld/internal/discovery"
	"github.com/ledgrid/ledctld/internal/hardware"
	"github.com/ledgrid/ledctld/internal/ingress/pipe"
	"github.com/ledgrid/ledctld/internal/ingress/udp"
	"github.com/ledgrid/ledctld/internal/mailbox"
	"github.com/ledgrid/ledctld/internal/patternrunner"
	"github.com/ledgrid/ledctld/internal/patterns"
	"github.com/ledgrid/ledctld/internal/powerlimit"
	"github.com/ledgrid/ledctld/internal/schedule"
	"github.com/ledgrid/ledctld/internal/status"
	"github.com/ledgrid/ledctld/internal/telemetry"
)

var (
	configPath string
	httpAddr   string
	gpioPin    int
	simulate   bool
)

func main() {
	root := &cobra.Command{
		Use:   "ledctld",
		Short: "LED grid display daemon",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "ledctld.json", "path to the configuration document")
	root.Flags().StringVar(&httpAddr, "http-addr", ":8080", "control plane HTTP listen address")
	root.Flags().IntVar(&gpioPin, "gpio-pin", 18, "GPIO pin driving the LED chain (real hardware only)")
	root.Flags().BoolVar(&simulate, "sim", true, "use the in-memory simulated renderer instead of a real LED chain")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	store := configstore.New(configPath)
	cfg, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("ledctld: no config found, writing defaults")
		cfg = configstore.Default()
		if err := store.Save(cfg); err != nil {
			log.Error().Err(err).Msg("ledctld: failed to write default config")
			return err
		}
	}

	arb, err := arbiter.New(cfg.Layout, store)
	if err != nil {
		log.Error().Err(err).Msg("ledctld: invalid layout")
		return err
	}
	arb.SetBrightness(cfg.Display.Brightness)
	if err := arb.SetPowerCeiling(cfg.Display.PowerCeilingAmps, cfg.Display.PowerLimitEnabled); err != nil {
		log.Error().Err(err).Msg("ledctld: invalid power ceiling")
		return err
	}

	canvasW, canvasH := arb.Snapshot().Layout.CanvasSize()
	ledCount := arb.Snapshot().Layout.LEDCount()
	mbox := mailbox.New(canvasW, canvasH)

	registry := patterns.NewDefaultRegistry()
	runner := patternrunner.New(registry)

	promReg := prometheus.NewRegistry()
	statusPub := status.NewPublisher(promReg)

	var hw hardware.Renderer
	if simulate {
		hw = hardware.NewSim(ledCount)
	} else {
		realHW, err := hardware.NewWS281x(hardware.WS281xConfig{
			GPIOPin:    gpioPin,
			LEDCount:   ledCount,
			Brightness: 255,
		})
		if err != nil {
			log.Error().Err(err).Msg("ledctld: failed to initialize LED chain")
			return err
		}
		hw = realHW
	}
	defer hw.Close()

	ctrlCfg := controller.Config{
		TargetFPS: cfg.Display.TargetFPS,
		PowerLimit: powerlimit.Config{
			IMaxPerLED: cfg.Display.MaxCurrentPerLEDAmps,
			IIdle:      cfg.Display.IdleCurrentAmps,
		},
	}
	ctrl := controller.New(arb, mbox, runner, hw, statusPub, ctrlCfg, log.With().Str("component", "controller").Logger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("ledctld: controller exited")
		}
	}()

	if err := store.Watch(ctx, log.With().Str("component", "configstore").Logger(), func(updated configstore.Config) {
		if err := arb.SetLayout(updated.Layout); err != nil {
			log.Warn().Err(err).Msg("ledctld: hot-reloaded layout rejected")
		}
		arb.SetBrightness(updated.Display.Brightness)
		if err := arb.SetPowerCeiling(updated.Display.PowerCeilingAmps, updated.Display.PowerLimitEnabled); err != nil {
			log.Warn().Err(err).Msg("ledctld: hot-reloaded power ceiling rejected")
		}
	}); err != nil {
		log.Warn().Err(err).Msg("ledctld: config hot-reload watch unavailable")
	}

	if cfg.Ingress.UDPAddr != "" {
		udpListener, err := udp.Listen(cfg.Ingress.UDPAddr, mbox, log.With().Str("component", "ingress-udp").Logger())
		if err != nil {
			log.Error().Err(err).Msg("ledctld: failed to bind UDP ingress")
			return err
		}
		defer udpListener.Close()
		go func() {
			if err := udpListener.Serve(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("ledctld: udp ingress exited")
			}
		}()
	}

	if cfg.Ingress.PipePath != "" {
		pipeFile, err := os.OpenFile(cfg.Ingress.PipePath, os.O_RDONLY, os.ModeNamedPipe)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.Ingress.PipePath).Msg("ledctld: failed to open ingress pipe")
			return err
		}
		defer pipeFile.Close()
		reader := pipe.New(pipeFile, mbox, log.With().Str("component", "ingress-pipe").Logger())
		go func() {
			if err := reader.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("ledctld: pipe ingress exited")
			}
		}()
	}

	if cfg.Discovery.Enabled {
		responder, err := discovery.Listen(discoveryPort(httpAddr), log.With().Str("component", "discovery").Logger())
		if err != nil {
			log.Warn().Err(err).Msg("ledctld: discovery responder unavailable")
		} else {
			defer responder.Close()
			go func() {
				if err := responder.Serve(ctx); err != nil && ctx.Err() == nil {
					log.Warn().Err(err).Msg("ledctld: discovery responder exited")
				}
			}()
		}
	}

	var sched *schedule.Scheduler
	if cfg.Schedule.Enabled {
		sched, err = schedule.New(cfg.Schedule.WakeCron, cfg.Schedule.SleepCron, arb, log.With().Str("component", "schedule").Logger())
		if err != nil {
			log.Error().Err(err).Msg("ledctld: invalid schedule")
			return err
		}
		sched.Start()
	}

	sampler := telemetry.New(statusPub, 5*time.Second, log.With().Str("component", "telemetry").Logger())
	go sampler.Run(ctx)

	cpServer := controlplane.New(arb, statusPub, registry, log.With().Str("component", "controlplane").Logger())
	mux := http.NewServeMux()
	mux.Handle("/", cpServer.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	httpServer := &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("ledctld: control plane server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("ledctld: shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("ledctld: control plane server shutdown error")
	}
	if sched != nil {
		sched.Stop()
	}
	cancel()

	return nil
}

// discoveryPort derives the UDP discovery port from the HTTP listen
// address's port number so the two never collide by default.
func discoveryPort(httpAddr string) int {
	var port int
	if _, err := fmt.Sscanf(httpAddr, ":%d", &port); err == nil && port > 0 {
		return port + 1000
	}
	return 9090
}
