package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/alerting"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/config"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/demo"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/event"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/fabric"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/publish"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/server"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/version"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/vmanage"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	demoMode := flag.Bool("demo", false, "run against built-in demo data instead of a controller")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("SD-WAN health monitor starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	// Alert thresholds.
	thresholds := alerting.DefaultThresholds()
	if sub := viperCfg.Sub("thresholds"); sub != nil {
		if err := sub.Unmarshal(&thresholds); err != nil {
			logger.Fatal("invalid thresholds configuration", zap.Error(err))
		}
	}

	// Shared event bus and alert pipeline.
	bus := event.NewBus(logger.Named("event"))
	manager := alerting.NewManager(thresholds, bus, logger.Named("alerting"))

	var notifiers []alerting.Notifier
	var slackCfg alerting.SlackConfig
	if sub := viperCfg.Sub("notify.slack"); sub != nil {
		if err := sub.Unmarshal(&slackCfg); err != nil {
			logger.Fatal("invalid slack configuration", zap.Error(err))
		}
	}
	if slackCfg.Enabled {
		if slackCfg.WebhookURL == "" {
			logger.Fatal("notify.slack.enabled is set but notify.slack.webhook_url is empty")
		}
		notifiers = append(notifiers, alerting.NewSlackNotifier(slackCfg))
		logger.Info("slack notifications enabled",
			zap.String("component", "alerting"),
			zap.String("channel", slackCfg.Channel),
		)
	}
	if len(notifiers) > 0 {
		dispatcher := alerting.NewDispatcher(notifiers, logger.Named("dispatch"))
		bus.Subscribe(event.TopicAlertTriggered, dispatcher.HandleAlertEvent)
	}

	// Data source: the live controller, or the built-in demo fabric when
	// requested or when no controller is configured.
	var source fabric.DataSource
	var controller *vmanage.Client
	if *demoMode || viperCfg.GetString("vmanage.host") == "" {
		logger.Warn("no vManage controller configured, running in demo mode")
		source = demo.NewSource()
	} else {
		var vmCfg vmanage.Config
		if err := viperCfg.Sub("vmanage").Unmarshal(&vmCfg); err != nil {
			logger.Fatal("invalid vmanage configuration", zap.Error(err))
		}
		controller, err = vmanage.NewClient(vmCfg, logger.Named("vmanage"))
		if err != nil {
			logger.Fatal("failed to create vmanage client", zap.Error(err))
		}
		source = controller
		logger.Info("vmanage client configured",
			zap.String("component", "vmanage"),
			zap.String("host", vmCfg.Host),
		)
	}

	// Fabric monitor.
	monitorCfg := fabric.DefaultConfig()
	if sub := viperCfg.Sub("monitor"); sub != nil {
		if err := sub.Unmarshal(&monitorCfg); err != nil {
			logger.Fatal("invalid monitor configuration", zap.Error(err))
		}
	}
	monitor := fabric.NewMonitor(source, manager, thresholds, monitorCfg, logger.Named("fabric"))

	// WebSocket fan-out and the refresh loop feeding it.
	wsHandler := ws.NewHandler(bus, logger.Named("ws"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := publish.NewPublisher(monitor, bus, monitorCfg.RefreshInterval, logger.Named("publish"))

	// Ready once the first refresh cycle has published a snapshot.
	var warmedUp atomic.Bool
	bus.Subscribe(event.TopicHealthUpdated, func(context.Context, event.Event) {
		warmedUp.Store(true)
	})
	readyCheck := server.ReadinessChecker(func(context.Context) error {
		if !warmedUp.Load() {
			return errors.New("first fabric refresh not completed")
		}
		return nil
	})

	publisher.Start(ctx)

	addr := fmt.Sprintf("%s:%d", viperCfg.GetString("server.host"), viperCfg.GetInt("server.port"))
	srv := server.New(addr, monitor, manager, logger.Named("server"), readyCheck, wsHandler)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("SD-WAN health monitor ready", zap.String("addr", addr))

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	publisher.Stop()
	if controller != nil {
		controller.Logout(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("SD-WAN health monitor stopped")
}
