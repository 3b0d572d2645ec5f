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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"convergedash/internal/config"
	"convergedash/internal/logging"
	"convergedash/internal/metrics"
	"convergedash/internal/models"
	"convergedash/internal/monitor"
	"convergedash/internal/render"
	"convergedash/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", "", "address for the web server (overrides listen_addr)")
		once       = flag.Bool("once", false, "poll the health endpoint once, print the result and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, nil); err != nil {
		logrus.WithError(err).Fatal("configure logging")
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	log := logging.WithComponent("main")

	checker, err := monitor.NewChecker(cfg.HealthURL, nil)
	if err != nil {
		log.WithError(err).Fatal("health checker")
	}

	if *once {
		os.Exit(runOnce(cfg, checker))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	page := render.NewPage(models.IndicatorID)
	renderer := render.Multi{
		render.NewIndicatorRenderer(page),
		render.NewLogRenderer(),
		metrics.NewHealthMetrics(reg),
	}

	poller, err := monitor.New(monitor.Config{Interval: cfg.Interval(), Timeout: cfg.Timeout()}, checker, renderer)
	if err != nil {
		log.WithError(err).Fatal("create poller")
	}

	srv := server.New(cfg.ListenAddr, page, server.Options{
		HealthEndpoint: checker.Endpoint(),
		PollInterval:   poller.Interval(),
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// the page exists once the indicator element is declared, so polling can begin
	poller.Start()
	defer poller.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("server shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":     cfg.ListenAddr,
		"endpoint": checker.Endpoint(),
		"interval": poller.Interval(),
	}).Info("dashboard listening")
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("server error")
	}
}

// runOnce performs a single poll to stdout and returns the process exit code.
func runOnce(cfg config.Config, checker *monitor.Checker) int {
	poller, err := monitor.New(monitor.Config{Interval: cfg.Interval(), Timeout: cfg.Timeout()}, checker, render.NewWriterRenderer(os.Stdout))
	if err != nil {
		logging.WithComponent("main").WithError(err).Error("create poller")
		return 2
	}
	if poller.PollOnce(context.Background()) != models.Healthy {
		return 1
	}
	return 0
}
