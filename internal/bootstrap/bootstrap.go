package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dashwise/dashboard-assistant/internal/config"
	"github.com/dashwise/dashboard-assistant/internal/core/domain"
	"github.com/dashwise/dashboard-assistant/internal/core/ports"
	"github.com/dashwise/dashboard-assistant/internal/core/usecase"
	"github.com/dashwise/dashboard-assistant/internal/infrastructure/catalog/grafana"
	natsevents "github.com/dashwise/dashboard-assistant/internal/infrastructure/events/nats"
	"github.com/dashwise/dashboard-assistant/internal/infrastructure/llm/ollama"
	"github.com/dashwise/dashboard-assistant/internal/infrastructure/resilience"
	"github.com/dashwise/dashboard-assistant/internal/observability/logging"
	"github.com/dashwise/dashboard-assistant/internal/observability/metrics"
)

type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.ServerMetrics
	Assistant ports.ChatAssistant

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("dashboard-assistant", cfg.LogLevel)
	slog.SetDefault(logger)

	executorCfg := resilience.DefaultConfig()
	executorCfg.BreakerEnabled = cfg.BreakerEnabled
	executor := resilience.NewExecutor(executorCfg)

	catalog := grafana.NewWithOptions(cfg.GrafanaURL, cfg.GrafanaAPIKey, grafana.Options{
		CallTimeout: time.Duration(cfg.CatalogTimeoutSeconds) * time.Second,
		Executor:    executor,
	})

	model := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, ollama.Options{
		Executor: executor,
	})

	var publisher *natsevents.Publisher
	if cfg.NATSURL != "" {
		var err error
		publisher, err = natsevents.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsevents.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			catalog.Close()
			model.Close()
			return nil, fmt.Errorf("init turn event publisher: %w", err)
		}
	}

	var events ports.TurnEventPublisher
	if publisher != nil {
		events = publisher
	}

	assistant := usecase.NewAssistantUseCase(
		usecase.NewClassifier(model),
		catalog,
		usecase.NewFormatter(cfg.DisplayLimit),
		events,
		logger,
		domain.TurnLimits{
			MaxRounds:         cfg.MaxRounds,
			TurnTimeout:       time.Duration(cfg.TurnTimeoutSeconds) * time.Second,
			ClassifierTimeout: time.Duration(cfg.ClassifierTimeoutSeconds) * time.Second,
			CatalogTimeout:    time.Duration(cfg.CatalogTimeoutSeconds) * time.Second,
			DisplayLimit:      cfg.DisplayLimit,
		},
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics.NewServerMetrics("dashboard-assistant"),
		Assistant: assistant,

		closeFn: func() {
			if publisher != nil {
				publisher.Close()
			}
			model.Close()
			catalog.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
