package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinescope/cinescope/internal/config"
	"github.com/cinescope/cinescope/internal/scheduler"
)

const defaultProviderHealthCron = "*/15 * * * *"

// ProviderChecker tests the metadata providers and records their health.
type ProviderChecker interface {
	CheckProviders(ctx context.Context) map[string]error
}

// ProviderHealthTask handles scheduled health checks for metadata providers.
type ProviderHealthTask struct {
	checker ProviderChecker
	logger  zerolog.Logger
}

// NewProviderHealthTask creates a new provider health check task.
func NewProviderHealthTask(checker ProviderChecker, logger zerolog.Logger) *ProviderHealthTask {
	return &ProviderHealthTask{
		checker: checker,
		logger:  logger.With().Str("task", "provider-health").Logger(),
	}
}

// Run executes the provider health check. Individual provider failures are
// recorded in the health service and do not fail the task.
func (t *ProviderHealthTask) Run(ctx context.Context) error {
	failures := t.checker.CheckProviders(ctx)
	if len(failures) > 0 {
		t.logger.Warn().Int("failed", len(failures)).Msg("Provider health check found failures")
		return nil
	}
	t.logger.Info().Msg("Provider health check completed")
	return nil
}

// RegisterProviderHealthTask registers the provider health check with the scheduler.
func RegisterProviderHealthTask(sched *scheduler.Scheduler, checker ProviderChecker, cfg config.SchedulerConfig, logger zerolog.Logger) error {
	task := NewProviderHealthTask(checker, logger)

	cron := cfg.ProviderHealthCron
	if cron == "" {
		cron = defaultProviderHealthCron
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "provider-health",
		Name:        "Provider Health Check",
		Description: "Tests connectivity to the configured metadata providers",
		Cron:        cron,
		RunOnStart:  true,
		Timeout:     time.Minute,
		Func:        task.Run,
	})
}
