package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinescope/cinescope/internal/health"
	"github.com/cinescope/cinescope/internal/scheduler"
)

const (
	databaseHealthID   = "sqlite"
	databaseHealthCron = "*/5 * * * *"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseHealthTask pings the database and records the result.
type DatabaseHealthTask struct {
	db     Pinger
	health *health.Service
	logger zerolog.Logger
}

// NewDatabaseHealthTask creates the task and registers the database with the health service.
func NewDatabaseHealthTask(db Pinger, healthSvc *health.Service, logger zerolog.Logger) *DatabaseHealthTask {
	healthSvc.Register(health.CategoryDatabase, databaseHealthID, "SQLite", "")
	return &DatabaseHealthTask{
		db:     db,
		health: healthSvc,
		logger: logger.With().Str("task", "database-health").Logger(),
	}
}

// Run executes the database health check.
func (t *DatabaseHealthTask) Run(ctx context.Context) error {
	if err := t.db.PingContext(ctx); err != nil {
		t.health.Fail(health.CategoryDatabase, databaseHealthID, err)
		return err
	}
	t.health.Recover(health.CategoryDatabase, databaseHealthID)
	t.logger.Debug().Msg("Database health check passed")
	return nil
}

// RegisterDatabaseHealthTask registers the database health check with the scheduler.
func RegisterDatabaseHealthTask(sched *scheduler.Scheduler, db Pinger, healthSvc *health.Service, logger zerolog.Logger) error {
	task := NewDatabaseHealthTask(db, healthSvc, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "database-health",
		Name:        "Database Health Check",
		Description: "Verifies the settings database is reachable",
		Cron:        databaseHealthCron,
		Timeout:     10 * time.Second,
		Func:        task.Run,
	})
}
