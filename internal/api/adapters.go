package api

import (
	"context"

	"github.com/cinescope/cinescope/internal/logger"
	"github.com/cinescope/cinescope/internal/metadata"
	"github.com/cinescope/cinescope/internal/preferences"
)

// viewOptionsAdapter adapts preferences.Service to metadata.OptionsSource.
type viewOptionsAdapter struct {
	prefs *preferences.Service
}

func (a *viewOptionsAdapter) ViewOptions(ctx context.Context) (metadata.ViewOptions, error) {
	p, err := a.prefs.Get(ctx)
	if err != nil {
		return metadata.ViewOptions{}, err
	}
	return metadata.ViewOptions{
		Language:     p.Language,
		Region:       p.Region,
		IncludeAdult: p.IncludeAdult,
	}, nil
}

// serverLogsAdapter resolves the logs provider at request time, since it is
// set after the routes are registered.
type serverLogsAdapter struct {
	server *Server
}

func (a *serverLogsAdapter) RecentLogs(n int) []logger.LogEntry {
	if a.server.logsProvider == nil {
		return nil
	}
	return a.server.logsProvider.RecentLogs(n)
}

func (a *serverLogsAdapter) LogFilePath() string {
	if a.server.logsProvider == nil {
		return ""
	}
	return a.server.logsProvider.LogFilePath()
}
