package cli

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/dvcurate/internal/config"
	"github.com/dmitrijs2005/dvcurate/internal/journal"
	"github.com/dmitrijs2005/dvcurate/internal/logging"
)

// App carries the state shared by all commands.
type App struct {
	cfg    *config.Config
	logger logging.Logger

	configPath string
	envFile    string

	httpClient *http.Client
	stdin      *os.File
	stderr     io.Writer
}

// NewApp returns an App with default configuration bound to the process
// streams.
func NewApp() *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return &App{
		cfg:        cfg,
		logger:     logging.Nop(),
		envFile:    ".env",
		httpClient: &http.Client{},
		stdin:      os.Stdin,
		stderr:     os.Stderr,
	}
}

// Config returns the effective configuration once a command has started.
func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) openJournal(ctx context.Context) (*journal.Journal, error) {
	return journal.Open(ctx, a.cfg.JournalDSN)
}
