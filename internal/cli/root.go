package cli

import (
	"context"

	"github.com/dmitrijs2005/dvcurate/internal/config"
	"github.com/dmitrijs2005/dvcurate/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "dvcurate",
		Short:         "Upload curated archive files to a Dataverse dataset",
		Long:          "Uploads local files straight to the repository's object store and registers them with a dataset in one call.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.loadConfig(cmd); err != nil {
				return err
			}
			app.logger = logging.New(app.cfg.LogLevel, app.cfg.LogFormat, app.stderr)
			return app.cfg.Validate()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&app.configPath, "config", "c", "", "path to a JSON configuration file")
	pf.StringVar(&app.envFile, "env-file", app.envFile, "path to a .env file")
	pf.StringVar(&app.cfg.ServiceURL, "service-url", app.cfg.ServiceURL, "base URL of the Dataverse installation")
	pf.StringVar(&app.cfg.LogLevel, "log-level", app.cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&app.cfg.LogFormat, "log-format", app.cfg.LogFormat, "log format (text or json)")
	pf.StringVar(&app.cfg.JournalDSN, "journal", app.cfg.JournalDSN, "SQLite run journal; empty disables it")

	root.AddCommand(newUploadCmd(app))
	root.AddCommand(newHistoryCmd(app))
	root.AddCommand(newCleanupCmd(app))
	return root
}

// Execute runs the command line with args.
func Execute(ctx context.Context, app *App, args []string) error {
	root := NewRootCmd(app)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// loadConfig replaces the flag-bound defaults with defaults, JSON and
// environment, then re-applies the flags the user actually set.
func (a *App) loadConfig(cmd *cobra.Command) error {
	changed := map[string]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	loaded, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	*a.cfg = *loaded

	for name, value := range changed {
		if err := cmd.Flags().Set(name, value); err != nil {
			return err
		}
	}
	return nil
}
