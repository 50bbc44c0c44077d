package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dvcurate/internal/storage"
	"github.com/spf13/cobra"
)

func newCleanupCmd(app *App) *cobra.Command {
	var (
		runID  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stored objects of runs whose registration failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runCleanup(cmd, runID, dryRun)
		},
	}

	f := cmd.Flags()
	f.StringVar(&runID, "run", "", "limit cleanup to one run")
	f.BoolVar(&dryRun, "dry-run", false, "list the objects without deleting them")
	f.StringVar(&app.cfg.S3Region, "s3-region", app.cfg.S3Region, "object store region")
	f.StringVar(&app.cfg.S3Endpoint, "s3-endpoint", app.cfg.S3Endpoint, "object store endpoint for S3-compatible services")
	f.BoolVar(&app.cfg.S3UsePathStyle, "s3-path-style", app.cfg.S3UsePathStyle, "use path-style bucket addressing")
	return cmd
}

func (a *App) runCleanup(cmd *cobra.Command, runID string, dryRun bool) error {
	if a.cfg.JournalDSN == "" {
		return errors.New("journal is disabled")
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	orphans, err := j.Orphans(ctx, runID)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		fmt.Fprintln(out, "Nothing to clean up")
		return nil
	}

	if dryRun {
		for _, o := range orphans {
			fmt.Fprintf(out, "%s\t%s\t%s\n", o.RunID, o.StorageIdentifier, o.FileName)
		}
		return nil
	}

	client, err := storage.NewS3Client(ctx, storage.Settings{
		Region:       a.cfg.S3Region,
		Endpoint:     a.cfg.S3Endpoint,
		AccessKey:    a.cfg.S3AccessKey,
		SecretKey:    a.cfg.S3SecretKey,
		UsePathStyle: a.cfg.S3UsePathStyle,
	})
	if err != nil {
		return err
	}
	purger := storage.NewPurger(client, a.logger)

	var purged, failed int
	for _, o := range orphans {
		if err := purger.Purge(ctx, o.DatasetPID, o.StorageIdentifier); err != nil {
			a.logger.Warn(ctx, "failed to purge object", "run_id", o.RunID, "storage_identifier", o.StorageIdentifier, "err", err)
			failed++
			continue
		}
		if err := j.MarkPurged(ctx, o.RunID, o.StorageIdentifier, time.Now()); err != nil {
			return err
		}
		purged++
	}

	fmt.Fprintf(out, "purged %d objects, %d failed\n", purged, failed)
	if failed > 0 {
		return fmt.Errorf("%d objects could not be purged", failed)
	}
	return nil
}
