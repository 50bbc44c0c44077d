package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/dvcurate/internal/dataverse"
	"github.com/dmitrijs2005/dvcurate/internal/journal"
	"github.com/dmitrijs2005/dvcurate/internal/manifest"
	"github.com/dmitrijs2005/dvcurate/internal/metrics"
	"github.com/dmitrijs2005/dvcurate/internal/models"
	"github.com/dmitrijs2005/dvcurate/internal/netx"
	"github.com/dmitrijs2005/dvcurate/internal/upload"
	"github.com/spf13/cobra"
)

const journalWriteTimeout = 10 * time.Second

// ErrIncomplete is returned when a batch had failed files or was not
// registered.
var ErrIncomplete = errors.New("upload incomplete")

func newUploadCmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the files of a manifest and register them with the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runUpload(cmd, output)
		},
	}

	f := cmd.Flags()
	f.StringVar(&app.cfg.APIKey, "api-key", app.cfg.APIKey, "Dataverse API key (prompted when empty)")
	f.StringVarP(&app.cfg.DatasetPID, "dataset", "d", app.cfg.DatasetPID, "dataset persistent identifier, e.g. doi:10.70122/FK2/ABCDEF")
	f.StringVar(&app.cfg.DataDirectory, "dir", app.cfg.DataDirectory, "directory holding the files")
	f.StringVarP(&app.cfg.ManifestPath, "manifest", "m", app.cfg.ManifestPath, "manifest file (json, yaml or csv)")
	f.IntVar(&app.cfg.Retries, "retries", app.cfg.Retries, "upload ticket attempts per file")
	f.DurationVar(&app.cfg.RetryDelay, "retry-delay", app.cfg.RetryDelay, "pause between ticket attempts")
	f.DurationVar(&app.cfg.RequestTimeout, "request-timeout", app.cfg.RequestTimeout, "timeout of each repository request")
	f.DurationVar(&app.cfg.TransferTimeout, "transfer-timeout", app.cfg.TransferTimeout, "timeout of each object store upload")
	f.StringVar(&app.cfg.MetricsTextfile, "metrics-textfile", app.cfg.MetricsTextfile, "write Prometheus metrics to this file after the run")
	f.StringVarP(&output, "output", "o", "text", "summary format (text or json)")
	return cmd
}

func (a *App) runUpload(cmd *cobra.Command, output string) error {
	ctx := cmd.Context()
	cfg := a.cfg

	if output != "text" && output != "json" {
		return fmt.Errorf("unknown output format %q", output)
	}

	if cfg.APIKey == "" {
		key, err := promptAPIKey(int(a.stdin.Fd()), a.stderr)
		if err != nil {
			return err
		}
		cfg.APIKey = key
	}
	if err := cfg.ValidateUpload(); err != nil {
		return err
	}

	records, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}

	var j *journal.Journal
	if cfg.JournalDSN != "" {
		if j, err = a.openJournal(ctx); err != nil {
			return err
		}
		defer j.Close()
	}

	m := metrics.New()
	client := dataverse.NewHTTPClient(cfg.ServiceURL, cfg.APIKey, a.httpClient, cfg.RequestTimeout, a.logger)
	svc := upload.NewService(client, netx.NewPutter(a.httpClient), a.logger,
		upload.WithRetries(cfg.Retries),
		upload.WithRetryDelay(cfg.RetryDelay),
		upload.WithTransferTimeout(cfg.TransferTimeout),
		upload.WithRecorder(m),
	)

	started := time.Now()
	res, err := svc.UploadBatch(ctx, cfg.DatasetPID, cfg.DataDirectory, records)
	if err != nil {
		return err
	}

	if j != nil {
		// An interrupted run still has to leave its orphans for cleanup.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
		err := j.RecordBatch(recordCtx, res, cfg.DataDirectory, started, time.Now())
		cancel()
		if err != nil {
			a.logger.Error(ctx, "failed to record run in journal", "run_id", res.RunID, "err", err)
		}
	}
	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			a.logger.Error(ctx, "failed to write metrics", "path", cfg.MetricsTextfile, "err", err)
		}
	}

	if err := printSummary(cmd.OutOrStdout(), res, output); err != nil {
		return err
	}
	if !res.Succeeded || !res.Finalized {
		return ErrIncomplete
	}
	return nil
}

type summary struct {
	RunID    string   `json:"runId"`
	Upload   bool     `json:"upload"`
	Errors   []string `json:"errors"`
	Finalize bool     `json:"finalize"`
	Files    int      `json:"files"`
	Uploaded int      `json:"uploaded"`
	Bytes    int64    `json:"bytes"`
}

func printSummary(w io.Writer, res models.BatchResult, output string) error {
	s := summary{
		RunID:    res.RunID,
		Upload:   res.Succeeded,
		Errors:   res.Errors,
		Finalize: res.Finalized,
		Files:    len(res.Outcomes),
		Uploaded: len(res.Descriptors),
		Bytes:    res.BytesUploaded(),
	}

	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintf(w, "run %s: uploaded %d of %d files (%d bytes), finalized: %t\n",
		s.RunID, s.Uploaded, s.Files, s.Bytes, s.Finalize)
	for _, msg := range s.Errors {
		fmt.Fprintln(w, msg)
	}
	if res.FinalizeErr != nil {
		fmt.Fprintf(w, "finalize error: %v\n", res.FinalizeErr)
	}
	return nil
}
