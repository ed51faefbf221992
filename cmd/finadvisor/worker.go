package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"finadvisor/internal/amqp"
	"finadvisor/internal/cli"
	"finadvisor/internal/log"
	"finadvisor/internal/sheets"
	gsheet "finadvisor/internal/sheets/google"
	memsheet "finadvisor/internal/sheets/memory"
	"finadvisor/internal/worker"
)

const statsInterval = time.Minute

func workerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Mirror transaction events into a spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWorker(cmd.Context())
		},
	}
}

// mirror picks the Google Sheets exporter when a spreadsheet is configured
// and an in-process mirror otherwise.
func (a *app) mirror(ctx context.Context) (sheets.TransactionMirror, error) {
	if !a.cfg.SheetsEnabled() {
		a.logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, using in-memory mirror")
		return memsheet.New(), nil
	}
	creds, err := a.cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   a.cfg.GoogleSpreadsheetID,
		SheetName:       a.cfg.GoogleSheetName,
		CredentialsJSON: creds,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Google Sheets client initialized", "spreadsheet_id", a.cfg.GoogleSpreadsheetID)
	return client, nil
}

func (a *app) runWorker(parent context.Context) error {
	if !a.cfg.AMQPEnabled() {
		return errors.New("worker requires AMQP_URL")
	}
	ctx, cancel := cli.ShutdownContext(parent, a.logger)
	defer cancel()

	mirror, err := a.mirror(ctx)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewSyncWorker(mirror, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := w.Run(gctx, client)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s := w.Stats()
				a.logger.Info("Sync worker stats",
					"appended", s.Appended, "deleted", s.Deleted, "dropped", s.Dropped, "failed", s.Failed)
			}
		}
	})

	if err := g.Wait(); err != nil {
		a.logger.Failure(ctx, "Worker stopped", log.OpConsume, err)
		return err
	}
	return nil
}
