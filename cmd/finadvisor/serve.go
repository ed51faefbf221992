package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"finadvisor/internal/backend"
	"finadvisor/internal/cli"
	apphttp "finadvisor/internal/http"
	"finadvisor/internal/identity"
	"finadvisor/internal/log"
	"finadvisor/internal/session"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// openSession creates the backend and a session bound to the anonymous
// identity stored in the data directory. The returned close func releases
// both.
func (a *app) openSession(ctx context.Context) (*session.Session, *backend.BackendResult, func(), error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	result, err := backend.NewFactory(a.logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, nil, err
	}

	prefs, err := session.LoadPreferences(a.cfg.PreferencesFile())
	if err != nil {
		a.logger.Warn("Ignoring unreadable preferences", log.FieldError, err.Error())
		prefs = &session.Preferences{}
	}

	sess := session.New(session.Config{
		Identity:       identity.NewAnonymous(a.cfg.IdentityFile()),
		Store:          result.Store,
		Preferences:    prefs,
		StatusDuration: a.cfg.StatusDuration,
		Logger:         a.logger,
	})
	closeAll := func() {
		sess.Close()
		if err := result.Close(); err != nil {
			a.logger.Error("Failed to close backend", log.FieldError, err.Error())
		}
	}
	return sess, result, closeAll, nil
}

func (a *app) serve(parent context.Context) error {
	ctx, cancel := cli.ShutdownContext(parent, a.logger)
	defer cancel()

	sess, result, closeAll, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:    ":" + a.cfg.Port,
		Session: sess,
		Ready:   result.Ready,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Sign-in failures are shown in the UI; the server keeps running.
		if err := sess.Start(gctx); err != nil {
			a.logger.Error("Session start failed", log.FieldError, err.Error())
		}
		return nil
	})
	g.Go(func() error {
		a.logger.Info("Starting finadvisor server",
			"port", a.cfg.Port,
			"backend", a.cfg.DataBackend,
			"events", result.EventsEnabled,
			"read_only", a.cfg.ReadOnly)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Server shutdown error", log.FieldError, err.Error())
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
