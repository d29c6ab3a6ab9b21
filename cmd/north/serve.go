package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/north/internal/backup"
	"github.com/dukerupert/north/internal/email"
	"github.com/dukerupert/north/internal/engine"
	"github.com/dukerupert/north/internal/notify"
	"github.com/dukerupert/north/internal/push"
	"github.com/dukerupert/north/internal/server"
	"github.com/dukerupert/north/internal/store"
	ws "github.com/dukerupert/north/internal/websocket"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, sweeper and scheduled backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			cfg := a.cfg
			logger := a.logger
			hub := ws.NewHub(logger)

			pushStore := store.NewPushStore(a.db)
			pushSvc := push.NewService(push.Config{
				VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
				VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
				Subscriber:      cfg.Push.Subscriber,
			})
			mailer := email.NewClient(cfg.Email.PostmarkToken, cfg.Email.From)

			err = a.startEngine(ctx, engine.Options{
				Notifier: notify.NewGateway(pushSvc, pushStore, mailer, logger),
				OnChange: hub.Publish,
			})
			if err != nil {
				return err
			}

			backupMgr := backup.NewManager(backupConfig(cfg), store.NewBackupStore(a.db), a.engine, func(s backup.Status) {
				hub.Broadcast(ws.Message{
					Type:   "backup_status",
					Entity: "backup",
					Action: string(s.State),
					Extra: map[string]any{
						"in_progress": s.InProgress,
						"error":       s.Error,
					},
				})
			}, logger)

			srv := server.New(server.Config{
				Engine:         a.engine,
				Hub:            hub,
				PushStore:      pushStore,
				PushService:    pushSvc,
				BackupManager:  backupMgr,
				APIToken:       cfg.APIToken,
				AllowedOrigins: cfg.AllowedOrigins,
				RateLimit:      cfg.RateLimit.Limit,
				RateWindow:     cfg.RateLimit.Window,
				Logger:         logger,
			})

			sweeper := engine.NewSweeper(a.engine, cfg.Sweep.Interval)
			sweeper.Start(ctx)
			defer sweeper.Stop()

			backupMgr.Start(ctx)
			defer backupMgr.Stop()

			go cleanupLoop(ctx, srv, backupMgr, cfg.Backup.Retention, logger)

			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv.Router(),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("north running", "addr", "http://localhost:"+cfg.Port)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("port", "8080", "listen port")
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

// cleanupLoop expires rate-limit windows and prunes old backups.
func cleanupLoop(ctx context.Context, srv *server.Server, backups *backup.Manager, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			srv.RateLimiter().Cleanup()
			if retention > 0 {
				if err := backups.Cleanup(ctx, time.Now().Add(-retention)); err != nil {
					logger.Error("backup cleanup", "error", err)
				}
			}
		}
	}
}
