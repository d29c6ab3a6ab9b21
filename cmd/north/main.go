package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dukerupert/north/internal/config"
	"github.com/dukerupert/north/internal/database"
	"github.com/dukerupert/north/internal/engine"
	"github.com/dukerupert/north/internal/logging"
	"github.com/dukerupert/north/internal/store"
)

var (
	v       *viper.Viper = config.New()
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "north",
	Short: "North commitment contracts",
	Long: `North keeps promises to your future self: contracts with deadlines and
proof, focus sessions, a journal streak, and the XP and collectibles earned
along the way.`,
	SilenceUsage: true,
}

func main() {
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml or toml)")
	rootCmd.PersistentFlags().String("db", "north.db", "SQLite database path")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = v.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(contractsCmd())
	rootCmd.AddCommand(streakCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(vapidCmd())
}

// app is the set of components shared by every command that touches state.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	engine *engine.Engine
}

// openApp loads configuration and opens the database. The engine is started
// separately so serve can build its notifier from the database first.
func openApp() (*app, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, db: db}, nil
}

// startEngine loads the stored snapshot. opts may carry a notifier or change
// hook; location and logger come from config.
func (a *app) startEngine(ctx context.Context, opts engine.Options) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	opts.Location = loc
	opts.Logger = a.logger

	e, err := engine.Open(ctx, store.NewSnapshotStore(a.db), opts)
	if err != nil {
		return err
	}
	a.engine = e
	return nil
}

// openEngine is openApp plus startEngine for commands with no side channels.
func openEngine(ctx context.Context) (*app, error) {
	a, err := openApp()
	if err != nil {
		return nil, err
	}
	if err := a.startEngine(ctx, engine.Options{}); err != nil {
		a.db.Close()
		return nil, err
	}
	return a, nil
}

// close flushes the engine before the database goes away. It runs after the
// command context may already be cancelled, so it uses its own deadline.
func (a *app) close() {
	if a.engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.engine.Close(ctx); err != nil {
			a.logger.Error("final save", "error", err)
		}
	}
	a.db.Close()
}
