package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/CrazyNoDota/nomadway-sub000/internal/api"
	"github.com/CrazyNoDota/nomadway-sub000/internal/collection"
	"github.com/CrazyNoDota/nomadway-sub000/internal/config"
	"github.com/CrazyNoDota/nomadway-sub000/internal/keystore"
	"github.com/CrazyNoDota/nomadway-sub000/internal/output"
	"github.com/CrazyNoDota/nomadway-sub000/internal/session"
	"github.com/CrazyNoDota/nomadway-sub000/internal/store"
)

var (
	version string

	flagJSON    bool
	flagVerbose bool
	flagServer  string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "nomadway",
	Short: "Travel discovery client for the Nomadway platform",
	Long: `nomadway - plan trips across attractions, tours and routes.

Your cart and favorites live on this device while you browse anonymously
and merge into your account the first time you sign in.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "override the API server URL")

	rootCmd.AddGroup(
		&cobra.Group{ID: "account", Title: "Account Commands:"},
		&cobra.Group{ID: "planning", Title: "Planning Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

// fail reports err in the active output mode and returns it so RunE
// propagates a non-zero exit. Plain mode prints the styled error line;
// JSON mode emits a structured error object with a stable code.
func fail(fallback string, err error) error {
	if flagJSON {
		output.JSONError(errorCode(fallback, err), err.Error())
	} else {
		output.Error("%v", err)
	}
	return err
}

// errorCode maps err onto the structured error codes, falling back to the
// caller-supplied code when no known category matches.
func errorCode(fallback string, err error) string {
	var verr *api.ValidationError
	switch {
	case errors.Is(err, collection.ErrLoginRequired):
		return output.ErrCodeLoginRequired
	case errors.Is(err, api.ErrSessionExpired):
		return output.ErrCodeSessionExpired
	case errors.As(err, &verr):
		return output.ErrCodeValidation
	case api.IsTransient(err):
		return output.ErrCodeNetwork
	}
	return fallback
}

// app bundles the process-wide wiring: config, stores, session and the two
// collections. Commands build one per invocation via openApp.
type app struct {
	cfg  *config.Config
	db   *store.DB
	sess *session.Manager
	cart *collection.Cart
	favs *collection.Favorites
	log  *slog.Logger
}

// openApp resolves config, opens local storage and the keystore, restores
// the session and loads both collections. Callers must Close.
func openApp(ctx context.Context) (*app, error) {
	dir, err := config.DefaultDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	keys, err := keystore.Open(cfg.DataDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open keystore: %w", err)
	}

	nav := session.NavigatorFunc(func() {
		if !flagJSON {
			output.Warning("Sign in first: nomadway auth login")
		}
	})
	sess := session.NewManager(api.New(cfg.ServerURL), keys, nav, log)

	a := &app{
		cfg:  cfg,
		db:   db,
		sess: sess,
		cart: collection.NewCart(sess, db, log),
		favs: collection.NewFavorites(sess, db, log),
		log:  log,
	}

	sess.Bootstrap(ctx)
	if err := a.cart.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.favs.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
