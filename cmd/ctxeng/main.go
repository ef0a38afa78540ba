// ctxeng is the demonstration harness for the context budget manager:
// capability selection, the durable scratchpad, and sandboxed code
// execution, each exposed as a CLI command for driving the core by
// hand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saishshinde15/context-engineering/internal/config"
	"github.com/saishshinde15/context-engineering/internal/engine"
	"github.com/saishshinde15/context-engineering/internal/logging"
	"github.com/saishshinde15/context-engineering/internal/notes"
	"github.com/saishshinde15/context-engineering/internal/sandbox"
)

var (
	workspace string
	verbose   bool

	logger *zap.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ctxeng",
	Short: "Context engineering harness: deferred capabilities, scratchpad offloading, sandboxed execution",
	Long: `ctxeng demonstrates three context engineering patterns for LLM agents:

  1. Deferred capability loading: only capabilities relevant to the
     current query are disclosed, on top of a mandatory baseline.
  2. Context offloading: a durable, categorized scratchpad keeps
     intermediate state outside the model's input window.
  3. Programmatic execution: bulk data is processed in a sandbox and
     only the compact result returns.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			if env := os.Getenv("CTXENG_WORKSPACE"); env != "" {
				workspace = env
			} else {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("determine workspace: %w", err)
				}
				workspace = wd
			}
		}

		var err error
		cfg, err = config.Load(workspace)
		if err != nil {
			return err
		}

		logger, err = logging.New(cfg.Logging.Debug || verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// buildEngine opens the configured store and wires the engine. The
// caller owns the returned engine and must Close it.
func buildEngine() (*engine.Engine, error) {
	var store notes.Store
	var err error
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		store, err = notes.OpenSQLite(cfg.Store.Path, logger)
	default:
		store, err = notes.OpenDocument(cfg.Store.Path, logger)
	}
	if err != nil {
		return nil, err
	}

	e, err := engine.New(engine.Options{
		Store:       store,
		Preferences: notes.NewPreferences(cfg.PreferencePath),
		Runner:      sandbox.NewRunner(logger, int64(cfg.Sandbox.MaxConcurrent)),
		Limits: sandbox.Limits{
			Timeout:     cfg.Sandbox.Timeout(),
			OutputLimit: cfg.Sandbox.OutputLimitBytes,
		},
		Logger: logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	// The catalog file is optional; without it only the built-in
	// capabilities are selectable.
	if _, statErr := os.Stat(cfg.CatalogPath); statErr == nil {
		if err := e.LoadCatalog(cfg.CatalogPath); err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "",
		"workspace directory (default: $CTXENG_WORKSPACE or the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(catalogCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
