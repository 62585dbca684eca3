package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/articles/internal/config"
	"github.com/roach88/articles/internal/record"
	"github.com/roach88/articles/internal/store"
)

// env is what every data command runs against.
type env struct {
	cfg       *config.Config
	articles  *store.Store
	blog      *store.Store
	formatter *OutputFormatter
}

// openEnv loads configuration, applies flag overrides, configures logging
// and opens the databases. Callers must Close the env.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.BlogDatabase != "" {
		cfg.BlogDatabase = opts.BlogDatabase
	}
	if !cmd.Flags().Changed("format") {
		// Execute reports errors in the same format.
		opts.Format = cfg.Format
	}

	setupLogging(cmd.ErrOrStderr(), cfg, opts.Verbose)

	e := &env{
		cfg: cfg,
		formatter: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}

	slog.Debug("opening database", "path", cfg.Database)
	e.articles, err = store.Open(cfg.Database, store.WithBusyTimeout(cfg.BusyTimeout))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	e.blog = e.articles
	if cfg.SeparateBlogDatabase() {
		slog.Debug("opening blog database", "path", cfg.BlogDatabasePath())
		e.blog, err = store.Open(cfg.BlogDatabasePath(), store.WithBusyTimeout(cfg.BusyTimeout))
		if err != nil {
			e.articles.Close()
			return nil, WrapExitError(ExitCommandError, "failed to open blog database", err)
		}
	}

	return e, nil
}

// Close closes every database the env opened.
func (e *env) Close() {
	if err := e.articles.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
	if e.blog != e.articles {
		if err := e.blog.Close(); err != nil {
			slog.Error("error closing blog database", "error", err)
		}
	}
}

// setupLogging installs the default slog logger on w.
func setupLogging(w io.Writer, cfg *config.Config, verbose bool) {
	logLevel, err := cfg.Level()
	if err != nil {
		logLevel = slog.LevelInfo
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// commandContext returns the command's context, or Background outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parsePK parses a primary key argument.
func parsePK(arg string) (int64, error) {
	pk, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid primary key %q", arg), err)
	}
	return pk, nil
}

// storageError maps an entity error to an exit code. Statement errors are
// programming errors and end the process with the driver's text.
func storageError(action string, err error) error {
	if record.IsStatementError(err) {
		return WrapExitError(ExitCommandError, "statement failed", err)
	}
	return WrapExitError(ExitCommandError, action+" failed", err)
}

// notFound reports expected absence.
func notFound(kind string, pk int64) error {
	return NewExitError(ExitFailure, fmt.Sprintf("%s %d not found", kind, pk))
}
