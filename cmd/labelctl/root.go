package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labelbridge/backend/internal/bootstrap"
	"github.com/labelbridge/backend/internal/infrastructure/config"
	"github.com/labelbridge/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli carries the state shared by every subcommand
type cli struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "labelctl",
		Short: "Prepare and print 100x150mm shipping labels",
		Long: `labelctl normalizes carrier shipping labels to 100x150mm at 300 DPI and
sends them to the printers of this machine.

It works on the same database and label store as the HTTP service, so labels
prepared here can be printed from the API and the other way round.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return c.load()
		},
	}
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./config.toml, ./config/config.toml, /etc/labelbridge/config.toml)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newPrepareCmd(c),
		newProfilesCmd(c),
		newPrintCmd(c),
		newPrintersCmd(c),
		newJobsCmd(c),
		newMigrateCmd(c),
		newCleanupCmd(c),
		newTokenCmd(c),
	)
	return cmd
}

func (c *cli) load() error {
	var err error
	if c.configPath != "" {
		c.cfg, err = config.LoadFile(c.configPath)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	c.log, err = logger.New(&logger.Config{
		Level:      c.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// withApp builds the application for the duration of fn
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			c.log.Warn("Error releasing resources", zap.Error(err))
		}
	}()
	return fn(ctx, app)
}

func parseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
