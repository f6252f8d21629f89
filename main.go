package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskera/pkg/config"
)

var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskera",
		Short: "Tasks with Google Calendar sync and reminders",
		Long: `taskera keeps a local task list, mirrors scheduled tasks into a Google
Calendar and reminds you before they are due.

Run "taskera auth" once to connect a Google account, "taskera worker" to
deliver reminders and "taskera serve" for the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newAuthCmd(),
		newConfigCmd(),
		newAddCmd(),
		newEditCmd(),
		newDoneCmd(true),
		newDoneCmd(false),
		newDeleteCmd(),
		newListCmd(),
		newDatesCmd(),
		newPlanCmd(),
		newDashboardCmd(),
		newVoiceCmd(),
		newSettingsCmd(),
		newWorkerCmd(),
		newServeCmd(),
	)
	return root
}

func setupLogging() error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	level := log.InfoLevel
	if cfg, err := config.Load(); err == nil && cfg.LogLevel != "" {
		parsed, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
		}
		level = parsed
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	return nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
