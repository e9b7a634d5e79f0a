package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolioreport/cmd"
	"portfolioreport/internal/app"
	"portfolioreport/internal/logger"
	"portfolioreport/internal/util"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	_ "time/tzdata"
)

var flags cmd.Flags

var rootCmd = &cobra.Command{
	Use:           "portfolioreport",
	Short:         "Send the portfolio update once",
	Long:          `Reads the portfolio sheet, fetches quotes and insights for every position and delivers a single report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnce,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [cron expression]",
	Short: "Keep running and send the report on a cron schedule",
	Long:  `Runs the report on a cron schedule in the report timezone. The expression defaults to settings.schedule, or weekdays at 16:30.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSchedule,
}

const defaultSchedule = "30 16 * * 1-5"

func init() {
	rootCmd.PersistentFlags().BoolVar(&flags.TestMode, "test-mode", false, "print the report and skip delivery")
	rootCmd.PersistentFlags().StringVar(&flags.CsvPath, "csv", "", "read the portfolio from a local csv file instead of the sheet")
	rootCmd.PersistentFlags().StringVar(&flags.LogFile, "log-file", "", "file to append logs to")
	rootCmd.AddCommand(scheduleCmd)
}

func setup(ctx context.Context) (*cmd.Dependencies, context.Context, error) {
	secrets, err := util.LoadSecrets()
	if err != nil {
		return nil, ctx, fmt.Errorf("failed to load secrets: %w", err)
	}
	flags.Apply(secrets)

	deps, err := cmd.InitializeDependencies(ctx, secrets)
	if err != nil {
		return nil, ctx, err
	}
	return deps, logger.WithContext(ctx, deps.Logger), nil
}

func runOnce(command *cobra.Command, args []string) error {
	deps, ctx, err := setup(command.Context())
	if err != nil {
		return err
	}
	defer deps.Logger.Sync()

	return deps.ReportApp.Run(ctx)
}

func runSchedule(command *cobra.Command, args []string) error {
	deps, ctx, err := setup(command.Context())
	if err != nil {
		return err
	}
	log := deps.Logger
	defer log.Sync()

	schedule := deps.Secrets.Settings.Schedule
	if len(args) > 0 {
		schedule = args[0]
	}
	if schedule == "" {
		schedule = defaultSchedule
	}

	loc, err := time.LoadLocation(deps.Secrets.Settings.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %w", deps.Secrets.Settings.Timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(schedule, func() {
		err := deps.ReportApp.Run(ctx)
		if err != nil {
			log.Errorf("scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	c.Start()
	log.Infow("scheduler started", "schedule", schedule, "timezone", loc.String())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, app.ErrInputFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
