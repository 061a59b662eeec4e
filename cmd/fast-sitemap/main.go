package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sriram-PR/fast-sitemap/pkg/config"
	applog "github.com/Sriram-PR/fast-sitemap/pkg/log"
	"github.com/Sriram-PR/fast-sitemap/pkg/models"
	"github.com/Sriram-PR/fast-sitemap/pkg/orchestrate"
	"github.com/Sriram-PR/fast-sitemap/pkg/storage"
	"github.com/Sriram-PR/fast-sitemap/pkg/watch"
)

const version = "0.4.0"

// Exit codes
const (
	exitOK      = 0
	exitError   = 1
	exitPartial = 2 // Some sources failed but the index was written
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	exitCode := exitOK
	var configFile, logLevel string

	rootCmd := &cobra.Command{
		Use:           "fast-sitemap",
		Short:         "Generate sitemap files and a sitemap index from configured sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	var sourceNames []string
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sitemaps once and rebuild the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = executeGenerate(configFile, logLevel, sourceNames, stderr)
			return nil
		},
	}
	generateCmd.Flags().StringSliceVar(&sourceNames, "source", nil, "Generate only these sources (repeatable or comma-separated)")

	var intervalStr string
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate sitemaps on a fixed interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = executeWatch(configFile, logLevel, intervalStr, sourceNames, stderr)
			return nil
		},
	}
	watchCmd.Flags().StringVar(&intervalStr, "interval", "24h", "Generation interval (e.g., 30m, 1h, 24h, 7d)")
	watchCmd.Flags().StringSliceVar(&sourceNames, "source", nil, "Generate only these sources")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = doValidate(configFile, stdout, stderr)
			return nil
		},
	}

	var limit int
	var jsonl bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent generation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = executeStatus(configFile, logLevel, limit, jsonl, stdout, stderr)
			return nil
		},
	}
	statusCmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")
	statusCmd.Flags().BoolVar(&jsonl, "jsonl", false, "Export the full run history as JSON lines")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "fast-sitemap %s\n", version)
		},
	}

	rootCmd.AddCommand(generateCmd, watchCmd, validateCmd, statusCmd, versionCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitCode
}

// newLogger builds the CLI logger, warning on an unknown level
func newLogger(level string, out io.Writer) *logrus.Logger {
	log, err := applog.NewLogger(out, level)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", level, err)
	}
	return log
}

// loadConfig loads and validates the config file, logging warnings
func loadConfig(path string, log *logrus.Entry) (*config.AppConfig, error) {
	appCfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		return nil, err
	}
	return appCfg, nil
}

// signalContext cancels on SIGINT/SIGTERM
func signalContext(log *logrus.Entry) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func openStore(appCfg *config.AppConfig, log *logrus.Entry) storage.RunStore {
	store, err := storage.NewBadgerStore(appCfg.StateDir, log.WithField("component", "storage"))
	if err != nil {
		log.Errorf("Run history unavailable: %v", err)
		return nil
	}
	return store
}

func closeStore(store storage.RunStore, log *logrus.Entry) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		log.Errorf("Failed to close run history: %v", err)
	}
}

// runExitCode maps a finished run onto the process exit code
func runExitCode(record *models.RunRecord, err error) int {
	switch {
	case err != nil || record == nil:
		return exitError
	case record.Status == models.RunStatusPartial:
		return exitPartial
	}
	return exitOK
}

// executeGenerate performs one generation run
func executeGenerate(configFile, logLevel string, sourceNames []string, stderr io.Writer) int {
	log := logrus.NewEntry(newLogger(logLevel, stderr))

	appCfg, err := loadConfig(configFile, log)
	if err != nil {
		log.Errorf("Config error: %v", err)
		return exitError
	}
	if err := orchestrate.ValidateSourceNames(appCfg, sourceNames); err != nil {
		log.Error(err)
		return exitError
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	store := openStore(appCfg, log)
	defer closeStore(store, log)

	record, err := orchestrate.NewRunner(appCfg, store, log).Run(ctx, sourceNames)
	return runExitCode(record, err)
}

// executeWatch runs generation on an interval until interrupted
func executeWatch(configFile, logLevel, intervalStr string, sourceNames []string, stderr io.Writer) int {
	log := logrus.NewEntry(newLogger(logLevel, stderr))

	interval, err := watch.ParseInterval(intervalStr)
	if err != nil {
		log.Errorf("Invalid interval: %v", err)
		return exitError
	}

	appCfg, err := loadConfig(configFile, log)
	if err != nil {
		log.Errorf("Config error: %v", err)
		return exitError
	}
	if err := orchestrate.ValidateSourceNames(appCfg, sourceNames); err != nil {
		log.Error(err)
		return exitError
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	store := openStore(appCfg, log)
	defer closeStore(store, log)
	if store != nil {
		go store.RunGC(ctx, 10*time.Minute)
	}

	runner := orchestrate.NewRunner(appCfg, store, log)
	scheduler := watch.NewScheduler(interval, func(ctx context.Context) (*models.RunRecord, error) {
		return runner.Run(ctx, sourceNames)
	}, log)

	if err := scheduler.Run(ctx); err != nil {
		log.Errorf("Watch failed: %v", err)
		return exitError
	}
	status := scheduler.GetStatus()
	log.Infof("Watch stopped after %d runs (%d failed)", status.Runs, status.Failed)
	return exitOK
}

// doValidate loads and validates the config, writing findings to the given writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitError
	}

	for _, src := range appCfg.Sources {
		fmt.Fprintf(stdout, "OK: [%s] %s, max %d URLs per file\n",
			src.Name, src.Type, config.GetEffectiveMaxURLsPerFile(src, *appCfg))
	}
	fmt.Fprintf(stdout, "Index: %s/%s.xml (%s)\n", appCfg.Domain, appCfg.IndexSitemapName, appCfg.IndexStyle)
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return exitOK
}

// executeStatus opens the run history and prints it
func executeStatus(configFile, logLevel string, limit int, jsonl bool, stdout, stderr io.Writer) int {
	log := logrus.NewEntry(newLogger(logLevel, stderr))
	appCfg, err := loadConfig(configFile, log)
	if err != nil {
		log.Errorf("Config error: %v", err)
		return exitError
	}

	store, err := storage.NewBadgerStore(appCfg.StateDir, log.WithField("component", "storage"))
	if err != nil {
		log.Errorf("Open run history: %v", err)
		return exitError
	}
	defer closeStore(store, log)

	if jsonl {
		if _, err := store.ExportRuns(context.Background(), stdout); err != nil {
			log.Errorf("Export run history: %v", err)
			return exitError
		}
		return exitOK
	}
	return doStatus(store, limit, stdout, stderr)
}

// doStatus prints the most recent runs as a table
func doStatus(store storage.RunStore, limit int, stdout, stderr io.Writer) int {
	runs, err := store.ListRuns(limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs recorded yet.")
		return exitOK
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tURLS\tFILES\tCHANGED\tPINGED\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%v\t%v\t%v\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			r.TotalURLs(),
			r.Entries,
			r.Changed,
			r.Pinged,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			failureSummary(r),
		)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

// failureSummary names the run error or the failed sources
func failureSummary(r models.RunRecord) string {
	if r.ErrorType != "" {
		return r.ErrorType
	}
	var failed []string
	for _, s := range r.Sources {
		if s.Status == models.RunStatusFailure {
			failed = append(failed, s.Name+":"+s.ErrorType)
		}
	}
	if len(failed) == 0 {
		return "-"
	}
	return strings.Join(failed, ",")
}
