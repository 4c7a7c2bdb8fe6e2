package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/labreport-signatures/internal/common"
)

// app is filled in by the root PersistentPreRunE and shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	logJSON    bool
	provider   string
	outDir     string
	storeDSN   string

	cfg    *common.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "labcheck",
		Short: "Lab report entity extraction and signature validation",
		Long: `labcheck extracts entities from laboratory test report PDFs, detects human
signatures with a vision model and reconciles the two into one result per document.

Credentials come from the environment (a .env file is loaded when present) or a YAML
config file passed with --config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.load()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")
	pf.BoolVar(&a.logJSON, "log-json", false, "Log as JSON")
	pf.StringVar(&a.provider, "provider", "", "LLM provider: azure or gemini (default from LLM_PROVIDER)")
	pf.StringVar(&a.outDir, "out", "", "Output directory (default from OUTPUT_DIR or ./output)")
	pf.StringVar(&a.storeDSN, "store", "", "Results store DSN, sqlite://file.db or postgres://...")

	cmd.AddCommand(
		newProcessCmd(a),
		newDetectCmd(a),
		newExcelCmd(a),
		newSummaryCmd(a),
		newStoreCmd(a),
		newBatchCmd(a),
	)
	return cmd
}

// load builds the config from defaults, file, environment and flags, then the logger.
func (a *app) load() error {
	cfg, err := common.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.provider != "" {
		cfg.LLM.Provider = a.provider
	}
	if a.outDir != "" {
		cfg.Output.Dir = a.outDir
	}
	if a.storeDSN != "" {
		cfg.Store.DSN = a.storeDSN
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if a.logJSON {
		cfg.Log.Format = "json"
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Log)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(cfg common.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
