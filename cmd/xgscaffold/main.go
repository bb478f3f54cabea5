package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/xgscaffold"
	"github.com/tordrt/xgscaffold/config"
	"github.com/tordrt/xgscaffold/internal/formatter"
	"github.com/tordrt/xgscaffold/internal/logging"
)

var (
	dsn            string
	configFile     string
	envFile        string
	outputFile     string
	outputDir      string
	tables         string
	excludeTables  string
	format         string
	serverVersion  string
	database       string
	splitThreshold int
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "xgscaffold",
	Short: "Reverse-engineer an XG or MariaDB schema",
	Long: `xgscaffold introspects an XG or MariaDB database and writes its tables, columns,
keys, indexes, foreign keys and sequences in a compact format, as a scaffolded entity
model or as DDL for a chosen server version.

The connection string is taken from --dsn, or from XG_DSN / DATABASE_URL (a .env
file in the working directory is loaded first).

Examples:
  xgscaffold --dsn 'root:pw@tcp(localhost:3306)/shop'
  xgscaffold -f markdown -d docs/schema --exclude schema_migrations
  xgscaffold -f sql --server-version 10.6.4-mariadb -o schema.sql
`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&dsn, "dsn", "", "Connection string (default: $XG_DSN or $DATABASE_URL)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML options file")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "Environment file to load (default: .env)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	rootCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	rootCmd.Flags().StringVarP(&excludeTables, "exclude", "x", "", "Tables to skip (comma-separated, optional)")
	rootCmd.Flags().StringVarP(&format, "format", "f", formatter.FormatText,
		"Output format: "+strings.Join(formatter.Formats, ", "))
	rootCmd.Flags().StringVar(&serverVersion, "server-version", "", "Server version, e.g. 8.0.31-xg or 10.6.4-mariadb (default: detect)")
	rootCmd.Flags().StringVar(&database, "database", "", "Database to introspect (default: the one in the connection string)")
	rootCmd.Flags().IntVar(&splitThreshold, "split-threshold", 0, "Split into multiple files when table count exceeds this (requires --output-dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(capabilitiesCmd, detectCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	options, err := loadOptions()
	if err != nil {
		return err
	}

	connStr, err := resolveDSN(dsn, options)
	if err != nil {
		return err
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	model, err := xgscaffold.InspectDatabase(ctx, connStr, &xgscaffold.Options{Config: options, Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to inspect database: %w", err)
	}
	if len(model.Tables) == 0 {
		warn(os.Stderr, "no tables found in database %s\n", model.DatabaseName)
	}

	sv, err := options.ParsedServerVersion()
	if err != nil {
		return err
	}
	outOpts := &xgscaffold.OutputOptions{Format: format, ServerVersion: sv, Logger: logger}

	// Multi-file output
	if shouldSplit(outputDir, splitThreshold, len(model.Tables)) {
		outOpts.OutputDir = outputDir
		if err := xgscaffold.FormatModel(model, outOpts); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		success(os.Stderr, "wrote %d tables to %s\n", len(model.Tables), outputDir)
		return nil
	}

	// Single-file output
	var writer io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				warn(os.Stderr, "failed to close output file: %v\n", err)
			}
		}()
		writer = f
	}
	outOpts.Writer = writer

	if err := xgscaffold.FormatModel(model, outOpts); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if outputFile != "" {
		logger.Debug("output written", zap.String("file", outputFile))
	}
	return nil
}

// loadOptions reads the options file, if any, and applies the flags on
// top of it.
func loadOptions() (*config.Options, error) {
	options := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		options = loaded
	}
	applyFlags(options)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func applyFlags(options *config.Options) {
	if serverVersion != "" {
		options.ServerVersion = serverVersion
	}
	if database != "" {
		options.Database = database
	}
	if list := parseTableList(tables); list != nil {
		options.Tables = list
	}
	if list := parseTableList(excludeTables); list != nil {
		options.ExcludeTables = append(options.ExcludeTables, list...)
	}
}

// resolveDSN prefers the flag, then the options file, then the environment.
func resolveDSN(flag string, options *config.Options) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if options.DSN != "" {
		return options.DSN, nil
	}

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	fromEnv, err := config.LoadEnv(files...)
	if err != nil {
		return "", err
	}
	if fromEnv == "" {
		return "", fmt.Errorf("no connection string: use --dsn or set %s", strings.Join(config.DSNEnvVars, " or "))
	}
	return fromEnv, nil
}

func parseTableList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var list []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			list = append(list, t)
		}
	}
	return list
}

func shouldSplit(dir string, threshold, tableCount int) bool {
	return dir != "" && (threshold == 0 || tableCount > threshold)
}

func warn(w io.Writer, format string, args ...any) {
	_, _ = color.New(color.FgYellow, color.Bold).Fprint(w, "warning: ")
	_, _ = fmt.Fprintf(w, format, args...)
}

func success(w io.Writer, format string, args ...any) {
	_, _ = color.New(color.FgGreen).Fprintf(w, format, args...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
