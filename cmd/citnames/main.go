// Command citnames turns an intercept execution report into a
// compilation database (spec.md §4.3): it replays every recorded
// execution through the compiler-flag recognition engine, filters and
// merges the result against any prior compile_commands.json, and
// writes the final file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/5c4lar/Bear/internal/archive"
	"github.com/5c4lar/Bear/internal/buildconfig"
	"github.com/5c4lar/Bear/internal/buildlog"
	"github.com/5c4lar/Bear/internal/compiledb"
	"github.com/5c4lar/Bear/internal/metrics"
	"github.com/5c4lar/Bear/internal/report"
	"github.com/5c4lar/Bear/internal/semantic"
)

type citnamesFlags struct {
	configPath      string
	input           string
	output          string
	append          bool
	strict          bool
	compilerPaths   []string
	include         []string
	exclude         []string
	commandAsString bool
	dropOutput      bool
	archiveDSN      string
	metricsAddr     string
}

func main() {
	flags := &citnamesFlags{}
	root := newRootCommand(flags)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "citnames:", err)
		os.Exit(1)
	}
}

func newRootCommand(flags *citnamesFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "citnames [flags]",
		Short: "Turn an execution report into a compilation database",
		Long: `citnames reads the execution report intercept wrote, recognises
which executions were compiler invocations, and projects them into
compile_commands.json.

Example:
  citnames --input report.json --output compile_commands.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCitnames(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a buildconfig YAML file (optional)")
	cmd.Flags().StringVarP(&flags.input, "input", "i", "execution_report.json", "execution report path")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "compile_commands.json", "compilation database path")
	cmd.Flags().BoolVar(&flags.append, "append", false, "merge with any existing output file instead of overwriting it")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "only accept entries whose source file exists on disk")
	cmd.Flags().StringSliceVar(&flags.compilerPaths, "compiler", nil, "extra absolute compiler path to recognise (repeatable)")
	cmd.Flags().StringSliceVar(&flags.include, "include", nil, "restrict strict filtering to paths under this root (repeatable)")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "exclude paths under this root from strict filtering (repeatable)")
	cmd.Flags().BoolVar(&flags.commandAsString, "command-as-string", false, "write a shell-quoted \"command\" field instead of \"arguments\"")
	cmd.Flags().BoolVar(&flags.dropOutput, "drop-output-field", false, "omit the \"output\" field from every entry")
	cmd.Flags().StringVar(&flags.archiveDSN, "archive-dsn", "", "archive the final entries into this SQL store (sqlite://... or postgres://...)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address")

	return cmd
}

func runCitnames(flags *citnamesFlags) error {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.strict {
		cfg.Semantic.Strict = true
	}
	if len(flags.compilerPaths) > 0 {
		cfg.Semantic.CompilerPaths = append(cfg.Semantic.CompilerPaths, flags.compilerPaths...)
	}
	if flags.archiveDSN != "" {
		cfg.Archive.Enabled = true
		cfg.Archive.DSN = flags.archiveDSN
	}

	if err := buildlog.Init(buildlog.LogConfig{
		Level:      cfg.Log.Level,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}); err != nil {
		return fmt.Errorf("citnames: init logger: %w", err)
	}
	logger := buildlog.Global()
	defer logger.Sync()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Warn("metrics registration failed", zap.Error(err))
	}
	if flags.metricsAddr != "" {
		serveMetrics(logger, flags.metricsAddr)
	}

	rep, err := loadReport(flags.input)
	if err != nil {
		return fmt.Errorf("citnames: %w", err)
	}

	chain := semantic.Chain{semantic.GnuCompilerCollection{Paths: cfg.Semantic.CompilerPaths}}
	entries := recognizeAll(logger, chain, rep)

	filter := compiledb.Filter{
		Mode:    filterMode(cfg.Semantic.Strict),
		Include: flags.include,
		Exclude: flags.exclude,
	}
	entries = filter.Apply(entries)

	if flags.append {
		prior, err := loadExisting(flags.output)
		if err != nil {
			return fmt.Errorf("citnames: %w", err)
		}
		entries = compiledb.Merge(entries, prior)
	}

	format := compiledb.DefaultFormat()
	format.CommandAsArray = !flags.commandAsString
	format.DropOutputField = flags.dropOutput

	data, err := compiledb.ToJSON(entries, format)
	if err != nil {
		return fmt.Errorf("citnames: render compilation database: %w", err)
	}
	if err := writeAtomic(flags.output, data); err != nil {
		return fmt.Errorf("citnames: write %s: %w", flags.output, err)
	}
	metrics.SetEntriesEmitted(len(entries))
	logger.Info("compilation database written",
		zap.String("path", flags.output), zap.Int("entries", len(entries)))

	if cfg.Archive.Enabled {
		if err := archiveEntries(cfg.Archive.DSN, entries); err != nil {
			logger.Error("archiving entries failed", zap.Error(err))
		}
	}

	return nil
}

func loadConfig(configPath string) (*buildconfig.Config, error) {
	if configPath == "" {
		cfg := buildconfig.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("citnames: default config invalid: %w", err)
		}
		return cfg, nil
	}
	cfg, err := buildconfig.LoadAndValidate(configPath)
	if err != nil {
		return nil, fmt.Errorf("citnames: load config: %w", err)
	}
	return cfg, nil
}

func serveMetrics(logger *buildlog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

func loadReport(path string) (report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.Report{}, fmt.Errorf("read execution report: %w", err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return report.Report{}, fmt.Errorf("decode execution report: %w", err)
	}
	return rep, nil
}

// recognizeAll replays every closed execution through chain, skipping
// runs that never stopped (the build was killed mid-compile) and
// logging, but not failing on, a recogniser that matched the program
// but could not parse its arguments (spec.md §7 per-execution errors).
func recognizeAll(logger *buildlog.Logger, chain semantic.Chain, rep report.Report) compiledb.Entries {
	var out compiledb.Entries
	for _, ex := range rep.Executions {
		if !ex.Run.Closed() {
			metrics.IncEntryFiltered("unclosed")
			continue
		}

		found, err := chain.Recognize(ex.Command)
		if err != nil {
			logger.Warn("recognizer failed", zap.String("program", ex.Command.Program), zap.Error(err))
			metrics.IncEntryFiltered("recognize_error")
			continue
		}
		if len(found) == 0 {
			metrics.IncEntryFiltered("not_recognized")
			continue
		}

		for _, e := range found {
			metrics.IncEntryRecognized("gcc")
			out = append(out, e.MakeAbsolute())
		}
	}
	return out
}

func filterMode(strict bool) compiledb.Mode {
	if strict {
		return compiledb.Strict
	}
	return compiledb.Permissive
}

func loadExisting(path string) (compiledb.Entries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read existing compilation database: %w", err)
	}
	entries, err := compiledb.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode existing compilation database: %w", err)
	}
	return entries, nil
}

// writeAtomic writes data to path via a temp file in the same
// directory followed by a rename, matching the collector's own report
// persistence so a reader never observes a half-written database.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".compile_commands-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func archiveEntries(dsn string, entries compiledb.Entries) error {
	store, err := archive.NewFromDSN(dsn)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return store.InsertBuild(ctx, uuid.NewString(), entries)
}
