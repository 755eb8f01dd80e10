// Command intercept wraps a build command, observing every process it
// execs via the LD_PRELOAD library in cmd/preload and writing the
// resulting execution report to disk (spec.md §4.1-§4.2). It is the
// top-level entry point: it starts an in-process collector, spawns the
// build command through cmd/supervisor exactly as the preload shim
// would rewrite a nested exec, and forwards the build's exit status.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/5c4lar/Bear/internal/buildconfig"
	"github.com/5c4lar/Bear/internal/buildlog"
	"github.com/5c4lar/Bear/internal/collector"
	"github.com/5c4lar/Bear/internal/envmerge"
	"github.com/5c4lar/Bear/internal/metrics"
	"github.com/5c4lar/Bear/internal/preload"
	"github.com/5c4lar/Bear/internal/report"
	"github.com/5c4lar/Bear/internal/session"
)

// confstrPathFallback stands in for confstr(_CS_PATH, ...), matching
// cmd/preload's own fallback for when the build command's environment
// carries no PATH at all.
const confstrPathFallback = "/usr/bin:/bin"

type interceptFlags struct {
	configPath     string
	output         string
	listenAddr     string
	libraryPath    string
	supervisorPath string
	verbose        bool
	metricsAddr    string
}

func main() {
	flags := &interceptFlags{}
	root := newRootCommand(flags)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "intercept:", err)
		os.Exit(1)
	}
}

func newRootCommand(flags *interceptFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intercept [flags] -- command [args...]",
		Short: "Observe a build and write its execution report",
		Long: `intercept runs the given command under an LD_PRELOAD shim that
records every process it execs, and writes the resulting execution
report to disk for citnames to turn into a compilation database.

Example:
  intercept --output report.json -- make -j8`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntercept(flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a buildconfig YAML file (optional)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "execution report path (overrides config)")
	cmd.Flags().StringVar(&flags.listenAddr, "listen", "", "collector listen address (overrides config)")
	cmd.Flags().StringVar(&flags.libraryPath, "library", "", "path to libpreload.so (default: next to this binary)")
	cmd.Flags().StringVar(&flags.supervisorPath, "supervisor", "", "path to the supervisor binary (default: next to this binary)")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose preload diagnostics")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address")

	return cmd
}

func runIntercept(flags *interceptFlags, args []string) error {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.output != "" {
		cfg.Collector.ReportPath = flags.output
	}
	if flags.listenAddr != "" {
		cfg.Collector.ListenAddr = flags.listenAddr
	}

	if err := buildlog.Init(buildlog.LogConfig{
		Level:      cfg.Log.Level,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}); err != nil {
		return fmt.Errorf("intercept: init logger: %w", err)
	}
	logger := buildlog.Global()
	defer logger.Sync()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Warn("metrics registration failed", zap.Error(err))
	}
	if flags.metricsAddr != "" {
		serveMetrics(logger, flags.metricsAddr)
	}

	libraryPath, supervisorPath, err := resolveSidecars(flags.libraryPath, flags.supervisorPath)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	hostname, _ := os.Hostname()
	reportContext := report.Context{
		Intercept: runID,
		HostInfo: map[string]string{
			"hostname": hostname,
			"os":       runtime.GOOS,
			"arch":     runtime.GOARCH,
		},
	}

	store := collector.NewStore(cfg.Collector.ReportPath, reportContext)
	serverConfig := collector.DefaultServerConfig()
	serverConfig.ListenAddr = cfg.Collector.ListenAddr

	server, err := collector.NewServer(serverConfig, logger.Zap(), store, cfg.Collector.Overlay)
	if err != nil {
		return fmt.Errorf("intercept: build collector: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("intercept: start collector: %w", err)
	}

	status, runErr := runBuild(logger, session.Session{
		Library:     libraryPath,
		Reporter:    supervisorPath,
		Destination: server.Addr(),
		Verbose:     flags.verbose,
	}, args)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Stop(shutdownCtx)

	if err := store.Persist(); err != nil {
		logger.Error("final report persist failed", zap.Error(err))
	}
	logger.Info("execution report written", zap.String("path", cfg.Collector.ReportPath))

	if runErr != nil {
		return runErr
	}
	if status != 0 {
		os.Exit(status)
	}
	return nil
}

func loadConfig(configPath string) (*buildconfig.Config, error) {
	if configPath == "" {
		cfg := buildconfig.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("intercept: default config invalid: %w", err)
		}
		return cfg, nil
	}
	cfg, err := buildconfig.LoadAndValidate(configPath)
	if err != nil {
		return nil, fmt.Errorf("intercept: load config: %w", err)
	}
	return cfg, nil
}

func serveMetrics(logger *buildlog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// resolveSidecars locates libpreload.so and the supervisor binary next
// to this executable unless overridden, since intercept, cmd/preload,
// and cmd/supervisor are always built and shipped together.
func resolveSidecars(libraryOverride, supervisorOverride string) (library, supervisor string, err error) {
	library, supervisor = libraryOverride, supervisorOverride
	if library != "" && supervisor != "" {
		return library, supervisor, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", "", fmt.Errorf("intercept: locate own executable: %w", err)
	}
	dir := filepath.Dir(exe)

	if library == "" {
		library = filepath.Join(dir, "libpreload.so")
	}
	if supervisor == "" {
		supervisor = filepath.Join(dir, "supervisor")
	}
	return library, supervisor, nil
}

// runBuild resolves args[0] the way execvpe would and re-execs it
// through the supervisor, exactly as preload.Rewrite would build the
// replacement argv for a nested exec. Returns the build's exit status
// (0 on success) and any error that prevented running it at all.
func runBuild(logger *buildlog.Logger, sess session.Session, args []string) (int, error) {
	baseEnv := envmerge.FromList(os.Environ())

	resolved, err := preload.ResolveExecvpe(args[0], baseEnv, confstrPathFallback)
	if err != nil {
		return -1, fmt.Errorf("intercept: resolve %s: %w", args[0], err)
	}

	argv := preload.Rewrite(sess, resolved, args[1:])
	childEnv := envmerge.Union(baseEnv, sess.Overlay())
	childEnv = preload.PropagateSelf(childEnv, sess.Library)

	workingDir, err := os.Getwd()
	if err != nil {
		return -1, fmt.Errorf("intercept: getwd: %w", err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workingDir
	cmd.Env = envmerge.ToList(childEnv)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("intercept: start supervisor: %w", err)
	}

	sigCh := make(chan os.Signal, 16)
	signal.Notify(sigCh)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
forward:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGCHLD {
				continue
			}
			cmd.Process.Signal(sig)
		case waitErr = <-done:
			signal.Stop(sigCh)
			break forward
		}
	}

	if waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		logger.Warn("build command exited non-zero", zap.Int("status", exitErr.ExitCode()))
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("intercept: wait supervisor: %w", waitErr)
}
