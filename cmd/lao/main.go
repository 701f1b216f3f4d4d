// =============================================================================
// LAO 命令行入口
// =============================================================================
// 驱动核心编排器：运行工作流、验证工作流、列出已加载插件
//
// 使用方法:
//
//	lao run <workflow.yaml> [--plugins-dir DIR] [--cache-dir DIR] [--parallel] [--max-parallelism N]
//	lao validate <workflow.yaml> [--plugins-dir DIR]
//	lao plugins [--plugins-dir DIR]
//	lao version
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abendrothj/lao/config"
	"github.com/abendrothj/lao/internal/cache"
	"github.com/abendrothj/lao/internal/metrics"
	"github.com/abendrothj/lao/internal/pluginhost"
	"github.com/abendrothj/lao/internal/server"
	"github.com/abendrothj/lao/internal/telemetry"
	"github.com/abendrothj/lao/workflow"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes, fixed by the run-summary/exit-code contract.
const (
	exitSuccess           = 0
	exitStepError         = 1
	exitValidationFailure = 2
	exitPluginLoadFailure = 3
	exitCancelled         = 130
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitValidationFailure)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runRun(os.Args[2:]))
	case "validate":
		os.Exit(runValidate(os.Args[2:]))
	case "plugins":
		os.Exit(runPlugins(os.Args[2:]))
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(exitValidationFailure)
	}
}

// =============================================================================
// 🏃 run 命令
// =============================================================================

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	pluginsDir := fs.String("plugins-dir", "", "Directory to scan for plugin shared libraries")
	cacheDir := fs.String("cache-dir", "", "Directory for the content-addressed step cache")
	parallel := fs.Bool("parallel", false, "Run independent steps within a layer concurrently")
	maxParallelism := fs.Int("max-parallelism", 0, "Bound on concurrent steps in parallel mode")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "run requires a workflow file path")
		return exitValidationFailure
	}
	workflowPath := fs.Arg(0)

	cfg, logger, exit := loadCLIConfig(*pluginsDir, *cacheDir, *parallel, *maxParallelism)
	if exit != exitSuccess {
		return exit
	}
	defer logger.Sync()

	w, exit := parseAndValidateFile(workflowPath, nil, logger)
	if exit != exitSuccess {
		return exit
	}

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize telemetry: %v\n", err)
		return exitValidationFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	collector := metrics.NewCollector("lao", logger)
	metricsSrv := startMetricsServer(cfg.MetricsPort, logger)
	if metricsSrv != nil {
		defer metricsSrv.Shutdown(context.Background())
	}

	host := pluginhost.NewHost(logger, collector)
	warnings, err := host.LoadFromDirectory(cfg.PluginsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to scan plugins directory: %v\n", err)
		return exitPluginLoadFailure
	}
	for _, warn := range warnings {
		logger.Warn("plugin load warning", zap.String("path", warn.Path), zap.Error(warn.Err))
	}
	defer host.UnloadAll()

	if errs := workflow.Validate(w, host); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "validation error: %v\n", e)
		}
		return exitValidationFailure
	}

	cacheManager, err := cache.NewManager(cache.Config{Dir: cfg.CacheDir}, logger, collector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open cache: %v\n", err)
		return exitPluginLoadFailure
	}
	defer cacheManager.Close()

	exec := workflow.NewExecutor(host, cacheManager, workflow.ExecutorConfig{
		Parallel:       cfg.Parallel,
		MaxParallelism: cfg.MaxParallelism,
		Logger:         logger,
		Metrics:        collector,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	summary, err := exec.Run(ctx, w, func(ev workflow.Event) {
		logEvent(logger, ev)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		return exitStepError
	}

	if summary.Cancelled {
		return exitCancelled
	}
	if !summary.Success() {
		return exitStepError
	}
	return exitSuccess
}

// startMetricsServer exposes the process-wide Prometheus registry on
// 127.0.0.1:port when port is positive. A zero port disables the endpoint
// entirely and startMetricsServer returns nil.
func startMetricsServer(port int, logger *zap.Logger) *server.Manager {
	if port <= 0 {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	cfg := server.DefaultConfig()
	cfg.Addr = fmt.Sprintf("127.0.0.1:%d", port)

	mgr := server.NewManager(mux, cfg, logger)
	if err := mgr.Start(); err != nil {
		logger.Warn("failed to start metrics server", zap.Int("port", port), zap.Error(err))
		return nil
	}
	logger.Info("metrics server started", zap.Int("port", port))
	return mgr
}

func logEvent(logger *zap.Logger, ev workflow.Event) {
	switch ev.Kind {
	case workflow.EventStepStarted:
		logger.Info("step started", zap.String("step", ev.StepStarted.StepID), zap.String("plugin", ev.StepStarted.Plugin))
	case workflow.EventStepRetrying:
		logger.Warn("step retrying",
			zap.String("step", ev.StepRetrying.StepID),
			zap.Int("attempt", ev.StepRetrying.Attempt),
			zap.Int("max_attempts", ev.StepRetrying.MaxAttempts),
			zap.String("last_error", ev.StepRetrying.LastError))
	case workflow.EventStepSucceeded:
		logger.Info("step succeeded", zap.String("step", ev.StepSucceeded.StepID))
	case workflow.EventStepFailed:
		logger.Error("step failed", zap.String("step", ev.StepFailed.StepID), zap.String("error", ev.StepFailed.Error))
	case workflow.EventStepCached:
		logger.Info("step served from cache", zap.String("step", ev.StepCached.StepID))
	case workflow.EventStepSkipped:
		logger.Info("step skipped", zap.String("step", ev.StepSkipped.StepID), zap.String("reason", string(ev.StepSkipped.Reason)))
	case workflow.EventWorkflowDone:
		logger.Info("workflow done",
			zap.String("run_id", ev.WorkflowDone.RunID),
			zap.Bool("cancelled", ev.WorkflowDone.Cancelled),
			zap.Duration("wall_time", ev.WorkflowDone.WallTime))
	}
}

// =============================================================================
// ✅ validate 命令
// =============================================================================

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	pluginsDir := fs.String("plugins-dir", "", "Directory to scan for plugin shared libraries")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "validate requires a workflow file path")
		return exitValidationFailure
	}
	workflowPath := fs.Arg(0)

	cfg, logger, exit := loadCLIConfig(*pluginsDir, "", false, 0)
	if exit != exitSuccess {
		return exit
	}
	defer logger.Sync()

	var resolver workflow.PluginResolver
	host := pluginhost.NewHost(logger, nil)
	if warnings, err := host.LoadFromDirectory(cfg.PluginsDir); err == nil {
		for _, warn := range warnings {
			logger.Warn("plugin load warning", zap.String("path", warn.Path), zap.Error(warn.Err))
		}
		resolver = host
	}

	if _, exit := parseAndValidateFile(workflowPath, resolver, logger); exit != exitSuccess {
		return exit
	}

	fmt.Println("workflow is valid")
	return exitSuccess
}

func parseAndValidateFile(path string, resolver workflow.PluginResolver, logger *zap.Logger) (*workflow.Workflow, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read workflow file: %v\n", err)
		return nil, exitValidationFailure
	}

	w, errs := workflow.ParseYAML(data)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", e)
		}
		return nil, exitValidationFailure
	}

	if errs := workflow.Validate(w, resolver); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "validation error: %v\n", e)
		}
		return nil, exitValidationFailure
	}

	return w, exitSuccess
}

// =============================================================================
// 🔌 plugins 命令
// =============================================================================

func runPlugins(args []string) int {
	fs := flag.NewFlagSet("plugins", flag.ExitOnError)
	pluginsDir := fs.String("plugins-dir", "", "Directory to scan for plugin shared libraries")
	fs.Parse(args)

	cfg, logger, exit := loadCLIConfig(*pluginsDir, "", false, 0)
	if exit != exitSuccess {
		return exit
	}
	defer logger.Sync()

	host := pluginhost.NewHost(logger, nil)
	warnings, err := host.LoadFromDirectory(cfg.PluginsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to scan plugins directory: %v\n", err)
		return exitPluginLoadFailure
	}
	for _, warn := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", warn)
	}
	defer host.UnloadAll()

	for _, info := range host.List() {
		fmt.Printf("%s\t%s\t%s\n", info.Name, info.Version, info.Path)
		if len(info.Shadowed) > 0 {
			fmt.Printf("  shadowed: %v\n", info.Shadowed)
		}
	}
	return exitSuccess
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("lao %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`lao - local workflow orchestrator

Usage:
  lao <command> [options]

Commands:
  run       Execute a workflow to completion
  validate  Check a workflow for structural and reference errors
  plugins   List plugins discovered in the plugins directory
  version   Show version information
  help      Show this help message

Options for 'run':
  --plugins-dir <dir>     Directory to scan for plugin shared libraries
  --cache-dir <dir>       Directory for the content-addressed step cache
  --parallel              Run independent steps within a layer concurrently
  --max-parallelism <n>   Bound on concurrent steps in parallel mode

Examples:
  lao run workflow.yaml
  lao run workflow.yaml --parallel --max-parallelism 4
  lao validate workflow.yaml
  lao plugins --plugins-dir ./plugins`)
}

// =============================================================================
// 🔧 共享配置与日志初始化
// =============================================================================

func loadCLIConfig(pluginsDir, cacheDir string, parallel bool, maxParallelism int) (*config.Config, *zap.Logger, int) {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return nil, nil, exitValidationFailure
	}
	if pluginsDir != "" {
		cfg.PluginsDir = pluginsDir
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if parallel {
		cfg.Parallel = true
	}
	if maxParallelism > 0 {
		cfg.MaxParallelism = maxParallelism
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return nil, nil, exitValidationFailure
	}

	return cfg, initLogger(cfg.Log), exitSuccess
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
