// Command pitchtrace shows the pitch of a voice as a scrolling trace in the
// terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/olivier-w/pitchtrace/internal/config"
	"github.com/olivier-w/pitchtrace/internal/media"
	"github.com/olivier-w/pitchtrace/internal/observe"
)

// cliOptions holds the parsed command line. Only flags the user actually set
// override the config file.
type cliOptions struct {
	configPath string
	browse     bool
	set        map[string]bool

	input      string
	freq       float64
	monitor    bool
	metrics    string
	logFile    string
	logLevel   string
	positional string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pitchtrace: %v\n", err)
		return 1
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pitchtrace: %v\n", err)
		return 1
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("pitchtrace starting",
		"input", cfg.Input.Kind,
		"tick_interval", cfg.Pipeline.TickInterval,
		"window_size", cfg.Pipeline.WindowSize,
		"metrics_addr", cfg.Metrics.Addr,
	)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var shutdownMetrics func(context.Context) error
	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		shutdownMetrics, err = observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "pitchtrace"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "pitchtrace: metrics: %v\n", err)
			return 1
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", observe.Handler())
		srv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	live := &liveSet{}
	failed := false

	g.Go(func() error {
		// Leaving the UI tears everything else down.
		defer cancel()

		model := newStartupModel(newOpener(gctx, cfg, live, logger), opts.browse, cfg.Input.Path, inputLabel(cfg.Input))
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
		final, err := program.Run()

		if stopErr := live.stopAll(); stopErr != nil {
			logger.Warn("pipeline stop failed", "err", stopErr)
		}
		if sm, ok := final.(startupModel); ok && sm.err != nil {
			failed = true
		}
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	})

	if srv != nil {
		g.Go(func() error {
			logger.Info("metrics listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	code := 0
	if err := g.Wait(); err != nil {
		logger.Error("run error", "err", err)
		fmt.Fprintf(os.Stderr, "pitchtrace: %v\n", err)
		code = 1
	}
	if failed {
		code = 1
	}

	if shutdownMetrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			logger.Warn("meter provider shutdown failed", "err", err)
		}
	}
	logger.Info("pitchtrace stopped", "code", code)
	return code
}

func parseFlags(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("pitchtrace", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: pitchtrace [flags] [file]\n       pitchtrace -browse [dir]\n\nfile formats: %s\n\n", media.SupportedExtsList())
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "path to a YAML configuration file")
	fs.StringVar(&opts.input, "input", "", "audio input: mic, file, sine or sweep")
	fs.Float64Var(&opts.freq, "freq", 0, "tone frequency in Hz for -input sine")
	fs.BoolVar(&opts.monitor, "monitor", false, "play a file input aloud while analysing it")
	fs.BoolVar(&opts.browse, "browse", false, "pick a file from the current directory")
	fs.StringVar(&opts.metrics, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(fs.Output(), "pitchtrace: at most one file argument")
		fs.Usage()
		return cliOptions{}, errors.New("too many arguments")
	}
	opts.positional = fs.Arg(0)

	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// loadConfig layers the config file, then flags, over the defaults and
// validates the result.
func loadConfig(opts cliOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	applyFlags(cfg, opts)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if cfg.Input.Kind == config.InputFile && !opts.browse {
		if err := checkInputFile(cfg.Input.Path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, opts cliOptions) {
	if opts.set["input"] {
		cfg.Input.Kind = config.InputKind(opts.input)
	}
	if opts.set["freq"] {
		cfg.Input.Frequency = opts.freq
	}
	if opts.set["monitor"] {
		cfg.Input.Monitor = opts.monitor
	}
	if opts.set["metrics-addr"] {
		cfg.Metrics.Addr = opts.metrics
	}
	if opts.set["log-file"] {
		cfg.Log.File = opts.logFile
	}
	if opts.set["log-level"] {
		cfg.Log.Level = config.LogLevel(opts.logLevel)
	}
	if opts.positional != "" {
		cfg.Input.Kind = config.InputFile
		cfg.Input.Path = opts.positional
	}
	if opts.browse {
		// With -browse, input.path names the directory to list.
		cfg.Input.Kind = config.InputFile
		if opts.positional == "" {
			cfg.Input.Path = "."
		}
	}
}

func checkInputFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	ext := filepath.Ext(path)
	if !media.IsSupportedExt(ext) {
		return fmt.Errorf("unsupported format %s (supported: %s)", ext, media.SupportedExtsList())
	}
	return nil
}

// newLogger writes text logs to cfg.File, or nowhere: the terminal belongs to
// the UI.
func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var w io.Writer = io.Discard
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level.Level()})
	return slog.New(handler), closeFn, nil
}

func inputLabel(in config.InputConfig) string {
	switch in.Kind {
	case config.InputMic:
		return "microphone"
	case config.InputFile:
		return in.Path
	case config.InputSine:
		return fmt.Sprintf("%.2f Hz sine", in.Frequency)
	case config.InputSweep:
		return "sweep"
	}
	return string(in.Kind)
}
