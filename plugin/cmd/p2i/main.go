package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/common/version"
	"github.com/spf13/pflag"

	"github.com/p2i/p2i/plugin/internal/check"
	"github.com/p2i/p2i/plugin/internal/config"
	"github.com/p2i/p2i/plugin/internal/promapi"
	"github.com/p2i/p2i/plugin/internal/report"
)

const program = "p2i"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// options holds the parsed command line.
type options struct {
	baseURL    string
	alertName  string
	labels     string
	instance   string
	timeout    float64
	configPath string
	quiet      bool
	noThrow    bool
	sequential bool
	insecure   bool
	textfile   string
	logLevel   string
	version    bool
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false

	fs.StringVarP(&o.baseURL, "baseurl", "b", "", "Prometheus base URL, e.g. http://localhost:9090/")
	fs.StringVarP(&o.alertName, "alertname", "a", "", "name of the alert to check (required)")
	fs.StringVarP(&o.labels, "labels", "l", "", `JSON object of labels the alert must carry, e.g. '{"instance":"host1"}'`)
	fs.StringVarP(&o.instance, "instance", "i", "", "shorthand for an instance label")
	fs.Float64VarP(&o.timeout, "timeout", "t", config.DefaultTimeout.Seconds(), "request timeout in seconds")
	fs.StringVarP(&o.configPath, "config", "c", "", "optional YAML config file")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "print nothing, report through the exit code only")
	fs.BoolVar(&o.noThrow, "no-throw", false, "report failures as a bare UNKNOWN without detail")
	fs.BoolVar(&o.sequential, "sequential", false, "query rules before alerts instead of concurrently")
	fs.BoolVar(&o.insecure, "insecure", false, "skip TLS certificate verification")
	fs.StringVar(&o.textfile, "textfile", "", "also write the result to this Prometheus textfile")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level on stderr: debug, info, warn, error")
	fs.BoolVar(&o.version, "version", false, "print version information and exit")
	return fs
}

// run executes one check and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var o options
	fs := newFlagSet(&o)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdout, fs)
			return check.StatusUnknown.ExitCode()
		}
		return usageError(stdout, err)
	}
	if o.version {
		fmt.Fprintln(stdout, version.Print(program))
		return check.StatusUnknown.ExitCode()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return usageError(stdout, fmt.Errorf("invalid --log-level %q", o.logLevel))
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(fs, &o)
	if err != nil {
		return usageError(stdout, err)
	}
	target, err := buildTarget(&o)
	if err != nil {
		return usageError(stdout, err)
	}
	slog.Debug("p2i: starting check", "base_url", cfg.BaseURL, "alert", target.AlertName,
		"labels", target.Labels.String(), "timeout", cfg.Timeout, "auth", cfg.Auth.Mode)

	client, err := promapi.New(cfg)
	if err != nil {
		return usageError(stdout, err)
	}
	resolver := check.NewResolver(client, check.Options{
		ThrowOnUnknown: cfg.ThrowOnUnknown,
		Parallel:       cfg.Parallel,
	})

	res, err := resolver.Check(ctx, target)
	if err != nil {
		slog.Error("p2i: check failed", "alert", target.AlertName, "kind", check.KindOf(err), "err", err)
	}

	if o.textfile != "" {
		if err := report.WriteTextfile(o.textfile, target, res, time.Now()); err != nil {
			slog.Error("p2i: textfile not written", "path", o.textfile, "err", err)
		}
	}
	if err := report.New(stdout, o.quiet).Report(res); err != nil {
		slog.Error("p2i: write status", "err", err)
	}
	return res.Status.ExitCode()
}

// loadConfig layers the optional config file, the environment and the
// command line, then validates the result.
func loadConfig(fs *pflag.FlagSet, o *options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)

	if fs.Changed("baseurl") {
		cfg.BaseURL = o.baseURL
	}
	if fs.Changed("timeout") {
		cfg.Timeout = time.Duration(o.timeout * float64(time.Second))
	}
	if o.noThrow {
		cfg.ThrowOnUnknown = false
	}
	if o.sequential {
		cfg.Parallel = false
	}
	if o.insecure {
		cfg.TLS.InsecureSkipVerify = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildTarget(o *options) (check.Target, error) {
	if o.alertName == "" {
		return check.Target{}, errors.New("--alertname is required")
	}
	labels, err := config.ParseLabels(o.labels)
	if err != nil {
		return check.Target{}, err
	}
	if o.instance != "" {
		if labels, err = config.AddLabel(labels, "instance", o.instance); err != nil {
			return check.Target{}, err
		}
	}
	return check.Target{AlertName: o.alertName, Labels: labels}, nil
}

// usageError reports an invocation problem in plugin format.
func usageError(w io.Writer, err error) int {
	fmt.Fprintf(w, "%s - %v\n", check.StatusUnknown, err)
	return check.StatusUnknown.ExitCode()
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s -b URL -a ALERTNAME [options]\n\n", program)
	fmt.Fprintln(w, "Checks whether a Prometheus alert is firing for the given labels and")
	fmt.Fprintln(w, "exits 0 (OK), 1 (WARNING), 2 (CRITICAL) or 3 (UNKNOWN).")
	fmt.Fprintln(w)
	fmt.Fprint(w, fs.FlagUsages())
}
