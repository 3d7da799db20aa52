package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/constxd/packnback/internal/asymcrypt"
	"github.com/constxd/packnback/internal/config"
	"github.com/constxd/packnback/internal/observability"
	"github.com/constxd/packnback/internal/ratelimit"
	"github.com/constxd/packnback/internal/validation"
)

const serviceName = "packnback"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath    string
	passphraseEnv string
	logLevel      string
	metricsAddr   string
	rateLimit     int64

	ctx      context.Context
	cfg      *config.Config
	log      *observability.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics

	cleanups []func()
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, ctx: context.Background()}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "packnback",
		Short: "packnback - public-key encryption and signing for files and streams",
		Long: `packnback encrypts data to a recipient's public key, decrypts it with the
matching key file, and signs or verifies messages.

Ciphertext is streamed in authenticated records, so input of any size is
processed in constant memory. Use "-" or omit -i/-o to read stdin or
write stdout.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/packnback/config.yaml)")
	pf.StringVar(&a.passphraseEnv, "passphrase-env", "", "read key passphrases from this environment variable")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")
	pf.StringVar(&a.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address while running")
	pf.Int64Var(&a.rateLimit, "rate-limit", 0, "limit output to this many bytes per second (0 = unlimited)")

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(
		a.keygenCmd(),
		a.pubkeyCmd(),
		a.fingerprintCmd(),
		a.encryptCmd(),
		a.decryptCmd(),
		a.signCmd(),
		a.verifyCmd(),
		a.inspectCmd(),
	)
	return root
}

// setup loads configuration and starts logging, metrics and tracing.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if ctx := cmd.Context(); ctx != nil {
		a.ctx = ctx
	}

	path := a.configPath
	if path == "" {
		if def := config.DefaultConfigPath(); fileExists(def) {
			path = def
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddress = a.metricsAddr
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimitBytesPerSec = a.rateLimit
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log = observability.NewLogger(serviceName, version, a.stderr, cfg.LogLevel, cfg.LogFormat == "console")
	a.registry = prometheus.NewRegistry()
	a.metrics = observability.NewMetrics(a.registry)

	shutdown, err := observability.InitTracing(a.ctx, serviceName, cfg.TracingEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.onClose(func() {
		if err := shutdown(context.Background()); err != nil {
			a.log.Warn("tracing shutdown: " + err.Error())
		}
	})

	if cfg.MetricsAddress != "" {
		if err := a.serveMetrics(cfg.MetricsAddress); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	health := observability.NewHealth(version)
	health.Register("keys_directory", observability.KeysDirectoryCheck(a.cfg.KeysDirectory))
	health.Register("identity", observability.KeyFileCheck(a.cfg.KeyPath()))

	ctx, cancel := context.WithCancel(a.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := observability.Serve(ctx, ln, observability.NewServeMux(a.registry, health)); err != nil {
			a.log.Error(err, "metrics server failed")
		}
	}()
	a.onClose(func() {
		cancel()
		<-done
	})
	a.log.Info("serving metrics on " + ln.Addr().String())
	return nil
}

func (a *app) onClose(fn func()) {
	a.cleanups = append(a.cleanups, fn)
}

// close runs cleanups in reverse order.
func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

// pipelineOptions wires the logger and metrics into an asymcrypt call.
func (a *app) pipelineOptions(artifact string) []asymcrypt.Option {
	return []asymcrypt.Option{
		asymcrypt.WithLogger(a.log.WithOperation(observability.NewOperationID()).WithArtifact(artifact)),
		asymcrypt.WithMetrics(a.metrics),
	}
}

// openInput opens path for reading; "" and "-" mean stdin.
func (a *app) openInput(path string) (io.ReadCloser, error) {
	if isStdio(path) {
		return io.NopCloser(a.stdin), nil
	}
	if err := validation.ValidateFilePath(path, true); err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}
	return os.Open(path)
}

// output is a destination that only becomes visible on Commit. File
// outputs are written to a temporary file in the same directory and
// renamed into place, so a failed operation leaves no partial file.
type output struct {
	io.Writer
	file *os.File
	path string
}

// createOutput opens path for writing; "" and "-" mean stdout. Writes are
// throttled when a rate limit is configured.
func (a *app) createOutput(ctx context.Context, path string, perm os.FileMode) (*output, error) {
	if isStdio(path) {
		return &output{Writer: ratelimit.NewWriter(ctx, a.stdout, a.cfg.RateLimitBytesPerSec)}, nil
	}
	if err := validation.ValidateFilePath(path, false); err != nil {
		return nil, fmt.Errorf("output %s: %w", path, err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, err
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return &output{
		Writer: ratelimit.NewWriter(ctx, f, a.cfg.RateLimitBytesPerSec),
		file:   f,
		path:   path,
	}, nil
}

// Commit makes a file output visible at its final path.
func (o *output) Commit() error {
	if o.file == nil {
		return nil
	}
	f := o.file
	o.file = nil
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), o.path)
}

// Abort discards an uncommitted file output. It is a no-op after Commit.
func (o *output) Abort() {
	if o.file == nil {
		return
	}
	o.file.Close()
	os.Remove(o.file.Name())
	o.file = nil
}

func isStdio(path string) bool {
	return path == "" || path == "-"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var errStdinConflict = errors.New("only one input can be read from stdin")
