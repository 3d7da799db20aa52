package asymcrypt

import (
	"io"
	"time"

	"github.com/constxd/packnback/internal/observability"
)

// Option configures Encrypt, Decrypt, Sign and Verify.
type Option func(*options)

type options struct {
	random  io.Reader
	logger  *observability.Logger
	metrics *observability.Metrics
}

// WithRandom sets the random source for ephemeral keys and nonces.
// The default is the system source.
func WithRandom(r io.Reader) Option {
	return func(o *options) { o.random = r }
}

// WithLogger sets the logger for operation events.
func WithLogger(l *observability.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the collectors updated per record and per operation.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// operation reports one call's lifecycle to the configured logger and metrics.
type operation struct {
	name    string
	start   time.Time
	logger  *observability.Logger
	metrics *observability.Metrics
}

func (o options) begin(name string) *operation {
	o.logger.OperationStarted(name)
	o.metrics.RecordOperationStart()
	return &operation{name: name, start: time.Now(), logger: o.logger, metrics: o.metrics}
}

// finish records the outcome and returns err unchanged.
func (op *operation) finish(err error, records int, plaintextBytes int64) error {
	elapsed := time.Since(op.start)
	op.metrics.RecordOperationComplete(op.name, err == nil, elapsed.Seconds())
	if err != nil {
		op.logger.OperationFailed(op.name, records, err)
		return err
	}
	op.logger.OperationCompleted(op.name, records, plaintextBytes, elapsed)
	return nil
}
