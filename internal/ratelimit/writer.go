// Package ratelimit throttles artifact output.
package ratelimit

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

const maxBurst = 1 << 20

// Writer is an io.Writer that passes at most a fixed number of bytes per
// second to the underlying writer.
type Writer struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

// NewWriter limits w to bytesPerSec. A non-positive rate returns w unchanged.
// Pending writes fail with ctx's error once ctx is done.
func NewWriter(ctx context.Context, w io.Writer, bytesPerSec int64) io.Writer {
	if bytesPerSec <= 0 {
		return w
	}
	burst := int(min(bytesPerSec, maxBurst))
	return &Writer{
		ctx:     ctx,
		w:       w,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

// Write splits p into pieces no larger than the limiter's burst and waits
// for tokens before each.
func (rw *Writer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n := min(len(p)-written, rw.limiter.Burst())
		if err := rw.limiter.WaitN(rw.ctx, n); err != nil {
			return written, err
		}
		m, err := rw.w.Write(p[written : written+n])
		written += m
		if err != nil {
			return written, err
		}
		if m < n {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
