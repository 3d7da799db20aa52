package observability

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"
)

// Status is the outcome of a health check. Ordered from best to worst.
type Status string

const (
	StatusOK        Status = "ok"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) rank() int {
	switch s {
	case StatusOK:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// CheckResult is what one check reports.
type CheckResult struct {
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Check inspects one dependency of the running command.
type Check func(ctx context.Context) CheckResult

// HealthReport aggregates every registered check. Status is the worst
// individual status.
type HealthReport struct {
	Status        Status                 `json:"status"`
	Version       string                 `json:"version"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	Checks        map[string]CheckResult `json:"checks"`
}

// Health runs named checks on demand.
type Health struct {
	version string
	started time.Time

	mu     sync.RWMutex
	checks map[string]Check
}

func NewHealth(version string) *Health {
	return &Health{version: version, started: time.Now(), checks: make(map[string]Check)}
}

// Register adds or replaces the check called name.
func (h *Health) Register(name string, check Check) {
	h.mu.Lock()
	h.checks[name] = check
	h.mu.Unlock()
}

// Report runs every check and times each one.
func (h *Health) Report(ctx context.Context) HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rep := HealthReport{
		Status:        StatusOK,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Checks:        make(map[string]CheckResult, len(h.checks)),
	}
	for name, check := range h.checks {
		start := time.Now()
		res := check(ctx)
		res.LatencyMS = time.Since(start).Milliseconds()
		rep.Checks[name] = res
		if res.Status.rank() > rep.Status.rank() {
			rep.Status = res.Status
		}
	}
	return rep
}

// KeysDirectoryCheck reports unhealthy when dir is missing and degraded
// when other users can access it.
func KeysDirectoryCheck(dir string) Check {
	return func(context.Context) CheckResult {
		info, err := os.Stat(dir)
		switch {
		case err != nil:
			return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
		case !info.IsDir():
			return CheckResult{Status: StatusUnhealthy, Message: dir + " is not a directory"}
		case groupOrOtherAccess(info.Mode()):
			return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("mode %o allows group/other access", info.Mode().Perm())}
		}
		return CheckResult{Status: StatusOK}
	}
}

// KeyFileCheck reports on the configured secret key file. The file is
// looked up on every report, so deleting or regenerating a key shows up
// without a restart.
func KeyFileCheck(path string) Check {
	return func(context.Context) CheckResult {
		info, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			return CheckResult{Status: StatusUnhealthy, Message: "no key at " + path + " (run packnback keygen)"}
		case err != nil:
			return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
		case info.IsDir():
			return CheckResult{Status: StatusUnhealthy, Message: path + " is a directory"}
		case groupOrOtherAccess(info.Mode()):
			return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("mode %o allows group/other access", info.Mode().Perm())}
		}
		return CheckResult{Status: StatusOK}
	}
}

func groupOrOtherAccess(mode os.FileMode) bool {
	return runtime.GOOS != "windows" && mode.Perm()&0o077 != 0
}
