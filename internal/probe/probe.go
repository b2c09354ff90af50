// Package probe waits for a freshly booted host's management endpoint to
// accept TCP connections.
//
// A Windows instance reports "running" long before WinRM is actually
// reachable, so the prober polls the management port on a fixed schedule
// instead of trusting the platform's instance state. Individual connection
// failures are expected and never surface as errors; only exhausting the
// attempt budget is reportable.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/dnedic/dc-deploy/internal/util/retry"
)

const (
	// DefaultMaxAttempts and DefaultInterval give the stock 10-minute
	// ceiling: WinRM on a fresh Windows Server instance regularly takes
	// 5-10 minutes to come up after first boot.
	DefaultMaxAttempts = 20
	DefaultInterval    = 30 * time.Second

	// dialTimeout bounds a single connection attempt.
	dialTimeout = 5 * time.Second
)

// PollResult reports the outcome of a port wait.
type PollResult struct {
	// Ready is true if the port accepted a connection within the budget.
	Ready bool

	// Attempts is the number of connection attempts actually made.
	Attempts int

	// Elapsed is the total wall-clock time spent polling.
	Elapsed time.Duration
}

// Logger receives progress output during the wait.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Prober polls a TCP endpoint until it accepts connections.
type Prober struct {
	// Dial is the connection function, injectable for tests.
	// Defaults to net.DialTimeout. The address is passed as host:port and
	// re-resolved on every attempt so address reassignment during boot is
	// tolerated.
	Dial func(network, address string, timeout time.Duration) (net.Conn, error)

	// Log receives per-attempt progress. Nil disables progress output.
	Log Logger
}

// New creates a prober with the default dialer.
func New() *Prober {
	return &Prober{Dial: net.DialTimeout}
}

// WaitForPort polls host:port until a connection succeeds or maxAttempts
// attempts have failed. Connection failures of any kind (refused, timeout,
// unreachable) are treated identically: wait, then try again.
//
// The returned error is non-nil only for cancellation; budget exhaustion is
// reported through PollResult.Ready == false.
func (p *Prober) WaitForPort(ctx context.Context, host string, port int, maxAttempts int, interval time.Duration) (PollResult, error) {
	dial := p.Dial
	if dial == nil {
		dial = net.DialTimeout
	}

	address := net.JoinHostPort(host, strconv.Itoa(port))
	start := time.Now()
	attempts := 0

	err := retry.WithFixedBackoff(ctx, func(attempt int) error {
		attempts = attempt
		p.logf("[%ds] Attempt %d/%d - testing connectivity to %s...",
			int(time.Since(start).Seconds()), attempt, maxAttempts, address)

		conn, err := dial("tcp", address, dialTimeout)
		if err != nil {
			p.logf("  port %d not open yet, waiting %v...", port, interval)
			return fmt.Errorf("connect %s: %w", address, err)
		}
		_ = conn.Close()
		return nil
	}, retry.WithMaxAttempts(maxAttempts), retry.WithInterval(interval))

	result := PollResult{
		Ready:    err == nil,
		Attempts: attempts,
		Elapsed:  time.Since(start),
	}

	switch {
	case err == nil:
		p.logf("Port %d is ready after %d attempt(s)", port, attempts)
		return result, nil
	case errors.Is(err, retry.ErrExhausted):
		return result, nil
	default:
		return result, err
	}
}

func (p *Prober) logf(format string, v ...interface{}) {
	if p.Log != nil {
		p.Log.Printf(format, v...)
	}
}
