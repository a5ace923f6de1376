package upstream

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// probeInterval is how often the background ticker re-checks upstream
// liveness while the server is running.
const probeInterval = 5 * time.Second

// Probe is a process-wide liveness check against the user service. A
// background ticker calls CheckNow on its own; any handler call site that sees a transport error is expected to call CheckNow
// itself rather than wait for the next tick.
type Probe struct {
	ping   func(ctx context.Context) bool
	logger *logrus.Logger

	mu    sync.RWMutex
	alive bool
}

// NewProbe constructs a Probe that uses ping to test liveness. ping should
// return quickly and never panic; Client.Ping is the intended
// implementation.
func NewProbe(ping func(ctx context.Context) bool, logger *logrus.Logger) *Probe {
	return &Probe{ping: ping, logger: logger, alive: true}
}

// Run starts the background ticker and blocks until ctx is canceled.
// Intended to be run in its own goroutine.
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CheckNow(ctx)
		}
	}
}

// CheckNow issues a single ping and updates aliveness. It's safe to call
// concurrently with Run's own ticks and with other call sites; each
// distinct call performs exactly one ping.
func (p *Probe) CheckNow(ctx context.Context) bool {
	alive := p.ping(ctx)

	p.mu.Lock()
	changed := p.alive != alive
	p.alive = alive
	p.mu.Unlock()

	if changed {
		if alive {
			p.logger.Info("upstream: user service is back up")
		} else {
			p.logger.Warn("upstream: user service appears to be down")
		}
	}

	return alive
}

// IsAlive returns the most recently observed liveness, without issuing a
// new check.
func (p *Probe) IsAlive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.alive
}
