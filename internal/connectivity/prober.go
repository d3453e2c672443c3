package connectivity

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/veridian/lib-license-go/constant"
	"go.uber.org/zap"
)

// MethodStatus is the per-probe diagnostic breakdown.
type MethodStatus struct {
	Method    string        `json:"method"`
	Reachable bool          `json:"reachable"`
	Err       string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

type probe struct {
	name string
	run  func(ctx context.Context) error
}

// Prober answers "are we online?" using up to three independent methods: DNS
// resolution, a short HTTP reachability check, and a raw TCP connect. The
// first success short-circuits; offline is declared only when all three fail
// or time out. The result is cached process-wide so concurrent validation
// load does not translate into probe storms.
type Prober struct {
	probes  []probe
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.SugaredLogger

	// now is overridable in tests
	now func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	online    bool
	breakdown []MethodStatus
}

// New creates a prober with the default probe set and the given cache TTL.
func New(ttl time.Duration, logger *zap.SugaredLogger) *Prober {
	p := &Prober{
		ttl:     ttl,
		timeout: constant.ProbeTimeout,
		logger:  logger,
		now:     time.Now,
	}
	p.probes = []probe{
		{name: "dns", run: probeDNS},
		{name: "http", run: probeHTTP},
		{name: "tcp", run: probeTCP},
	}

	return p
}

// IsOnline reports cached connectivity, re-probing when the cached answer is
// older than the TTL.
func (p *Prober) IsOnline(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checkedAt.IsZero() && p.now().Sub(p.checkedAt) < p.ttl {
		return p.online
	}

	return p.refreshLocked(ctx)
}

// Refresh bypasses the cache TTL and probes immediately.
func (p *Prober) Refresh(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.refreshLocked(ctx)
}

// Status returns the per-method breakdown from the most recent probe run.
func (p *Prober) Status() []MethodStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]MethodStatus, len(p.breakdown))
	copy(out, p.breakdown)

	return out
}

func (p *Prober) refreshLocked(ctx context.Context) bool {
	online := false
	breakdown := make([]MethodStatus, 0, len(p.probes))

	for _, pr := range p.probes {
		probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		start := p.now()
		err := pr.run(probeCtx)
		cancel()

		status := MethodStatus{
			Method:    pr.name,
			Reachable: err == nil,
			Duration:  p.now().Sub(start),
		}
		if err != nil {
			status.Err = err.Error()
		}

		breakdown = append(breakdown, status)

		if err == nil {
			online = true
			break
		}

		p.logger.Debugw("connectivity probe failed", "method", pr.name, "error", err)
	}

	p.online = online
	p.breakdown = breakdown
	p.checkedAt = p.now()

	if !online {
		p.logger.Infow("all connectivity probes failed, treating machine as offline")
	}

	return online
}

func probeDNS(ctx context.Context) error {
	var resolver net.Resolver

	_, err := resolver.LookupHost(ctx, constant.ProbeDNSHost)

	return err
}

func probeHTTP(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, constant.ProbeHTTPURL, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}

func probeTCP(ctx context.Context) error {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", constant.ProbeTCPAddr)
	if err != nil {
		return err
	}

	return conn.Close()
}
