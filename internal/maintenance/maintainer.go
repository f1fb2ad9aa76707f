// Package maintenance keeps enough coins visible on screen.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/kyiku/coin-gacha-back/internal/coin"
)

// Placer places new coins and returns how many were placed.
type Placer interface {
	Place(count int) int
}

// Config holds the maintenance loop settings.
type Config struct {
	Target       int
	Interval     time.Duration
	RetryDelay   time.Duration
	InitialBatch int // 0 or >= Target disables staging
	StartupDelay time.Duration
	TopUpDelay   time.Duration
}

// DefaultConfig returns the desktop settings: eager startup, 2s cadence.
func DefaultConfig() Config {
	return Config{
		Target:     18,
		Interval:   2 * time.Second,
		RetryDelay: 200 * time.Millisecond,
	}
}

func (c Config) staged() bool {
	return c.InitialBatch > 0 && c.InitialBatch < c.Target
}

// Maintainer runs the visibility maintenance loop for one registry.
// All placement calls are serialized through mu.
type Maintainer struct {
	registry *coin.Registry
	layout   coin.Layout
	placer   Placer
	cfg      Config
	logger   *log.Logger

	mu       sync.Mutex
	redeemCh chan struct{}
	resetCh  chan struct{}
}

// NewMaintainer creates a Maintainer.
func NewMaintainer(registry *coin.Registry, layout coin.Layout, placer Placer, cfg Config, logger *log.Logger) *Maintainer {
	if logger == nil {
		logger = log.New("maintenance")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Maintainer{
		registry: registry,
		layout:   layout,
		placer:   placer,
		cfg:      cfg,
		logger:   logger,
		redeemCh: make(chan struct{}, 1),
		resetCh:  make(chan struct{}, 1),
	}
}

// NotifyRedemption asks the loop for a top-up after a coin was consumed.
func (m *Maintainer) NotifyRedemption() {
	select {
	case m.redeemCh <- struct{}{}:
	default:
	}
}

// NotifyReset asks the loop to discard every coin and repopulate.
func (m *Maintainer) NotifyReset() {
	select {
	case m.resetCh <- struct{}{}:
	default:
	}
}

// Visible returns the number of coins currently on screen.
func (m *Maintainer) Visible() int {
	return coin.CountVisible(m.registry.Tokens(), m.layout)
}

// Ensure tops up the registry to the target and returns the remaining
// shortfall.
func (m *Maintainer) Ensure() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensure()
}

// clear drops every coin once no placement is in flight.
func (m *Maintainer) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := m.registry.Clear()
	m.logger.Infof("Layout reset: removed %d coins", len(removed))
}

func (m *Maintainer) ensure() int {
	visible := m.Visible()
	needed := m.cfg.Target - visible
	if needed <= 0 {
		return 0
	}

	m.logger.Infof("Refilling coins: visible = %d needed = %d", visible, needed)
	placed := m.placer.Place(needed)
	return needed - placed
}

// placeBatch places up to n coins without going past the target.
func (m *Maintainer) placeBatch(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	needed := min(n, m.cfg.Target-m.Visible())
	if needed <= 0 {
		return
	}
	placed := m.placer.Place(needed)
	m.logger.Infof("Initial batch: placed %d of %d, total coins %d", placed, needed, m.registry.Len())
}

// Run drives the loop until ctx is canceled. It performs the startup
// population, then reacts to the periodic tick, redemptions, resets and the
// single follow-up retry.
func (m *Maintainer) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	startup := newOneShot()
	topUp := newOneShot()
	retry := newOneShot()
	defer func() {
		startup.stop()
		topUp.stop()
		retry.stop()
	}()

	// ensure runs a top-up and arms at most one retry for a shortfall.
	ensure := func(allowRetry bool) {
		short := m.Ensure()
		if short > 0 && allowRetry && !retry.armed() {
			m.logger.Infof("placement short by %d, retrying in %s", short, m.cfg.RetryDelay)
			retry.arm(m.cfg.RetryDelay)
		}
	}

	startup.arm(m.cfg.StartupDelay)

	for {
		select {
		case <-ctx.Done():
			return

		case <-startup.C():
			startup.fired()
			if m.cfg.staged() {
				m.placeBatch(m.cfg.InitialBatch)
				topUp.arm(m.cfg.TopUpDelay)
			} else {
				ensure(true)
			}

		case <-topUp.C():
			topUp.fired()
			ensure(true)

		case <-retry.C():
			retry.fired()
			ensure(false)

		case <-ticker.C:
			ensure(true)

		case <-m.redeemCh:
			ensure(true)

		case <-m.resetCh:
			topUp.stop()
			retry.stop()
			m.clear()
			startup.arm(m.cfg.StartupDelay)
		}
	}
}

// oneShot is a stoppable timer whose channel is nil while disarmed, so a
// select on it blocks forever.
type oneShot struct {
	t *time.Timer
}

func newOneShot() *oneShot {
	return &oneShot{}
}

func (o *oneShot) arm(d time.Duration) {
	o.stop()
	o.t = time.NewTimer(d)
}

func (o *oneShot) armed() bool {
	return o.t != nil
}

func (o *oneShot) C() <-chan time.Time {
	if o.t == nil {
		return nil
	}
	return o.t.C
}

func (o *oneShot) fired() {
	o.t = nil
}

func (o *oneShot) stop() {
	if o.t != nil {
		o.t.Stop()
		o.t = nil
	}
}
