package coin

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/kyiku/coin-gacha-back/internal/geometry"
)

// Rejection is the reason a candidate position was refused.
type Rejection string

// Rejection reasons reported in debug mode.
const (
	RejectNone            Rejection = ""
	RejectOutsideViewport Rejection = "outside_viewport"
	RejectExclusion       Rejection = "exclusion"
	RejectForbidden       Rejection = "forbidden"
	RejectOverlap         Rejection = "overlap"
)

// EngineConfig holds the placement tuning.
type EngineConfig struct {
	EdgeMargin             float64 `yaml:"edge_margin"`
	RingInnerGap           float64 `yaml:"ring_inner_gap"`
	RingOuterGap           float64 `yaml:"ring_outer_gap"`
	RingJitter             float64 `yaml:"ring_jitter"`
	RingAttempts           int     `yaml:"ring_attempts"`
	ScatterMinAttempts     int     `yaml:"scatter_min_attempts"`
	ScatterAttemptsPerCoin int     `yaml:"scatter_attempts_per_coin"`
	SanityGap              float64 `yaml:"sanity_gap"`
}

// DefaultEngineConfig returns the desktop placement tuning.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		EdgeMargin:             20,
		RingInnerGap:           30,
		RingOuterGap:           200,
		RingJitter:             0.2,
		RingAttempts:           500,
		ScatterMinAttempts:     500,
		ScatterAttemptsPerCoin: 30,
		SanityGap:              5,
	}
}

// Engine places new coin tokens around the anchors of the current layout.
// It is not safe for concurrent Place calls; callers serialize.
type Engine struct {
	registry *Registry
	layout   Layout
	radius   RadiusSource
	rules    RegionRules
	cfg      EngineConfig
	rng      *rand.Rand
	logger   *log.Logger
	debug    atomic.Bool
}

// NewEngine creates a placement engine. A nil rng is seeded from the clock.
func NewEngine(registry *Registry, layout Layout, radius RadiusSource, rules RegionRules, cfg EngineConfig, rng *rand.Rand, logger *log.Logger) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if rules == nil {
		rules = DefaultRegionRules()
	}
	if logger == nil {
		logger = log.New("coin")
	}
	return &Engine{
		registry: registry,
		layout:   layout,
		radius:   radius,
		rules:    rules,
		cfg:      cfg,
		rng:      rng,
		logger:   logger,
	}
}

// SetDebug enables or disables rejection logging.
func (e *Engine) SetDebug(enabled bool) {
	e.debug.Store(enabled)
	if enabled {
		e.logger.SetLevel(log.DEBUG)
	}
}

// Debug reports whether rejection logging is enabled.
func (e *Engine) Debug() bool {
	return e.debug.Load()
}

// Regions returns the forbidden regions of the current layout.
func (e *Engine) Regions() []ForbiddenRegion {
	return BuildRegions(e.layout.Anchors(), e.rules, e.radius.Radius())
}

// placement is the state of one Place call.
type placement struct {
	bounds      geometry.Rect
	radius      float64
	minDistance float64
	regions     []ForbiddenRegion
	exclusions  []Exclusion
	occupied    []geometry.Point
	created     []*Token
}

// Place tries to add count new tokens and returns how many were placed.
// The result may be lower than count when the layout is too crowded.
func (e *Engine) Place(count int) int {
	if count <= 0 {
		return 0
	}

	viewport := e.layout.Viewport()
	if viewport.Empty() {
		e.logger.Warnf("placement skipped: no viewport")
		return 0
	}

	r := e.radius.Radius()
	anchors := e.layout.Anchors()
	p := &placement{
		bounds:      viewport.Inset(e.cfg.EdgeMargin),
		radius:      r,
		minDistance: 2 * r,
		regions:     BuildRegions(anchors, e.rules, r),
		exclusions:  e.layout.Exclusions(),
		occupied:    e.registry.Positions(),
	}

	if len(anchors) == 0 {
		c := viewport.Center()
		anchors = []Anchor{{Name: "center", Rect: geometry.Rect{Left: c.X, Top: c.Y, Right: c.X, Bottom: c.Y}}}
	}

	placed := 0
	perAnchor := (count + len(anchors) - 1) / len(anchors)
	for _, a := range anchors {
		if placed >= count {
			break
		}
		placed += e.placeRing(p, a, min(perAnchor, count-placed))
	}

	if placed < count && !p.bounds.Empty() {
		placed += e.scatter(p, count-placed)
	}

	e.registry.Add(p.created...)
	return placed
}

// placeRing places up to n tokens on a ring around the anchor.
func (e *Engine) placeRing(p *placement, a Anchor, n int) int {
	step := 2 * math.Pi / float64(n)
	center := a.Rect.Center()
	minR := a.Rect.Radius() + p.radius + e.cfg.RingInnerGap
	maxR := a.Rect.Radius() + p.radius + e.cfg.RingOuterGap

	placed := 0
	for attempt := 0; placed < n && attempt < e.cfg.RingAttempts; attempt++ {
		slot := float64(attempt % n)
		angle := slot*step + (e.rng.Float64()*2-1)*step*e.cfg.RingJitter
		dist := minR + e.rng.Float64()*(maxR-minR)
		candidate := geometry.Point{
			X: center.X + math.Cos(angle)*dist,
			Y: center.Y + math.Sin(angle)*dist,
		}
		if e.try(p, candidate) {
			placed++
		}
	}
	return placed
}

// scatter samples uniformly over the viewport to make up a shortfall.
func (e *Engine) scatter(p *placement, remaining int) int {
	budget := max(e.cfg.ScatterMinAttempts, e.cfg.ScatterAttemptsPerCoin*remaining)

	placed := 0
	for attempt := 0; placed < remaining && attempt < budget; attempt++ {
		candidate := geometry.Point{
			X: p.bounds.Left + e.rng.Float64()*p.bounds.Width(),
			Y: p.bounds.Top + e.rng.Float64()*p.bounds.Height(),
		}
		if e.try(p, candidate) {
			placed++
		}
	}
	return placed
}

// try accepts the candidate if it passes every check.
func (e *Engine) try(p *placement, candidate geometry.Point) bool {
	reason, detail := e.check(p, candidate)
	if reason != RejectNone {
		if e.debug.Load() {
			e.logger.Debugf("reject: %s %s at (%.1f, %.1f)", reason, detail, candidate.X, candidate.Y)
		}
		return false
	}

	t := NewToken(candidate)
	p.created = append(p.created, t)
	p.occupied = append(p.occupied, candidate)
	e.sanityCheck(p, t)
	if e.debug.Load() {
		e.logger.Debugf("Coin created at: (%.1f, %.1f) placed this call: %d", candidate.X, candidate.Y, len(p.created))
	}
	return true
}

// check applies the acceptance rule and returns the first failed check.
func (e *Engine) check(p *placement, c geometry.Point) (Rejection, string) {
	if !p.bounds.Contains(c) {
		return RejectOutsideViewport, ""
	}
	for _, ex := range p.exclusions {
		if ex.Rect.Pad(ex.Padding).DistanceTo(c) < p.radius {
			return RejectExclusion, ex.Name
		}
	}
	for _, region := range p.regions {
		if region.Violates(c) {
			return RejectForbidden, region.Name
		}
	}
	for _, o := range p.occupied {
		if geometry.Distance(c, o) < p.minDistance {
			return RejectOverlap, ""
		}
	}
	return RejectNone, ""
}

// sanityCheck warns when a token ends up hugging the machine.
func (e *Engine) sanityCheck(p *placement, t *Token) {
	for _, region := range p.regions {
		if region.Name != AnchorMachine {
			continue
		}
		d := region.Rect.DistanceTo(t.Position)
		if d < p.radius+e.cfg.SanityGap {
			e.logger.Warnf("Sanity: coin created too close to machine at (%.1f, %.1f) dist=%.1f radius=%.1f",
				t.Position.X, t.Position.Y, d, p.radius)
		}
	}
}

// CountVisible returns how many tokens currently overlap the viewport.
func CountVisible(tokens []*Token, layout Layout) int {
	viewport := layout.Viewport()
	visible := 0
	for _, t := range tokens {
		bounds, ok := layout.TokenBounds(t)
		if ok && bounds.Intersects(viewport) {
			visible++
		}
	}
	return visible
}
