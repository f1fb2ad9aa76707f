package coin

import (
	"sync"

	"github.com/kyiku/coin-gacha-back/internal/geometry"
)

// Anchor names reported by the page.
const (
	AnchorTitle   = "title"
	AnchorMachine = "machine"
	AnchorTip     = "tip"
)

// Anchor is a decorative element used as a ring center and as a forbidden region.
type Anchor struct {
	Name string        `json:"name"`
	Rect geometry.Rect `json:"rect"`
}

// Exclusion is a UI zone coins must stay clear of, tested with its own padding.
type Exclusion struct {
	Name    string
	Rect    geometry.Rect
	Padding float64
}

// Layout is the live geometry collaborator. Every call must reflect the
// current layout; results are never cached by the caller.
type Layout interface {
	Viewport() geometry.Rect
	Anchors() []Anchor
	Exclusions() []Exclusion
	TokenBounds(t *Token) (geometry.Rect, bool)
}

// Snapshot is the layout report sent by the page.
type Snapshot struct {
	Viewport  geometry.Rect  `json:"viewport"`
	Container geometry.Rect  `json:"container"`
	Anchors   []Anchor       `json:"anchors"`
	Badge     *geometry.Rect `json:"badge,omitempty"`
	CoinSize  float64        `json:"coin_size,omitempty"`
}

// ClientLayout implements Layout from the most recent page report.
type ClientLayout struct {
	mu           sync.RWMutex
	snap         Snapshot
	reported     bool
	badgePadding float64
	coinSize     func() float64
}

// NewClientLayout creates a layout. coinSize supplies the coin element size
// when the page does not report one.
func NewClientLayout(badgePadding float64, coinSize func() float64) *ClientLayout {
	return &ClientLayout{
		badgePadding: badgePadding,
		coinSize:     coinSize,
	}
}

// Update replaces the current geometry with a new report.
func (l *ClientLayout) Update(s Snapshot) {
	anchors := make([]Anchor, 0, len(s.Anchors))
	for _, a := range s.Anchors {
		if a.Rect.Empty() {
			continue
		}
		anchors = append(anchors, a)
	}
	s.Anchors = anchors

	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = s
	l.reported = true
}

// Reported reports whether the page has sent any geometry yet.
func (l *ClientLayout) Reported() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reported
}

// Viewport returns the current viewport rectangle.
func (l *ClientLayout) Viewport() geometry.Rect {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap.Viewport
}

// Anchors returns the anchors present in the current layout.
func (l *ClientLayout) Anchors() []Anchor {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Anchor, len(l.snap.Anchors))
	copy(out, l.snap.Anchors)
	return out
}

// Exclusions returns the coin-count badge zone, if the page reported one.
func (l *ClientLayout) Exclusions() []Exclusion {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.snap.Badge == nil || l.snap.Badge.Empty() {
		return nil
	}
	return []Exclusion{{Name: "badge", Rect: *l.snap.Badge, Padding: l.badgePadding}}
}

// TokenBounds returns the on-screen rectangle of a token. The element offset
// inside the game container is clamped to the container, the same way the
// page positions it.
func (l *ClientLayout) TokenBounds(t *Token) (geometry.Rect, bool) {
	l.mu.RLock()
	snap := l.snap
	reported := l.reported
	l.mu.RUnlock()

	if !reported || t == nil {
		return geometry.Rect{}, false
	}

	size := snap.CoinSize
	if size <= 0 && l.coinSize != nil {
		size = l.coinSize()
	}

	c := snap.Container
	if c.Empty() {
		c = snap.Viewport
	}

	left := geometry.Clamp(t.Position.X-size/2-c.Left, 0, c.Width()-size)
	top := geometry.Clamp(t.Position.Y-size/2-c.Top, 0, c.Height()-size)
	return geometry.RectFromSize(c.Left+left, c.Top+top, size, size), true
}
