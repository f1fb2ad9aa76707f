package coin

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	// Coin artwork may be shipped in any of these formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/labstack/gommon/log"
)

// DefaultCoinRadius is used until the coin image has been measured, and
// whenever measuring fails.
const DefaultCoinRadius = 50.0

// AssetSource provides raw asset bytes by key.
type AssetSource interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// RadiusSource supplies the current coin radius.
type RadiusSource interface {
	Radius() float64
}

// Measurer resolves the coin radius once from the coin image and caches it.
type Measurer struct {
	source   AssetSource
	key      string
	scale    float64
	fallback float64
	logger   *log.Logger

	mu       sync.RWMutex
	radius   float64
	resolved bool
	once     sync.Once
}

// NewMeasurer creates a Measurer. scale converts image pixels to rendered
// page pixels; a non-positive scale means 1.
func NewMeasurer(source AssetSource, key string, scale float64, logger *log.Logger) *Measurer {
	if scale <= 0 {
		scale = 1
	}
	if logger == nil {
		logger = log.New("coin")
	}
	return &Measurer{
		source:   source,
		key:      key,
		scale:    scale,
		fallback: DefaultCoinRadius,
		logger:   logger,
		radius:   DefaultCoinRadius,
	}
}

// NewFixedMeasurer returns a Measurer that is already resolved to radius.
func NewFixedMeasurer(radius float64) *Measurer {
	m := NewMeasurer(nil, "", 1, nil)
	m.radius = radius
	m.resolved = true
	m.once.Do(func() {})
	return m
}

// Radius returns the measured radius, or the provisional default before
// resolution has finished.
func (m *Measurer) Radius() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.radius
}

// MinDistance returns the minimum distance between two coin centers.
func (m *Measurer) MinDistance() float64 {
	return 2 * m.Radius()
}

// Resolved reports whether measuring has completed.
func (m *Measurer) Resolved() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolved
}

// Resolve measures the coin image. It runs at most once; failures fall back
// to DefaultCoinRadius.
func (m *Measurer) Resolve(ctx context.Context) float64 {
	m.once.Do(func() {
		radius, err := m.measure(ctx)
		if err != nil {
			m.logger.Warnf("coin measure failed, using default radius %.0f: %v", m.fallback, err)
			radius = m.fallback
		}

		m.mu.Lock()
		m.radius = radius
		m.resolved = true
		m.mu.Unlock()

		m.logger.Infof("Measured coin radius: %.1f minDistance: %.1f", radius, 2*radius)
	})
	return m.Radius()
}

// ResolveAsync runs Resolve in the background.
func (m *Measurer) ResolveAsync(ctx context.Context) {
	go m.Resolve(ctx)
}

func (m *Measurer) measure(ctx context.Context) (float64, error) {
	if m.source == nil {
		return 0, fmt.Errorf("no asset source configured")
	}

	data, err := m.source.GetObject(ctx, m.key)
	if err != nil {
		return 0, fmt.Errorf("failed to load coin image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode coin image: %w", err)
	}

	radius := math.Max(float64(cfg.Width), float64(cfg.Height)) / 2 * m.scale
	if radius <= 0 {
		return 0, fmt.Errorf("coin image has no size")
	}
	return radius, nil
}
