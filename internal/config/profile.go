package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kyiku/coin-gacha-back/internal/coin"
	"github.com/kyiku/coin-gacha-back/internal/maintenance"
)

// Built-in profile names.
const (
	ProfileDesktop = "desktop"
	ProfileMobile  = "mobile"
)

// Profile is the tuning of one device class. Durations are milliseconds.
type Profile struct {
	Target            int               `yaml:"target"`
	IntervalMs        int               `yaml:"interval_ms"`
	RetryDelayMs      int               `yaml:"retry_delay_ms"`
	InitialBatch      int               `yaml:"initial_batch"`
	StartupDelayMinMs int               `yaml:"startup_delay_min_ms"`
	StartupDelayMaxMs int               `yaml:"startup_delay_max_ms"`
	TopUpDelayMs      int               `yaml:"top_up_delay_ms"`
	DispenseDelayMs   int               `yaml:"dispense_delay_ms"`
	ResizeDebounceMs  int               `yaml:"resize_debounce_ms"`
	BadgePadding      float64           `yaml:"badge_padding"`
	CoinScale         float64           `yaml:"coin_scale"`
	Engine            coin.EngineConfig `yaml:"engine"`
	Regions           coin.RegionRules  `yaml:"regions"`
}

// DesktopProfile returns the built-in desktop tuning.
func DesktopProfile() Profile {
	return Profile{
		Target:           18,
		IntervalMs:       2000,
		RetryDelayMs:     200,
		DispenseDelayMs:  400,
		ResizeDebounceMs: 300,
		BadgePadding:     8,
		CoinScale:        1,
		Engine:           coin.DefaultEngineConfig(),
		Regions:          coin.DefaultRegionRules(),
	}
}

// MobileProfile returns the built-in mobile tuning: fewer coins, a tighter
// ring and a staged startup.
func MobileProfile() Profile {
	p := DesktopProfile()
	p.Target = 10
	p.InitialBatch = 6
	p.StartupDelayMinMs = 100
	p.StartupDelayMaxMs = 100
	p.TopUpDelayMs = 600
	p.Engine.RingOuterGap = 150
	return p
}

// DefaultProfiles returns the built-in profiles by name.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		ProfileDesktop: DesktopProfile(),
		ProfileMobile:  MobileProfile(),
	}
}

// ParseProfiles decodes a YAML profile document. Fields left out of a
// profile inherit the desktop values.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	var raw struct {
		Profiles map[string]yaml.Node `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse game profiles: %w", err)
	}

	profiles := DefaultProfiles()
	for name, node := range raw.Profiles {
		p, ok := profiles[name]
		if !ok {
			p = DesktopProfile()
		}
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode profile %s: %w", name, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		profiles[name] = p
	}
	return profiles, nil
}

// LoadProfile returns the named profile, reading overrides from path when
// it is set.
func LoadProfile(path, name string) (Profile, error) {
	profiles := DefaultProfiles()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Profile{}, fmt.Errorf("failed to read game config: %w", err)
		}
		profiles, err = ParseProfiles(data)
		if err != nil {
			return Profile{}, err
		}
	}

	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown game profile: %s", name)
	}
	return p, nil
}

// Validate checks the profile values.
func (p Profile) Validate() error {
	if p.Target <= 0 {
		return fmt.Errorf("target must be positive, got %d", p.Target)
	}
	if p.InitialBatch < 0 {
		return fmt.Errorf("initial batch must not be negative, got %d", p.InitialBatch)
	}
	if p.StartupDelayMaxMs < p.StartupDelayMinMs {
		return fmt.Errorf("startup delay range is inverted: %d > %d", p.StartupDelayMinMs, p.StartupDelayMaxMs)
	}
	if p.Engine.RingOuterGap < p.Engine.RingInnerGap {
		return fmt.Errorf("ring outer gap %.0f is below inner gap %.0f", p.Engine.RingOuterGap, p.Engine.RingInnerGap)
	}
	return nil
}

// Maintenance returns the maintenance loop settings with the given startup delay.
func (p Profile) Maintenance(startupDelay time.Duration) maintenance.Config {
	return maintenance.Config{
		Target:       p.Target,
		Interval:     ms(p.IntervalMs),
		RetryDelay:   ms(p.RetryDelayMs),
		InitialBatch: p.InitialBatch,
		StartupDelay: startupDelay,
		TopUpDelay:   ms(p.TopUpDelayMs),
	}
}

// DispenseDelay returns the knob-to-capsule wait.
func (p Profile) DispenseDelay() time.Duration {
	return ms(p.DispenseDelayMs)
}

// ResizeDebounce returns the resize quiet period.
func (p Profile) ResizeDebounce() time.Duration {
	return ms(p.ResizeDebounceMs)
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
