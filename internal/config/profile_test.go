package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/coin-gacha-back/internal/coin"
)

func TestDefaultProfiles(t *testing.T) {
	desktop := DesktopProfile()
	mobile := MobileProfile()

	assert.Equal(t, 18, desktop.Target)
	assert.Equal(t, 200.0, desktop.Engine.RingOuterGap)
	assert.Zero(t, desktop.InitialBatch, "デスクトップは段階起動しない")
	assert.Equal(t, 400*time.Millisecond, desktop.DispenseDelay())
	assert.Equal(t, 300*time.Millisecond, desktop.ResizeDebounce())

	assert.Equal(t, 10, mobile.Target)
	assert.Equal(t, 150.0, mobile.Engine.RingOuterGap)
	assert.Equal(t, 6, mobile.InitialBatch)
	assert.Equal(t, 100, mobile.StartupDelayMinMs)

	assert.NoError(t, desktop.Validate())
	assert.NoError(t, mobile.Validate())
}

func TestProfile_Maintenance(t *testing.T) {
	cfg := MobileProfile().Maintenance(100 * time.Millisecond)

	assert.Equal(t, 10, cfg.Target)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 6, cfg.InitialBatch)
	assert.Equal(t, 100*time.Millisecond, cfg.StartupDelay)
	assert.Equal(t, 600*time.Millisecond, cfg.TopUpDelay)
}

func TestParseProfiles(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		check   func(t *testing.T, profiles map[string]Profile)
		wantErr bool
	}{
		{
			name: "正常系: 一部の値だけ上書き",
			yaml: `
profiles:
  desktop:
    target: 24
    engine:
      ring_outer_gap: 250
`,
			check: func(t *testing.T, profiles map[string]Profile) {
				d := profiles[ProfileDesktop]
				assert.Equal(t, 24, d.Target)
				assert.Equal(t, 250.0, d.Engine.RingOuterGap)
				assert.Equal(t, 30.0, d.Engine.RingInnerGap, "未指定の値は既定値のまま")
				assert.Equal(t, 400, d.DispenseDelayMs)
				assert.Equal(t, 10, profiles[ProfileMobile].Target, "他のプロファイルは既定値")
			},
		},
		{
			name: "正常系: 新しいプロファイルはデスクトップを継承",
			yaml: `
profiles:
  tablet:
    target: 14
    regions:
      machine:
        extra_clearance: 20
`,
			check: func(t *testing.T, profiles map[string]Profile) {
				tab := profiles["tablet"]
				assert.Equal(t, 14, tab.Target)
				assert.Equal(t, 20.0, tab.Regions[coin.AnchorMachine].ExtraClearance)
				assert.Equal(t, 8.0, tab.Regions[coin.AnchorTitle].Padding)
			},
		},
		{
			name:    "異常系: 不正なYAML",
			yaml:    "profiles: [",
			wantErr: true,
		},
		{
			name: "異常系: 目標数が0",
			yaml: `
profiles:
  desktop:
    target: 0
`,
			wantErr: true,
		},
		{
			name: "異常系: 外側の間隔が内側より小さい",
			yaml: `
profiles:
  mobile:
    engine:
      ring_outer_gap: 10
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles, err := ParseProfiles([]byte(tt.yaml))

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, profiles)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	t.Run("正常系: ファイルなしは組み込みプロファイル", func(t *testing.T) {
		p, err := LoadProfile("", ProfileMobile)
		require.NoError(t, err)
		assert.Equal(t, MobileProfile(), p)
	})

	t.Run("正常系: ファイルから読み込み", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "game.yaml")
		require.NoError(t, os.WriteFile(path, []byte("profiles:\n  desktop:\n    target: 30\n"), 0o600))

		p, err := LoadProfile(path, ProfileDesktop)
		require.NoError(t, err)
		assert.Equal(t, 30, p.Target)
	})

	t.Run("異常系: 存在しないプロファイル", func(t *testing.T) {
		_, err := LoadProfile("", "watch")
		assert.Error(t, err)
	})

	t.Run("異常系: ファイルが存在しない", func(t *testing.T) {
		_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"), ProfileDesktop)
		assert.Error(t, err)
	})
}

func TestLoadProfile_ExampleFile(t *testing.T) {
	path := filepath.Join("..", "..", "game.example.yaml")

	desktop, err := LoadProfile(path, ProfileDesktop)
	require.NoError(t, err)
	assert.Equal(t, DesktopProfile(), desktop, "例の値は既定値と同じ")

	mobile, err := LoadProfile(path, ProfileMobile)
	require.NoError(t, err)
	assert.Equal(t, MobileProfile(), mobile)

	kiosk, err := LoadProfile(path, "kiosk")
	require.NoError(t, err)
	assert.Equal(t, 24, kiosk.Target)
	assert.Equal(t, 1.5, kiosk.CoinScale)
	assert.Equal(t, 20.0, kiosk.Regions[coin.AnchorMachine].ExtraClearance)
	assert.Equal(t, DesktopProfile().IntervalMs, kiosk.IntervalMs, "未指定はデスクトップを継承")
}
