package delay

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRangeGenerator_Range(t *testing.T) {
	tests := []struct {
		name  string
		minMs int
		maxMs int
	}{
		{
			name:  "正常系: 50-150ミリ秒の範囲",
			minMs: 50,
			maxMs: 150,
		},
		{
			name:  "正常系: 同じ値",
			minMs: 100,
			maxMs: 100,
		},
		{
			name:  "正常系: 上限が下限より小さい",
			minMs: 100,
			maxMs: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := NewRangeGenerator(tt.minMs, tt.maxMs)

			for i := 0; i < 100; i++ {
				d := generator.Generate()

				assert.GreaterOrEqual(t, d, time.Duration(tt.minMs)*time.Millisecond)
				assert.LessOrEqual(t, d, time.Duration(max(tt.minMs, tt.maxMs))*time.Millisecond)
			}
		})
	}
}

func TestRangeGenerator_Randomness(t *testing.T) {
	generator := NewRangeGenerator(0, 1000)

	results := make(map[time.Duration]bool)
	for i := 0; i < 50; i++ {
		results[generator.Generate()] = true
	}

	assert.Greater(t, len(results), 5, "50回の生成で5種類以上の値が出るべき")
}

func TestTimer_Schedule(t *testing.T) {
	timer := NewTimer()
	var called atomic.Int32

	timer.Schedule(20*time.Millisecond, func() { called.Add(1) })
	assert.True(t, timer.Pending())

	assert.Eventually(t, func() bool { return called.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, timer.Pending())
}

func TestTimer_Cancel(t *testing.T) {
	timer := NewTimer()
	var called atomic.Int32

	timer.Schedule(30*time.Millisecond, func() { called.Add(1) })
	timer.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), called.Load(), "キャンセル後はコールバックが呼ばれない")
	assert.False(t, timer.Pending())
}

func TestTimer_Reschedule(t *testing.T) {
	timer := NewTimer()
	var first, second atomic.Int32

	timer.Schedule(30*time.Millisecond, func() { first.Add(1) })
	timer.Schedule(30*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "置き換えられたコールバックは呼ばれない")
}

func TestDebouncer_Trigger(t *testing.T) {
	d := NewDebouncer(40 * time.Millisecond)
	var called atomic.Int32

	for i := 0; i < 5; i++ {
		d.Trigger(func() { called.Add(1) })
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return called.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), called.Load(), "連続トリガーは1回にまとめられる")
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var called atomic.Int32

	d.Trigger(func() { called.Add(1) })
	d.Cancel()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), called.Load())
	assert.False(t, d.Pending())
}

func TestStartupDelay(t *testing.T) {
	tests := []struct {
		name    string
		minMs   int
		maxMs   int
		wantMin time.Duration
		wantMax time.Duration
	}{
		{name: "デスクトップ: 即時", minMs: 0, maxMs: 0, wantMin: 0, wantMax: 0},
		{name: "モバイル: 範囲内", minMs: 100, maxMs: 300, wantMin: 100 * time.Millisecond, wantMax: 300 * time.Millisecond},
		{name: "固定値", minMs: 50, maxMs: 50, wantMin: 50 * time.Millisecond, wantMax: 50 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				d := StartupDelay(tt.minMs, tt.maxMs)
				assert.GreaterOrEqual(t, d, tt.wantMin)
				assert.LessOrEqual(t, d, tt.wantMax)
			}
		})
	}
}
