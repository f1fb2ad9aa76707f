package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRect_DistanceTo(t *testing.T) {
	r := Rect{Left: 500, Top: 300, Right: 700, Bottom: 500}

	tests := []struct {
		name string
		p    Point
		want float64
	}{
		{name: "内側: 距離ゼロ", p: Point{X: 600, Y: 400}, want: 0},
		{name: "辺上: 距離ゼロ", p: Point{X: 500, Y: 400}, want: 0},
		{name: "左側", p: Point{X: 440, Y: 400}, want: 60},
		{name: "下側", p: Point{X: 600, Y: 560}, want: 60},
		{name: "右上の角", p: Point{X: 703, Y: 296}, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, r.DistanceTo(tt.p), 1e-9)
		})
	}
}

func TestRect_Intersects(t *testing.T) {
	base := RectFromSize(0, 0, 10, 10)

	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{name: "重ならない: 離れている", other: RectFromSize(20, 20, 10, 10), want: false},
		{name: "重ならない: 隣接（右）", other: RectFromSize(10, 0, 10, 10), want: false},
		{name: "重ならない: 隣接（下）", other: RectFromSize(0, 10, 10, 10), want: false},
		{name: "重なる: 部分的に重複", other: RectFromSize(5, 5, 10, 10), want: true},
		{name: "重なる: 完全に含む", other: RectFromSize(2, 2, 3, 3), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Intersects(tt.other))
			assert.Equal(t, tt.want, tt.other.Intersects(base))
		})
	}
}

func TestRect_Helpers(t *testing.T) {
	r := RectFromSize(100, 50, 200, 80)

	assert.Equal(t, 200.0, r.Width())
	assert.Equal(t, 80.0, r.Height())
	assert.Equal(t, Point{X: 200, Y: 90}, r.Center())
	assert.Equal(t, 100.0, r.Radius())
	assert.Equal(t, Rect{Left: 92, Top: 42, Right: 308, Bottom: 138}, r.Pad(8))
	assert.Equal(t, Rect{Left: 120, Top: 70, Right: 280, Bottom: 110}, r.Inset(20))
	assert.True(t, r.Contains(Point{X: 100, Y: 50}))
	assert.False(t, r.Contains(Point{X: 99, Y: 50}))
	assert.True(t, r.Inset(50).Empty())
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(Point{X: 0, Y: 0}, Point{X: 3, Y: 4}))
	assert.Equal(t, 0.0, Distance(Point{X: 7, Y: 7}, Point{X: 7, Y: 7}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5.0, Clamp(5, 0, 10))
	assert.Equal(t, 0.0, Clamp(-3, 0, 10))
	assert.Equal(t, 10.0, Clamp(30, 0, 10))
	assert.Equal(t, 0.0, Clamp(5, 0, -10))
}
