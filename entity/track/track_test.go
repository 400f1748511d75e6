package track_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/highway-planner/entity/track"
)

const (
	centerX = 1000
	centerY = 2000
	radius  = 500
	sides   = 64
)

func newLoop(t *testing.T) *track.Track {
	t.Helper()
	tr, err := track.NewPolygonLoop(centerX, centerY, radius, sides)
	require.NoError(t, err)
	return tr
}

// segmentPoint 第k段上比例f处、横向偏移d的点，以及该段方向
func segmentPoint(tr *track.Track, k int, f, d float64) (x, y, heading float64) {
	a, b := tr.Waypoint(k), tr.Waypoint((k+1)%tr.Len())
	heading = math.Atan2(b.Y-a.Y, b.X-a.X)
	x = a.X + f*(b.X-a.X) + d*math.Sin(heading)
	y = a.Y + f*(b.Y-a.Y) - d*math.Cos(heading)
	return
}

func TestNewRejectsBadTracks(t *testing.T) {
	_, err := track.New(nil, 10)
	assert.ErrorIs(t, err, track.ErrTooFewWaypoints)

	_, err = track.New([]track.Waypoint{{X: 0, Y: 0, S: 0}}, 10)
	assert.ErrorIs(t, err, track.ErrTooFewWaypoints)

	_, err = track.New([]track.Waypoint{
		{X: 0, Y: 0, S: 0},
		{X: 1, Y: 0, S: 1},
		{X: 2, Y: 0, S: 1},
	}, 10)
	assert.ErrorIs(t, err, track.ErrBadArcLength)

	_, err = track.New([]track.Waypoint{
		{X: 0, Y: 0, S: 0},
		{X: 1, Y: 0, S: 1},
	}, 1)
	assert.ErrorIs(t, err, track.ErrBadLoopLength)

	_, err = track.New([]track.Waypoint{
		{X: 0, Y: 0, S: 0},
		{X: 0, Y: 0, S: 1},
	}, 2)
	assert.ErrorIs(t, err, track.ErrZeroSegment)
}

func TestNewMinimalTrack(t *testing.T) {
	tr, err := track.New([]track.Waypoint{
		{X: 0, Y: 0, S: 0},
		{X: 10, Y: 0, S: 10},
	}, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 20.0, tr.MaxS())
}

func TestWrap(t *testing.T) {
	tr := newLoop(t)
	maxS := tr.MaxS()
	assert.InDelta(t, 10, tr.Wrap(maxS+10), 1e-9)
	assert.InDelta(t, maxS-5, tr.Wrap(-5), 1e-9)
	assert.InDelta(t, 0, tr.Wrap(maxS), 1e-9)
	assert.InDelta(t, 123.4, tr.Wrap(123.4), 1e-12)
}

func TestClosestWaypoint(t *testing.T) {
	tr := newLoop(t)
	for _, i := range []int{0, 1, 17, sides - 1} {
		wp := tr.Waypoint(i)
		assert.Equal(t, i, tr.ClosestWaypoint(wp.X+0.5, wp.Y-0.5))
	}
}

func TestNextWaypointIsAhead(t *testing.T) {
	tr := newLoop(t)
	// 段内靠近起点：最近航点在车后，需前进一个
	x, y, h := segmentPoint(tr, 5, 0.3, 0)
	assert.Equal(t, 5, tr.ClosestWaypoint(x, y))
	assert.Equal(t, 6, tr.NextWaypoint(x, y, h))
	// 段内靠近终点：最近航点已在前方
	x, y, h = segmentPoint(tr, 5, 0.7, 0)
	assert.Equal(t, 6, tr.NextWaypoint(x, y, h))
	// 末段回绕到0号航点
	x, y, h = segmentPoint(tr, sides-1, 0.3, 0)
	assert.Equal(t, 0, tr.NextWaypoint(x, y, h))
}

func TestNextWaypointAnyHeadingRange(t *testing.T) {
	tr := newLoop(t)
	for _, k := range []int{1, 20, sides - 1} {
		for _, f := range []float64{0.3, 0.7} {
			x, y, h := segmentPoint(tr, k, f, 2)
			want := tr.NextWaypoint(x, y, h)
			base := tr.ToFrenet(x, y, h)
			for _, turns := range []float64{-2, -1, 1, 3} {
				heading := h + turns*2*math.Pi
				assert.Equal(t, want, tr.NextWaypoint(x, y, heading), "k=%d f=%v turns=%v", k, f, turns)
				fr := tr.ToFrenet(x, y, heading)
				assert.InDelta(t, base.S, fr.S, 1e-9, "k=%d f=%v turns=%v", k, f, turns)
				assert.InDelta(t, base.D, fr.D, 1e-9, "k=%d f=%v turns=%v", k, f, turns)
			}
		}
	}
}

func TestToFrenet(t *testing.T) {
	tr := newLoop(t)
	chord := tr.Waypoint(1).S
	for _, k := range []int{0, 9, sides - 1} {
		for _, f := range []float64{0.3, 0.7} {
			for _, d := range []float64{0, 2, 6, 10, -2} {
				x, y, h := segmentPoint(tr, k, f, d)
				fr := tr.ToFrenet(x, y, h)
				assert.InDelta(t, tr.Waypoint(k).S+f*chord, fr.S, 1e-6, "k=%d f=%v d=%v", k, f, d)
				assert.InDelta(t, d, fr.D, 1e-6, "k=%d f=%v d=%v", k, f, d)
			}
		}
	}
}

func TestToCartesianAtWaypoints(t *testing.T) {
	tr := newLoop(t)
	for _, i := range []int{0, 1, 30, sides - 1} {
		wp := tr.Waypoint(i)
		p := tr.ToCartesian(wp.S, 0)
		assert.InDelta(t, wp.X, p.X, 1e-9)
		assert.InDelta(t, wp.Y, p.Y, 1e-9)
	}
}

func TestToCartesianOffsetFollowsNormal(t *testing.T) {
	tr := newLoop(t)
	wp := tr.Waypoint(10)
	next := tr.Waypoint(11)
	s := (wp.S + next.S) / 2
	center := tr.ToCartesian(s, 0)
	out := tr.ToCartesian(s, 6)
	// 正偏移远离环线中心
	assert.Greater(t,
		math.Hypot(out.X-centerX, out.Y-centerY),
		math.Hypot(center.X-centerX, center.Y-centerY),
	)
	assert.InDelta(t, 6, math.Hypot(out.X-center.X, out.Y-center.Y), 1e-9)
	assert.InDelta(t, math.Atan2(next.Y-wp.Y, next.X-wp.X), out.Heading, 1e-12)
}

func TestRoundTrip(t *testing.T) {
	tr := newLoop(t)
	for _, k := range []int{0, 3, 40, sides - 1} {
		for _, f := range []float64{0.3, 0.7} {
			for _, d := range []float64{0, 2, 6, 10} {
				x, y, h := segmentPoint(tr, k, f, d)
				fr := tr.ToFrenet(x, y, h)
				p := tr.ToCartesian(fr.S, fr.D)
				tol := 1e-6
				if d == 0 {
					tol = 1e-9
				}
				assert.InDelta(t, x, p.X, tol, "k=%d f=%v d=%v", k, f, d)
				assert.InDelta(t, y, p.Y, tol, "k=%d f=%v d=%v", k, f, d)
			}
		}
	}
}
