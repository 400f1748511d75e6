package ego

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/highway-planner/entity"
)

// straightTrack 沿x轴的直线参考线，用于检查轨迹生成的几何性质
// 右手法向为-y方向，即横向偏移d对应y=-d
type straightTrack struct{}

func (straightTrack) MaxS() float64 {
	return 1e6
}

func (straightTrack) Len() int {
	return 2
}

func (straightTrack) Wrap(s float64) float64 {
	return math.Mod(s, 1e6)
}

func (straightTrack) ClosestWaypoint(x, y float64) int {
	return 0
}

func (straightTrack) NextWaypoint(x, y, heading float64) int {
	return 1
}

func (straightTrack) ToFrenet(x, y, heading float64) entity.Frenet {
	return entity.Frenet{S: x, D: -y}
}

func (straightTrack) ToCartesian(s, d float64) entity.Pose {
	return entity.Pose{X: s, Y: -d}
}

// lanePath 直线参考线上车道lane中心、从s0开始、间距step的n个点
func lanePath(lane int, s0, step float64, n int) entity.Trajectory {
	path := make(entity.Trajectory, n)
	for i := range n {
		path[i] = entity.Point{X: s0 + step*float64(i), Y: -LaneCenter(lane)}
	}
	return path
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestFrameRoundTrip(t *testing.T) {
	f := newFrame(entity.Pose{X: 12, Y: -3, Heading: 0.7})
	p := entity.Point{X: 40.5, Y: 8.25}
	local := f.toLocal(p)
	assert.Empty(t, cmp.Diff(p, f.toWorld(local), approx))
	// 沿朝向前方1米的点在自车坐标系中为(1, 0)
	ahead := entity.Point{X: 12 + math.Cos(0.7), Y: -3 + math.Sin(0.7)}
	assert.Empty(t, cmp.Diff(entity.Point{X: 1, Y: 0}, f.toLocal(ahead), approx))
}

func TestStartAnchorsFromRetained(t *testing.T) {
	retained := lanePath(1, 10, 0.4, 5)
	ref, anchors := startAnchors(entity.Pose{X: 0, Y: 0, Heading: 2}, retained)
	assert.Equal(t, retained[3], anchors[0])
	assert.Equal(t, retained[4], anchors[1])
	assert.Equal(t, retained[4].X, ref.X)
	assert.Equal(t, retained[4].Y, ref.Y)
	assert.InDelta(t, 0, ref.Heading, 1e-12)
}

func TestStartAnchorsSynthesized(t *testing.T) {
	pose := entity.Pose{X: 5, Y: 7, Heading: math.Pi / 2}
	for _, retained := range []entity.Trajectory{nil, lanePath(1, 10, 0.4, 1)} {
		ref, anchors := startAnchors(pose, retained)
		assert.Equal(t, pose, ref)
		assert.Empty(t, cmp.Diff(entity.Point{X: 5, Y: 6}, anchors[0], approx))
		assert.Equal(t, pose.Point(), anchors[1])
	}
}

func TestStartAnchorsCoincident(t *testing.T) {
	p := entity.Point{X: 3, Y: -6}
	ref, anchors := startAnchors(entity.Pose{X: 0, Y: 0, Heading: 0}, entity.Trajectory{p, p})
	assert.Equal(t, entity.Pose{X: 3, Y: -6, Heading: 0}, ref)
	assert.Empty(t, cmp.Diff(entity.Point{X: 2, Y: -6}, anchors[0], approx))
}

func TestFitSplineRejectsNonMonotonic(t *testing.T) {
	_, err := fitSpline([]entity.Point{{X: 0}, {X: 1}, {X: 1}, {X: 2}})
	assert.ErrorIs(t, err, ErrNonMonotonicAnchors)
	_, err = fitSpline([]entity.Point{{X: 0}, {X: 2}, {X: 1}})
	assert.ErrorIs(t, err, ErrNonMonotonicAnchors)
}

func TestFitSplineInterpolatesAnchors(t *testing.T) {
	pts := []entity.Point{{X: -1, Y: 0}, {X: 0, Y: 0}, {X: 30, Y: 2}, {X: 60, Y: 4}, {X: 90, Y: 4}}
	spline, err := fitSpline(pts)
	require.NoError(t, err)
	for _, p := range pts {
		assert.InDelta(t, p.Y, spline.Predict(p.X), 1e-9)
	}
}

func TestGenerateHorizonInvariant(t *testing.T) {
	pose := entity.Pose{X: 100, Y: -LaneCenter(1)}
	for n := 0; n <= Horizon; n++ {
		retained := lanePath(1, 100, 0.4, n)
		egoS := 100 + 0.4*float64(max(n-1, 0))
		traj, err := generate(straightTrack{}, pose, retained, egoS, State{Lane: 1, Speed: 44.8})
		require.NoError(t, err, "retained %d", n)
		assert.Len(t, traj, Horizon, "retained %d", n)
		// 保留轨迹原样输出
		assert.Equal(t, retained, traj[:n])
	}
}

func TestGenerateTruncatesLongRetainedPath(t *testing.T) {
	retained := lanePath(1, 100, 0.4, Horizon+7)
	traj, err := generate(straightTrack{}, entity.Pose{X: 100, Y: -6}, retained, 120, State{Lane: 1, Speed: 44.8})
	require.NoError(t, err)
	assert.Equal(t, retained[:Horizon], traj)
}

func TestGenerateSpacingTracksSpeed(t *testing.T) {
	// 直线上保持车道，点间距应为 DT * speed / 2.24
	retained := lanePath(1, 100, 0.4, 10)
	for _, speed := range []float64{10, 22.4, 44.8} {
		traj, err := generate(straightTrack{}, entity.Pose{X: 100, Y: -6}, retained, 103.6, State{Lane: 1, Speed: speed})
		require.NoError(t, err)
		want := DT * speed / speedConversion
		for i := len(retained); i < Horizon; i++ {
			dist := math.Hypot(traj[i].X-traj[i-1].X, traj[i].Y-traj[i-1].Y)
			assert.InDelta(t, want, dist, 1e-6, "speed %v point %d", speed, i)
			assert.InDelta(t, -LaneCenter(1), traj[i].Y, 1e-6)
		}
	}
}

func TestGenerateZeroSpeedStaysAtReference(t *testing.T) {
	pose := entity.Pose{X: 100, Y: -6}
	traj, err := generate(straightTrack{}, pose, nil, 100, State{Lane: 1, Speed: 0})
	require.NoError(t, err)
	require.Len(t, traj, Horizon)
	for _, p := range traj {
		assert.Empty(t, cmp.Diff(pose.Point(), p, approx))
	}
}

func TestGenerateLaneChangeIsSmooth(t *testing.T) {
	// 从车道1驶向车道0：横向位置单调变化，且不越过目标车道中心
	retained := lanePath(1, 100, 0.4, 5)
	traj, err := generate(straightTrack{}, entity.Pose{X: 100, Y: -6}, retained, 101.6, State{Lane: 0, Speed: 44.8})
	require.NoError(t, err)
	for i := len(retained); i < Horizon; i++ {
		assert.GreaterOrEqual(t, traj[i].Y, traj[i-1].Y-1e-9, "point %d", i)
		assert.LessOrEqual(t, traj[i].Y, -LaneCenter(0)+1e-9)
		assert.Greater(t, traj[i].X, traj[i-1].X)
	}
	assert.Greater(t, traj[Horizon-1].Y, -LaneCenter(1))
}
