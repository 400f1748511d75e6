package ego

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/highway-planner/entity"
	"gonum.org/v1/gonum/interp"
)

// ErrNonMonotonicAnchors 自车坐标系下锚点的前向坐标不严格递增，无法拟合样条
var ErrNonMonotonicAnchors = errors.New("ego: anchor points are not strictly increasing along the forward axis")

// 判定两个保留轨迹点重合的距离阈值
const coincidentEpsilon = 1e-9

// frame 自车坐标系
// 功能：以参考位姿为原点、参考朝向为前向轴的局部坐标系
type frame struct {
	origin   entity.Point
	cos, sin float64
}

func newFrame(ref entity.Pose) frame {
	return frame{
		origin: ref.Point(),
		cos:    math.Cos(ref.Heading),
		sin:    math.Sin(ref.Heading),
	}
}

// toLocal 世界坐标 -> 自车坐标（先平移再旋转-heading）
func (f frame) toLocal(p entity.Point) entity.Point {
	dx, dy := p.X-f.origin.X, p.Y-f.origin.Y
	return entity.Point{
		X: dx*f.cos + dy*f.sin,
		Y: -dx*f.sin + dy*f.cos,
	}
}

// toWorld 自车坐标 -> 世界坐标（先旋转heading再平移）
func (f frame) toWorld(p entity.Point) entity.Point {
	return entity.Point{
		X: p.X*f.cos - p.Y*f.sin + f.origin.X,
		Y: p.X*f.sin + p.Y*f.cos + f.origin.Y,
	}
}

// startAnchors 轨迹起始锚点
// 功能：确定参考位姿与两个起始锚点，保证新轨迹的初始朝向与车辆实际行驶方向一致
// 参数：pose-本车位姿（弧度），retained-保留轨迹
// 返回：ref-参考位姿，anchors-按时间顺序的两个锚点（第二个即ref）
// 算法说明：
// 1. 保留轨迹至少2点且末两点不重合：取末两点，朝向为两点连线方向
// 2. 否则以本车位姿（或重合时的末点）为参考，沿朝向向后1米合成前一个点
func startAnchors(pose entity.Pose, retained entity.Trajectory) (ref entity.Pose, anchors [2]entity.Point) {
	n := len(retained)
	if n >= 2 {
		last, prev := retained[n-1], retained[n-2]
		if math.Hypot(last.X-prev.X, last.Y-prev.Y) > coincidentEpsilon {
			ref = entity.Pose{
				X:       last.X,
				Y:       last.Y,
				Heading: math.Atan2(last.Y-prev.Y, last.X-prev.X),
			}
			anchors = [2]entity.Point{prev, last}
			return
		}
		// 停车时保留轨迹末端重合，无法确定朝向
		ref = entity.Pose{X: last.X, Y: last.Y, Heading: pose.Heading}
	} else {
		ref = pose
	}
	anchors = [2]entity.Point{
		{X: ref.X - math.Cos(ref.Heading), Y: ref.Y - math.Sin(ref.Heading)},
		ref.Point(),
	}
	return
}

// futureAnchors 远处锚点
// 功能：在目标车道中心线上取egoS+30/60/90处的点，拉动轨迹平缓地驶入目标车道
func futureAnchors(track entity.ITrack, egoS float64, lane int) []entity.Point {
	d := LaneCenter(lane)
	return lo.Map(anchorOffsets[:], func(offset float64, _ int) entity.Point {
		return track.ToCartesian(track.Wrap(egoS+offset), d).Point()
	})
}

// checkMonotonic 样条拟合的前置条件：前向坐标严格递增
func checkMonotonic(xs []float64) error {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return fmt.Errorf("%w: x[%d]=%v, x[%d]=%v", ErrNonMonotonicAnchors, i-1, xs[i-1], i, xs[i])
		}
	}
	return nil
}

// fitSpline 在自车坐标系下拟合自然三次样条y(x)
func fitSpline(local []entity.Point) (*interp.NaturalCubic, error) {
	xs := make([]float64, len(local))
	ys := make([]float64, len(local))
	for i, p := range local {
		xs[i], ys[i] = p.X, p.Y
	}
	if err := checkMonotonic(xs); err != nil {
		return nil, err
	}
	var spline interp.NaturalCubic
	if err := spline.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("ego: spline fit: %w", err)
	}
	return &spline, nil
}

// generate 轨迹生成
// 功能：从车辆当前轨迹出发，以指令速度平滑驶向目标车道
// 参数：track-参考线，pose-本车位姿，retained-保留轨迹，egoS-本车弧长，state-本周期行为规划后的状态
// 返回：长度恰为Horizon的轨迹
// 算法说明：
// 1. 锚点：2个起始锚点 + 目标车道上3个远处锚点
// 2. 将锚点变换到自车坐标系，拟合自然三次样条
// 3. 原样保留上一周期未消耗的轨迹点
// 4. 在前向轴上按步长30/N离散样条，N = 前视点直线距离 / (DT * 指令速度/2.24)，
// 使得相邻点之间恰好以指令速度行驶一个DT
// 5. 将新点变换回世界坐标并追加，直到总数达到Horizon
func generate(
	track entity.ITrack, pose entity.Pose, retained entity.Trajectory,
	egoS float64, state State,
) (entity.Trajectory, error) {
	if len(retained) > Horizon {
		retained = retained[:Horizon]
	}
	ref, start := startAnchors(pose, retained)
	f := newFrame(ref)

	anchors := append(start[:], futureAnchors(track, egoS, state.Lane)...)
	local := lo.Map(anchors, func(p entity.Point, _ int) entity.Point {
		return f.toLocal(p)
	})
	spline, err := fitSpline(local)
	if err != nil {
		return nil, err
	}

	out := make(entity.Trajectory, 0, Horizon)
	out = append(out, retained...)

	targetX := Lookahead
	targetY := spline.Predict(targetX)
	targetDist := math.Hypot(targetX, targetY)
	// 指令速度为0时n为+Inf，步长为0，新点停在参考位置
	n := targetDist / (DT * state.Speed / speedConversion)
	step := targetX / n

	x := 0.0
	for len(out) < Horizon {
		x += step
		out = append(out, f.toWorld(entity.Point{X: x, Y: spline.Predict(x)}))
	}
	return out, nil
}
