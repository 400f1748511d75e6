package track

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrTooFewWaypoints = errors.New("track: at least 2 waypoints are required")
	ErrBadArcLength    = errors.New("track: waypoint s must be strictly increasing")
	ErrBadLoopLength   = errors.New("track: loop length must exceed the last waypoint s")
	ErrZeroSegment     = errors.New("track: zero-length segment")
)

// Waypoint 参考线航点
// 功能：记录参考线上一个点的笛卡尔坐标、累计弧长与横向单位法向量
type Waypoint struct {
	X  float64 // x坐标
	Y  float64 // y坐标
	S  float64 // 自环线起点的累计弧长
	DX float64 // 横向单位法向量x分量（指向横向偏移增大的方向）
	DY float64 // 横向单位法向量y分量
}

// Track 环形参考线
// 功能：保存闭合环线的有序航点，提供笛卡尔坐标与曲线坐标之间的相互转换
// 说明：加载后只读，所有规划周期共享；最后一个航点的后继是第一个航点
type Track struct {
	waypoints []Waypoint
	ss        []float64 // 航点记录的弧长
	cumLength []float64 // 从0号航点沿折线到i号航点的累计长度
	headings  []float64 // 第i段（i -> i+1，末段回到0号）的方向（atan2）
	maxS      float64   // 环线总长
}

// New 创建参考线
// 功能：校验航点序列并预计算折线长度与各段方向
// 参数：waypoints-有序航点，maxS-环线总长
// 返回：参考线实例，校验失败时返回错误
// 算法说明：
// 1. 航点数不少于2，弧长严格递增，环线总长大于末航点弧长
// 2. 计算每段长度（含末段回到起点的闭合段），拒绝零长度段
// 3. 累加得到各航点处的折线累计长度
func New(waypoints []Waypoint, maxS float64) (*Track, error) {
	n := len(waypoints)
	if n < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrTooFewWaypoints, n)
	}
	ss := make([]float64, n)
	for i, wp := range waypoints {
		if i > 0 && wp.S <= waypoints[i-1].S {
			return nil, fmt.Errorf("%w at index %d (%v <= %v)", ErrBadArcLength, i, wp.S, waypoints[i-1].S)
		}
		ss[i] = wp.S
	}
	if maxS <= ss[n-1] {
		return nil, fmt.Errorf("%w (max_s=%v, last s=%v)", ErrBadLoopLength, maxS, ss[n-1])
	}
	segLength := make([]float64, n)
	headings := make([]float64, n)
	for i := range n {
		a, b := waypoints[i], waypoints[(i+1)%n]
		segLength[i] = math.Hypot(b.X-a.X, b.Y-a.Y)
		if segLength[i] == 0 {
			return nil, fmt.Errorf("%w between waypoints %d and %d", ErrZeroSegment, i, (i+1)%n)
		}
		headings[i] = math.Atan2(b.Y-a.Y, b.X-a.X)
	}
	// cumLength[i]为前i段长度之和
	cumLength := make([]float64, n)
	floats.CumSum(cumLength[1:], segLength[:n-1])

	t := &Track{
		waypoints: append([]Waypoint(nil), waypoints...),
		ss:        ss,
		cumLength: cumLength,
		headings:  headings,
		maxS:      maxS,
	}
	log.Debugf("track loaded: %d waypoints, max_s=%v, polyline length=%v",
		n, maxS, cumLength[n-1]+segLength[n-1])
	return t, nil
}

func (t *Track) String() string {
	return fmt.Sprintf("Track{waypoints=%d, max_s=%v}", len(t.waypoints), t.maxS)
}

// 获取环线总长
func (t *Track) MaxS() float64 {
	return t.maxS
}

// 获取航点数量
func (t *Track) Len() int {
	return len(t.waypoints)
}

// 获取第i个航点
func (t *Track) Waypoint(i int) Waypoint {
	return t.waypoints[i]
}

// Wrap 将弧长归一化到[0, maxS)
func (t *Track) Wrap(s float64) float64 {
	s = math.Mod(s, t.maxS)
	if s < 0 {
		s += t.maxS
	}
	return s
}

// next 环形意义下的后继航点
func (t *Track) next(i int) int {
	return (i + 1) % len(t.waypoints)
}

// prev 环形意义下的前驱航点
func (t *Track) prev(i int) int {
	if i == 0 {
		return len(t.waypoints) - 1
	}
	return i - 1
}
