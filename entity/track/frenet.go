package track

import (
	"math"
	"sort"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/tsinghua-fib-lab/highway-planner/entity"
)

const (
	// 判断横向偏移符号所用的远处固定参考点
	// 近似方法：投影点比原始点更靠近该点时认为偏移为正（远离环线中心）
	// 仅在环线尺度远大于参考点偏移时成立；线段方向与偏移向量叉积的符号不依赖参考点
	farReferenceX = 1000
	farReferenceY = 2000

	// 朝向与航点方位夹角超过该值时认为航点在车后
	behindAngle = math.Pi / 4
)

var _ entity.ITrack = (*Track)(nil)

// ClosestWaypoint 距离(x, y)最近的航点
// 功能：遍历所有航点，返回欧氏距离最小者的下标（相等时取先遇到的）
func (t *Track) ClosestWaypoint(x, y float64) int {
	closestLen := mathutil.INF
	closest := 0
	for i, wp := range t.waypoints {
		if dist := math.Hypot(wp.X-x, wp.Y-y); dist < closestLen {
			closestLen = dist
			closest = i
		}
	}
	return closest
}

// NextWaypoint 朝向前方的下一个航点
// 功能：从最近航点出发，若该航点相对朝向的方位角超过45度（在车后）则前进一个航点
// 参数：x、y-位置，heading-朝向（弧度）
// 返回：航点下标，越过末航点时回到0
func (t *Track) NextWaypoint(x, y, heading float64) int {
	closest := t.ClosestWaypoint(x, y)
	wp := t.waypoints[closest]
	bearing := math.Atan2(wp.Y-y, wp.X-x)
	// 夹角归一化到[0, π]，朝向可为任意弧度
	angle := math.Abs(math.Remainder(heading-bearing, 2*math.Pi))
	if angle > behindAngle {
		closest = t.next(closest)
	}
	return closest
}

// ToFrenet 笛卡尔坐标转曲线坐标
// 功能：将(x, y)投影到下一个航点与其前驱构成的线段上
// 参数：x、y-位置，heading-朝向（弧度）
// 返回：曲线坐标{S, D}
// 算法说明：
// 1. 求下一个航点next及其前驱prev
// 2. 将(x, y)相对prev的向量投影到线段方向，D为到投影点的垂直距离
// 3. 用远处固定参考点判定D的符号（见farReferenceX）
// 4. S为prev处的折线累计长度加上投影长度
// 说明：航点处精确，航点之间为线性插值（弧长参数化的一阶近似）
func (t *Track) ToFrenet(x, y, heading float64) entity.Frenet {
	next := t.NextWaypoint(x, y, heading)
	prev := t.prev(next)
	a, b := t.waypoints[prev], t.waypoints[next]

	nX, nY := b.X-a.X, b.Y-a.Y
	xX, xY := x-a.X, y-a.Y

	projNorm := (xX*nX + xY*nY) / (nX*nX + nY*nY)
	projX, projY := projNorm*nX, projNorm*nY

	d := math.Hypot(xX-projX, xY-projY)

	centerX, centerY := farReferenceX-a.X, farReferenceY-a.Y
	centerToPos := math.Hypot(centerX-xX, centerY-xY)
	centerToRef := math.Hypot(centerX-projX, centerY-projY)
	if centerToPos <= centerToRef {
		d = -d
	}

	s := t.cumLength[prev] + math.Hypot(projX, projY)
	return entity.Frenet{S: s, D: d}
}

// ToCartesian 曲线坐标转笛卡尔坐标
// 功能：找到记录弧长区间包含s的线段，沿线段前进后再沿右手法向偏移d
// 参数：s-弧长（须已归一化到[0, maxS)，本函数不做回绕），d-横向偏移
// 返回：位姿，Heading为所在线段的方向
func (t *Track) ToCartesian(s, d float64) entity.Pose {
	prev := 0
	if i := sort.SearchFloat64s(t.ss, s); i > 0 {
		prev = i - 1
	}
	a := t.waypoints[prev]
	heading := t.headings[prev]

	segS := s - a.S
	segX := a.X + segS*math.Cos(heading)
	segY := a.Y + segS*math.Sin(heading)

	perpHeading := heading - math.Pi/2
	return entity.Pose{
		X:       segX + d*math.Cos(perpHeading),
		Y:       segY + d*math.Sin(perpHeading),
		Heading: heading,
	}
}
