package ego

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/highway-planner/entity"
)

// TrackedVehicle 本周期内由观测推导出的他车信息
type TrackedVehicle struct {
	ID         int64   // 观测ID
	Lane       int     // 所在车道，无法归类时为entity.NoLane
	ProjectedS float64 // 本车消耗完保留轨迹时他车的预计弧长
	Speed      float64 // 速度
}

func (v TrackedVehicle) String() string {
	return fmt.Sprintf("Vehicle{id=%d, lane=%d, s=%.2f, v=%.2f}", v.ID, v.Lane, v.ProjectedS, v.Speed)
}

// LaneOf 根据横向偏移判断所在车道
// 功能：车道k占据(4k, 4k+4)，恰好位于边界上或超出所有车道的偏移不归类
// 返回：车道编号或entity.NoLane
func LaneOf(d float64) int {
	for k := range LaneCount {
		low := LaneWidth * float64(k)
		if d > low && d < low+LaneWidth {
			return k
		}
	}
	return entity.NoLane
}

// NewTrackedVehicle 由原始观测推导他车信息
// 功能：计算车道归属与预测位置
// 参数：o-原始观测，retained-本车保留轨迹的点数
// 算法说明：
// 1. 速度取速度向量的模
// 2. 预测弧长 = 观测弧长 + 速度 * 保留点数 * DT，即本车走完保留轨迹时他车的位置
func NewTrackedVehicle(o entity.Observation, retained int) TrackedVehicle {
	speed := math.Hypot(o.VX, o.VY)
	return TrackedVehicle{
		ID:         o.ID,
		Lane:       LaneOf(o.D),
		ProjectedS: o.S + speed*float64(retained)*DT,
		Speed:      speed,
	}
}

// relation 他车相对本车的占用关系
type relation int

const (
	relationNone  relation = iota // 不影响本车
	relationAhead                 // 本车道前方安全距离内
	relationLeft                  // 左侧车道前后安全距离内
	relationRight                 // 右侧车道前后安全距离内
)

func (r relation) String() string {
	switch r {
	case relationAhead:
		return "ahead"
	case relationLeft:
		return "left"
	case relationRight:
		return "right"
	default:
		return "none"
	}
}

// signedGap 环线上from到to的有符号弧长差，落在(-maxS/2, maxS/2]内
func signedGap(to, from, maxS float64) float64 {
	gap := to - from
	if maxS <= 0 {
		return gap
	}
	gap = math.Mod(gap, maxS)
	if gap > maxS/2 {
		gap -= maxS
	} else if gap <= -maxS/2 {
		gap += maxS
	}
	return gap
}

// classify 安全裕度策略
// 功能：判断单辆他车对本车所在车道及左右相邻车道的占用
// 参数：v-他车，lane-本车车道，egoS-本车弧长，maxS-环线总长
// 说明：
// 1. 本车道：他车在前方且距离小于SafetyGap时阻挡前进
// 2. 相邻车道：他车在本车前后SafetyGap以内时阻挡向该侧变道
// 3. 无法归类车道的他车不参与判断
func classify(v TrackedVehicle, lane int, egoS, maxS float64) (relation, float64) {
	if v.Lane == entity.NoLane {
		return relationNone, 0
	}
	gap := signedGap(v.ProjectedS, egoS, maxS)
	switch {
	case v.Lane == lane && gap > 0 && gap < SafetyGap:
		return relationAhead, gap
	case v.Lane == lane-1 && gap > -SafetyGap && gap < SafetyGap:
		return relationLeft, gap
	case v.Lane == lane+1 && gap > -SafetyGap && gap < SafetyGap:
		return relationRight, gap
	}
	return relationNone, gap
}

// env 本周期的交通环境
// 功能：汇总所有他车的分类结果，不跨周期保存
type env struct {
	blockedAhead bool             // 本车道前方被阻挡
	blocked      [2]bool          // 左/右侧车道被占用（entity.LEFT/entity.RIGHT）
	leader       *TrackedVehicle  // 本车道前方最近的阻挡车辆
	leaderGap    float64          // 与leader的弧长距离
	vehicles     []TrackedVehicle // 参与判断的全部车辆
}

func (e env) String() string {
	return fmt.Sprintf(
		"ahead=%v, left=%v, right=%v, leader=%v",
		e.blockedAhead, e.blocked[entity.LEFT], e.blocked[entity.RIGHT], e.leader,
	)
}

// getEnv 感知交通环境
// 功能：对每辆他车分类，得到三个独立的占用标志与最近的前车
// 参数：vehicles-他车列表，lane-本车车道，egoS-本车弧长，maxS-环线总长
func getEnv(vehicles []TrackedVehicle, lane int, egoS, maxS float64) (e env) {
	e.vehicles = vehicles
	for i := range vehicles {
		v := &vehicles[i]
		r, gap := classify(*v, lane, egoS, maxS)
		switch r {
		case relationAhead:
			e.blockedAhead = true
			if e.leader == nil || gap < e.leaderGap {
				e.leader = v
				e.leaderGap = gap
			}
		case relationLeft:
			e.blocked[entity.LEFT] = true
		case relationRight:
			e.blocked[entity.RIGHT] = true
		}
		if r != relationNone {
			log.Tracef("vehicle %v: %v (gap %.2f)", v, r, gap)
		}
	}
	return
}
