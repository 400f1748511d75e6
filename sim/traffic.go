package sim

import (
	"math"

	"github.com/tsinghua-fib-lab/highway-planner/entity"
	"github.com/tsinghua-fib-lab/highway-planner/entity/ego"
	"github.com/tsinghua-fib-lab/highway-planner/utils/randengine"
)

const (
	clearance     = 40.0 // 初始时他车与本车的最小纵向距离
	yieldDistance = 15.0 // 本车位于他车前方该距离内时，他车不超过本车速度
)

// 他车在各车道上的分布权重
var laneWeights = []float64{1, 1, 1}

// vehicle 合成交通中的他车
// 说明：保持车道匀速行驶，他车之间不做避让
type vehicle struct {
	id        int64
	lane      int
	s         float64 // 弧长
	speed     float64 // 期望速度（m/s）
	inContact bool    // 上一周期是否与本车重叠
}

func (v *vehicle) d() float64 {
	return ego.LaneCenter(v.lane)
}

// newTraffic 在环线上随机生成他车
// 算法说明：车道按laneWeights抽样，弧长在本车前后clearance之外均匀分布，速度在[minSpeed, maxSpeed)内均匀分布
func newTraffic(rng *randengine.Engine, track entity.ITrack, opts Options) []*vehicle {
	traffic := make([]*vehicle, opts.Vehicles)
	span := track.MaxS() - 2*clearance
	for i := range traffic {
		traffic[i] = &vehicle{
			id:    int64(i),
			lane:  rng.DiscreteDistribution(laneWeights),
			s:     track.Wrap(opts.StartS + clearance + rng.Uniform(0, span)),
			speed: rng.Uniform(opts.MinSpeed, opts.MaxSpeed),
		}
	}
	return traffic
}

// observe 他车的观测
func (v *vehicle) observe(track entity.ITrack) entity.Observation {
	pose := track.ToCartesian(v.s, v.d())
	return entity.Observation{
		ID: v.id,
		X:  pose.X,
		Y:  pose.Y,
		VX: v.speed * math.Cos(pose.Heading),
		VY: v.speed * math.Sin(pose.Heading),
		S:  v.s,
		D:  v.d(),
	}
}

// gap 从from到to沿行驶方向的距离，取值(-maxS/2, maxS/2]附近
func gap(to, from, maxS float64) float64 {
	return math.Remainder(to-from, maxS)
}
