package sim

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/highway-planner/clock"
	"github.com/tsinghua-fib-lab/highway-planner/entity"
	"github.com/tsinghua-fib-lab/highway-planner/entity/ego"
	"github.com/tsinghua-fib-lab/highway-planner/utils/config"
	"github.com/tsinghua-fib-lab/highway-planner/utils/randengine"
)

const (
	carLength      = 5.0  // 纵向距离小于该值视为碰撞
	defaultConsume = 1    // 默认每周期消耗的轨迹点数；MaxAccStep为每个DT的速度步长
	defaultCycles  = 3000 // 默认仿真周期数
	retargetProb   = 0.01 // 他车每周期重新选取期望速度的概率
)

// Options 仿真参数
type Options struct {
	Seed      uint64
	Vehicles  int     // 他车数量
	Consume   int     // 每周期本车消耗的轨迹点数
	Cycles    int32   // 仿真周期数，为0则采用defaultCycles
	MinSpeed  float64 // 他车最低速度（m/s）
	MaxSpeed  float64 // 他车最高速度（m/s）
	StartLane int
	StartS    float64
}

// Metrics 仿真统计
type Metrics struct {
	Cycles       int
	Time         float64 // 仿真时长（秒）
	Errors       int     // 规划失败的周期数
	LaneChanges  int     // 变道次数
	Collisions   int     // 与他车重叠的次数
	MaxSpeed     float64 // 最大指令速度（mph）
	MaxStep      float64 // 本车相邻轨迹点的最大间距
	MinLeaderGap float64 // 与同车道前车的最小距离
	Distance     float64 // 本车行驶路程
}

func (m Metrics) String() string {
	return fmt.Sprintf(
		"cycles=%d time=%.2f errors=%d lane_changes=%d collisions=%d max_speed=%.3f max_step=%.4f min_leader_gap=%.2f distance=%.1f",
		m.Cycles, m.Time, m.Errors, m.LaneChanges, m.Collisions, m.MaxSpeed, m.MaxStep, m.MinLeaderGap, m.Distance,
	)
}

// Simulator 离线闭环仿真
// 功能：用合成交通代替模拟器，规划器输出的轨迹由本车逐点执行，再由执行结果构造下一周期的遥测
// 说明：每周期本车消耗Consume个轨迹点，他车按相同时长前进；时钟到达结束步时仿真结束
type Simulator struct {
	track   entity.ITrack
	planner *ego.Planner
	rng     *randengine.Engine
	clock   *clock.Clock
	opts    Options

	traffic []*vehicle
	state   ego.State
	tel     *entity.Telemetry
	history entity.Trajectory
	metrics Metrics
}

// New 创建仿真
func New(track entity.ITrack, opts Options) *Simulator {
	if opts.Consume <= 0 {
		opts.Consume = defaultConsume
	}
	opts.Consume = lo.Clamp(opts.Consume, 1, ego.Horizon)
	if opts.Cycles <= 0 {
		opts.Cycles = defaultCycles
	}
	rng := randengine.New(opts.Seed)
	s := &Simulator{
		track:   track,
		planner: ego.NewPlanner(track),
		rng:     rng,
		clock: clock.New(config.ControlStep{
			Total:    opts.Cycles,
			Interval: float64(opts.Consume) * ego.DT,
		}),
		opts:    opts,
		traffic: newTraffic(rng, track, opts),
		state:   ego.NewState(opts.StartLane),
		metrics: Metrics{MinLeaderGap: mathutil.INF},
	}
	startS := track.Wrap(opts.StartS)
	pose := track.ToCartesian(startS, ego.LaneCenter(s.state.Lane))
	s.tel = &entity.Telemetry{
		X:   pose.X,
		Y:   pose.Y,
		S:   startS,
		D:   ego.LaneCenter(s.state.Lane),
		Yaw: pose.Heading * 180 / math.Pi,
	}
	s.history = entity.Trajectory{pose.Point()}
	return s
}

// Metrics 当前统计
func (s *Simulator) Metrics() Metrics {
	return s.metrics
}

// State 当前规划状态
func (s *Simulator) State() ego.State {
	return s.state
}

// History 本车已行驶的轨迹
func (s *Simulator) History() entity.Trajectory {
	return s.history
}

// Clock 仿真时钟
func (s *Simulator) Clock() *clock.Clock {
	return s.clock
}

// Run 运行到时钟的结束步
func (s *Simulator) Run() (Metrics, error) {
	for !s.clock.Done() {
		if err := s.Step(); err != nil {
			return s.metrics, err
		}
	}
	log.Infof("%v", s.metrics)
	return s.metrics, nil
}

// Step 执行一个周期
// 算法说明：
// 1. 以他车当前位置构造观测，运行规划
// 2. 规划失败时本车沿保留轨迹继续行驶，保留轨迹不足时仿真失败
// 3. 本车消耗Consume个轨迹点，他车前进相同时长
// 4. 由剩余轨迹构造下一周期的遥测，并更新统计
func (s *Simulator) Step() error {
	s.tel.SensorFusion = lo.Map(s.traffic, func(v *vehicle, _ int) entity.Observation {
		return v.observe(s.track)
	})
	traj := s.tel.PreviousPath
	res, err := s.planner.Plan(s.tel, s.state)
	if err != nil {
		s.metrics.Errors++
		log.Warnf("cycle %d: %v", s.metrics.Cycles, err)
	} else {
		if res.State.Lane != s.state.Lane {
			s.metrics.LaneChanges++
		}
		s.state = res.State
		s.metrics.MaxSpeed = math.Max(s.metrics.MaxSpeed, s.state.Speed)
		traj = res.Trajectory
	}
	if len(traj) < s.opts.Consume {
		return fmt.Errorf("sim: cycle %d: %d trajectory points left, need %d", s.metrics.Cycles, len(traj), s.opts.Consume)
	}
	s.metrics.Cycles = int(s.clock.Tick())
	_, s.metrics.Time = s.clock.Snapshot()

	egoSpeed := s.drive(traj)
	s.moveTraffic(egoSpeed)
	s.checkContacts()
	return nil
}

// drive 本车消耗轨迹点并构造下一周期的遥测
// 返回：本周期本车的实际速度（m/s）
func (s *Simulator) drive(traj entity.Trajectory) float64 {
	consumed, retained := traj[:s.opts.Consume], traj[s.opts.Consume:]
	last := s.history[len(s.history)-1]
	heading := s.tel.Yaw * math.Pi / 180
	distance := 0.0
	for _, p := range consumed {
		step := math.Hypot(p.X-last.X, p.Y-last.Y)
		if step > 1e-9 {
			heading = math.Atan2(p.Y-last.Y, p.X-last.X)
		}
		distance += step
		s.metrics.MaxStep = math.Max(s.metrics.MaxStep, step)
		last = p
	}
	s.metrics.Distance += distance
	s.history = append(s.history, consumed...)

	car := s.track.ToFrenet(last.X, last.Y, heading)
	s.tel = &entity.Telemetry{
		X:            last.X,
		Y:            last.Y,
		S:            car.S,
		D:            car.D,
		Yaw:          heading * 180 / math.Pi,
		Speed:        s.state.Speed,
		PreviousPath: append(entity.Trajectory(nil), retained...),
	}
	if n := len(retained); n > 0 {
		endHeading := heading
		if n >= 2 {
			endHeading = math.Atan2(retained[n-1].Y-retained[n-2].Y, retained[n-1].X-retained[n-2].X)
		}
		end := s.track.ToFrenet(retained[n-1].X, retained[n-1].Y, endHeading)
		s.tel.EndPathS, s.tel.EndPathD = end.S, end.D
	}
	return distance / (float64(s.opts.Consume) * ego.DT)
}

// moveTraffic 他车前进一个周期
// 说明：本车在他车前方yieldDistance内时，他车不超过本车速度
func (s *Simulator) moveTraffic(egoSpeed float64) {
	dt := float64(s.opts.Consume) * ego.DT
	egoLane := ego.LaneOf(s.tel.D)
	for _, v := range s.traffic {
		if s.rng.PTrue(retargetProb) {
			v.speed = s.rng.Uniform(s.opts.MinSpeed, s.opts.MaxSpeed)
		}
		speed := v.speed
		if g := gap(s.tel.S, v.s, s.track.MaxS()); v.lane == egoLane && g > 0 && g < yieldDistance {
			speed = math.Min(speed, egoSpeed)
		}
		v.s = s.track.Wrap(v.s + speed*dt)
	}
}

// checkContacts 统计碰撞与前车距离
func (s *Simulator) checkContacts() {
	egoLane := ego.LaneOf(s.tel.D)
	for _, v := range s.traffic {
		if v.lane != egoLane {
			v.inContact = false
			continue
		}
		g := gap(v.s, s.tel.S, s.track.MaxS())
		contact := math.Abs(g) < carLength
		if contact && !v.inContact {
			s.metrics.Collisions++
			log.Warnf("cycle %d: contact with vehicle %d (gap %.2f)", s.metrics.Cycles, v.id, g)
		}
		v.inContact = contact
		if g > 0 {
			s.metrics.MinLeaderGap = math.Min(s.metrics.MinLeaderGap, g)
		}
	}
}
