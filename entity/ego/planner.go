package ego

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/highway-planner/entity"
)

// Planner 本车路径规划器
// 功能：每个周期根据遥测快照与上一周期状态给出新的轨迹与状态
// 说明：只持有只读的参考线，(telemetry, State) -> (trajectory, State)是纯函数，
// 状态由调用方保存
type Planner struct {
	track entity.ITrack
}

// NewPlanner 创建规划器
func NewPlanner(track entity.ITrack) *Planner {
	return &Planner{track: track}
}

// Result 单个规划周期的结果
type Result struct {
	Trajectory entity.Trajectory // 输出轨迹，长度为Horizon
	State      State             // 更新后的状态
	Decision   Decision          // 本周期的行为决策
}

// Plan 执行一个规划周期
// 功能：曲线坐标转换 + 交通环境 -> 行为规划 -> 轨迹生成
// 参数：t-遥测快照，s-上一周期的状态
// 返回：本周期结果；出错时返回的状态与输入一致，由传输层决定本周期是否跳过
// 算法说明：
// 1. 保留轨迹非空时，本车弧长取保留轨迹末端的end_path_s，否则取当前s
// 2. 对每辆他车计算车道与预测位置，汇总为交通环境
// 3. 行为规划更新目标车道与指令速度
// 4. 以更新后的状态生成轨迹
func (p *Planner) Plan(t *entity.Telemetry, s State) (Result, error) {
	if t == nil {
		return Result{State: s}, fmt.Errorf("ego: nil telemetry")
	}
	retained := t.PreviousPath
	if len(retained) > Horizon {
		log.Warnf("retained path has %d points, truncated to %d", len(retained), Horizon)
		retained = retained[:Horizon]
	}
	egoS := t.S
	if len(retained) > 0 {
		egoS = t.EndPathS
	}
	pose := entity.Pose{X: t.X, Y: t.Y, Heading: t.Yaw * math.Pi / 180}

	vehicles := lo.Map(t.SensorFusion, func(o entity.Observation, _ int) TrackedVehicle {
		return NewTrackedVehicle(o, len(retained))
	})
	e := getEnv(vehicles, s.Lane, egoS, p.track.MaxS())
	next, decision := behave(e, s)
	log.Debugf("s=%.2f env{%v} decision=%v %v -> %v", egoS, e, decision, s, next)
	if next.Lane != s.Lane {
		log.Infof("lane change %d -> %d at s=%.2f (leader %v)", s.Lane, next.Lane, egoS, e.leader)
	}

	traj, err := generate(p.track, pose, retained, egoS, next)
	if err != nil {
		return Result{State: s}, fmt.Errorf("ego: plan at s=%.2f: %w", egoS, err)
	}
	return Result{Trajectory: traj, State: next, Decision: decision}, nil
}
