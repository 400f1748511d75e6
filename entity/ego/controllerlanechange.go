package ego

import (
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/highway-planner/entity"
)

// Decision 单周期的行为决策
type Decision int

const (
	DecisionAccelerate  Decision = iota // 前方畅通，加速至限速
	DecisionChangeLeft                  // 前方受阻，向左变道
	DecisionChangeRight                 // 前方受阻，向右变道
	DecisionFollow                      // 前方受阻且无法变道，减速跟车
)

func (d Decision) String() string {
	switch d {
	case DecisionAccelerate:
		return "accelerate"
	case DecisionChangeLeft:
		return "change-left"
	case DecisionChangeRight:
		return "change-right"
	case DecisionFollow:
		return "follow"
	default:
		return "unknown"
	}
}

// decide 行为决策
// 功能：根据交通环境选择本周期的决策
// 算法说明：
// 1. 前方未受阻：加速
// 2. 前方受阻：左侧车道存在且空闲则向左；否则右侧车道存在且空闲则向右；否则减速跟车
// 说明：左右都可变道时优先向左；只做单步反应式决策，不搜索车道序列
func decide(e env, lane int) Decision {
	if !e.blockedAhead {
		return DecisionAccelerate
	}
	if lane > 0 && !e.blocked[entity.LEFT] {
		return DecisionChangeLeft
	}
	if lane < LaneCount-1 && !e.blocked[entity.RIGHT] {
		return DecisionChangeRight
	}
	return DecisionFollow
}

// behave 执行行为决策，返回新的状态
// 功能：变道决策只修改目标车道，实际的横向移动由轨迹生成平滑完成；
// 速度每周期的变化不超过MaxAccStep
// 参数：e-交通环境，s-当前状态
// 返回：新状态与本周期的决策
// 算法说明：
// 1. 变道：目标车道加减1，速度保持
// 2. 跟车：速度高于前车时减少一个步长，但不低于前车速度；不高于前车时保持
// 3. 加速：速度增加一个步长，不超过MaxSpeed
// 4. 后处理：速度限制在[0, MaxSpeed]
func behave(e env, s State) (State, Decision) {
	d := decide(e, s.Lane)
	next := s
	switch d {
	case DecisionChangeLeft:
		next.Lane--
	case DecisionChangeRight:
		next.Lane++
	case DecisionFollow:
		if hold := e.leader.Speed; next.Speed > hold {
			next.Speed = math.Max(next.Speed-MaxAccStep, hold)
		}
	case DecisionAccelerate:
		next.Speed = math.Min(next.Speed+MaxAccStep, MaxSpeed)
	}
	next.Speed = lo.Clamp(next.Speed, 0, MaxSpeed)
	return next, d
}
