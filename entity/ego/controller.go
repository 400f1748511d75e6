package ego

import (
	"fmt"

	"github.com/samber/lo"
)

const (
	MaxSpeed   = 49.5  // 最大速度（mph）
	MaxAccStep = 0.224 // 每周期速度调整的最大步长（mph），约5m/s²
	DT         = 0.02  // 轨迹点之间的时间间隔（秒）

	LaneWidth = 4.0 // 车道宽度（米）
	LaneCount = 3   // 车道数
	StartLane = 1   // 初始车道

	Horizon   = 50   // 每周期输出的轨迹点数
	Lookahead = 30.0 // 离散化样条时的前视距离（米）
	SafetyGap = 30.0 // 判定车道被占用的安全距离（米）

	speedConversion = 2.24 // mph -> m/s
)

// 轨迹生成时远处锚点相对本车的弧长偏移（米）
var anchorOffsets = [...]float64{30, 60, 90}

// State 规划器跨周期保持的状态
// 功能：记录当前目标车道与指令速度
// 说明：由行为规划修改、轨迹生成读取；由调用方（传输层循环）持有，
// 每个周期作为参数传入并随结果返回，规划逻辑本身不保存状态
type State struct {
	Lane  int     // 目标车道
	Speed float64 // 指令速度（mph）
}

// NewState 创建初始状态，车道越界时截断到合法范围，速度为0
func NewState(lane int) State {
	return State{Lane: lo.Clamp(lane, 0, LaneCount-1)}
}

func (s State) String() string {
	return fmt.Sprintf("State{lane=%d, speed=%.3f}", s.Lane, s.Speed)
}

// LaneCenter 车道中心线的横向偏移
func LaneCenter(lane int) float64 {
	return LaneWidth*float64(lane) + LaneWidth/2
}
