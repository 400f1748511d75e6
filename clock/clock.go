package clock

import (
	"fmt"
	"sync"

	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
	"github.com/tsinghua-fib-lab/highway-planner/utils/config"
)

// Clock 规划时钟
// 功能：记录已完成的规划周期数，换算为规划器时间
// 说明：每个规划周期推进一个DT（与轨迹点间隔一致），时间可通过RPC查询
type Clock struct {
	clockv1connect.UnimplementedClockServiceHandler

	DT       float64 // 每个规划周期对应的时间间隔（秒）
	END_STEP int32   // 结束步，0表示不限

	mtx          sync.RWMutex
	T            float64 // 当前时间（秒）
	InternalStep int32   // 已完成的规划周期数
}

// New 根据配置创建新的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT:       stepConfig.Interval,
		END_STEP: stepConfig.Total,
	}
	c.Init()
	return c
}

// Init 重置时钟
func (c *Clock) Init() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.InternalStep = 0
	c.T = 0
}

// Tick 完成一个规划周期
// 返回：推进后的周期数
func (c *Clock) Tick() int32 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
	return c.InternalStep
}

// Done 是否已达到结束步
func (c *Clock) Done() bool {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.END_STEP > 0 && c.InternalStep >= c.END_STEP
}

// Snapshot 当前周期数与时间
func (c *Clock) Snapshot() (int32, float64) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.InternalStep, c.T
}

// String 获取时钟的字符串表示
// 功能：将当前时间格式化为HH:MM:SS
func (c *Clock) String() string {
	_, t := c.Snapshot()
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	_, t := c.Snapshot()
	hour := int(t) / 3600
	minute := int(t) % 3600 / 60
	second := t - float64(hour*3600+minute*60)
	return hour, minute, second
}
