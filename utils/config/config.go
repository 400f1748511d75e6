package config

import (
	"fmt"

	"github.com/tsinghua-fib-lab/highway-planner/entity/ego"
	"gopkg.in/yaml.v2"
)

const (
	DefaultMaxS   = 6945.554 // 默认环线总长
	DefaultListen = ":4567"  // 默认遥测服务监听地址
)

// RuntimeConfig 运行时配置
// 功能：存储补全默认值并校验后的配置
type RuntimeConfig struct {
	All       Config  // 全部配置
	C         Control // 全局控制配置
	MaxS      float64 // 环线总长
	StartLane int     // 起始车道
	Listen    string  // 遥测服务监听地址
}

// Parse 解析YAML配置
// 功能：严格模式解析，未知字段视为错误
func Parse(file []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：补全默认值并校验配置
// 参数：config-原始配置对象
// 返回：运行时配置指针，配置非法时返回错误
// 算法说明：
// 1. 环线总长默认为DefaultMaxS
// 2. 时间间隔默认为规划器的DT，且只能等于DT（轨迹点间隔由模拟器固定）
// 3. 起始车道默认为ego.StartLane，必须在[0, LaneCount)内
// 4. 监听地址默认为DefaultListen
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	rc := &RuntimeConfig{
		All:       config,
		C:         config.Control,
		MaxS:      config.Input.MaxS,
		StartLane: ego.StartLane,
		Listen:    config.Server.Listen,
	}
	if rc.MaxS == 0 {
		rc.MaxS = DefaultMaxS
	}
	if rc.MaxS < 0 {
		return nil, fmt.Errorf("config: input.max_s must be positive, got %v", rc.MaxS)
	}
	if rc.C.Step.Interval == 0 {
		rc.C.Step.Interval = ego.DT
	}
	if rc.C.Step.Interval != ego.DT {
		return nil, fmt.Errorf("config: control.step.interval must be %v, got %v", ego.DT, rc.C.Step.Interval)
	}
	if config.Control.StartLane != nil {
		rc.StartLane = *config.Control.StartLane
	}
	if rc.StartLane < 0 || rc.StartLane >= ego.LaneCount {
		return nil, fmt.Errorf("config: control.start_lane must be in [0, %d), got %d", ego.LaneCount, rc.StartLane)
	}
	if rc.Listen == "" {
		rc.Listen = DefaultListen
	}
	if config.Input.Map.File == "" && (config.Input.URI == "" || config.Input.Map.DB == "" || config.Input.Map.Col == "") {
		return nil, fmt.Errorf("config: input.map needs either file or uri+db+col")
	}
	return rc, nil
}
