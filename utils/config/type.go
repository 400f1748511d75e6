package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义参考线航点数据的来源
// 说明：文件优先级高于MongoDB
type InputPath struct {
	DB   string `yaml:"db,omitempty"`   // 数据库名
	Col  string `yaml:"col,omitempty"`  // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// Input 指定规划器所有输入数据的配置项
type Input struct {
	URI  string    `yaml:"uri,omitempty"`   // MongoDB连接字符串
	Map  InputPath `yaml:"map"`             // 参考线航点
	MaxS float64   `yaml:"max_s,omitempty"` // 环线总长，为0则采用默认值
}

// ControlStep 指定规划周期的配置项
type ControlStep struct {
	Total    int32   `yaml:"total,omitempty"`    // 离线仿真的总周期数
	Interval float64 `yaml:"interval,omitempty"` // 轨迹点之间的时间间隔（秒），只能为0.02
}

// Control 规划器控制配置
type Control struct {
	Step      ControlStep `yaml:"step"`
	StartLane *int        `yaml:"start_lane,omitempty"` // 起始车道，为空则采用默认值
}

// Server 遥测服务配置
type Server struct {
	Listen string `yaml:"listen,omitempty"` // 监听地址
}

// Sim 离线闭环仿真配置
type Sim struct {
	Seed     uint64  `yaml:"seed"`              // 随机数种子
	Vehicles int     `yaml:"vehicles"`          // 他车数量
	Consume  int     `yaml:"consume,omitempty"` // 每周期本车消耗的轨迹点数
	MinSpeed float64 `yaml:"min_speed"`         // 他车最低速度（m/s）
	MaxSpeed float64 `yaml:"max_speed"`         // 他车最高速度（m/s）
	Plot     string  `yaml:"plot,omitempty"`    // 本车轨迹图输出路径，为空则不输出
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`         // 输入
	Control Control `yaml:"control"`       // 规划过程控制
	Server  Server  `yaml:"server"`        // 遥测服务
	Sim     *Sim    `yaml:"sim,omitempty"` // 离线仿真
}
