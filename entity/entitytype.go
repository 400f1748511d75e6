package entity

import "fmt"

// 方位常量
const (
	LEFT  = 0 // 左侧（车道编号减小）
	RIGHT = 1 // 右侧（车道编号增大）
)

// NoLane 横向偏移落在车道边界上或所有车道之外时的车道编号
const NoLane = -1

// Point 笛卡尔坐标点
type Point struct {
	X float64
	Y float64
}

// Pose 笛卡尔位姿，Heading为弧度
type Pose struct {
	X       float64
	Y       float64
	Heading float64
}

func (p Pose) Point() Point {
	return Point{X: p.X, Y: p.Y}
}

// Frenet 相对参考线的曲线坐标
// 功能：S为沿参考线的弧长，D为带符号的横向偏移（正值指向远离环线中心的一侧）
type Frenet struct {
	S float64
	D float64
}

func (f Frenet) String() string {
	return fmt.Sprintf("Frenet{S=%.3f, D=%.3f}", f.S, f.D)
}

// Observation 传感器融合给出的他车原始观测
type Observation struct {
	ID int64
	X  float64
	Y  float64
	VX float64
	VY float64
	S  float64
	D  float64
}

// Telemetry 每个规划周期输入的遥测快照
// 功能：描述本车状态、上一周期未消耗的轨迹以及周边车辆
// 说明：Yaw单位为度，进入规划前统一转换为弧度
type Telemetry struct {
	X     float64 // 本车x坐标
	Y     float64 // 本车y坐标
	S     float64 // 本车弧长坐标
	D     float64 // 本车横向偏移
	Yaw   float64 // 本车朝向（度）
	Speed float64 // 本车速度（mph）

	PreviousPath Trajectory // 上一周期未消耗的轨迹点
	EndPathS     float64    // 未消耗轨迹末端的弧长坐标
	EndPathD     float64    // 未消耗轨迹末端的横向偏移

	SensorFusion []Observation // 周边车辆
}

// Trajectory 以固定时间步长排列的轨迹点序列
type Trajectory []Point

// XY 拆分为平行的x、y序列
func (t Trajectory) XY() (xs, ys []float64) {
	xs = make([]float64, len(t))
	ys = make([]float64, len(t))
	for i, p := range t {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return
}

// NewTrajectory 由平行的x、y序列构造轨迹，长度取两者较短者
func NewTrajectory(xs, ys []float64) Trajectory {
	n := min(len(xs), len(ys))
	t := make(Trajectory, n)
	for i := range n {
		t[i] = Point{X: xs[i], Y: ys[i]}
	}
	return t
}
