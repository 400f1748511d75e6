package entity

// entity/track/track.go的依赖倒置
type ITrack interface {
	MaxS() float64 // 环线总长，超过后弧长回绕到0
	Len() int      // 航点数量

	// 将弧长归一化到[0, MaxS)
	Wrap(s float64) float64
	// 距离(x, y)最近的航点
	ClosestWaypoint(x, y float64) int
	// 位于朝向前方的下一个航点
	NextWaypoint(x, y, heading float64) int
	// 笛卡尔坐标转曲线坐标
	ToFrenet(x, y, heading float64) Frenet
	// 曲线坐标转笛卡尔坐标，s需预先归一化
	ToCartesian(s, d float64) Pose
}
