package track

import (
	"fmt"
	"math"
)

// NewPolygonLoop 生成正多边形环线
// 功能：围绕(cx, cy)按逆时针生成n个航点，S取折线累计长度，法向量指向外侧
// 参数：cx、cy-环线中心，radius-外接圆半径，n-航点数
// 返回：参考线实例
// 说明：逆时针行驶时右手法向指向外侧，与曲线坐标D的符号约定一致；用于离线仿真与测试
func NewPolygonLoop(cx, cy, radius float64, n int) (*Track, error) {
	if n < 3 || radius <= 0 {
		return nil, fmt.Errorf("track: bad polygon loop (n=%d, radius=%v)", n, radius)
	}
	chord := 2 * radius * math.Sin(math.Pi/float64(n))
	waypoints := make([]Waypoint, n)
	for i := range n {
		theta := 2 * math.Pi * float64(i) / float64(n)
		waypoints[i] = Waypoint{
			X:  cx + radius*math.Cos(theta),
			Y:  cy + radius*math.Sin(theta),
			S:  chord * float64(i),
			DX: math.Cos(theta),
			DY: math.Sin(theta),
		}
	}
	return New(waypoints, chord*float64(n))
}
