package sim

import (
	"fmt"
	"image/color"

	"github.com/tsinghua-fib-lab/highway-planner/entity"
	"github.com/tsinghua-fib-lab/highway-planner/entity/ego"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// 车道边界线的采样间距
const boundaryStep = 10.0

// SavePlot 将车道边界与本车轨迹绘制为图片
// 参数：path-输出文件路径（按扩展名决定格式），track-参考线，history-本车轨迹
func SavePlot(path string, track entity.ITrack, history entity.Trajectory) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Ego path (%d points)", len(history))
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	n := int(track.MaxS()/boundaryStep) + 1
	for k := 0; k <= ego.LaneCount; k++ {
		d := ego.LaneWidth * float64(k)
		pts := make(plotter.XYs, n)
		for i := range n {
			pose := track.ToCartesian(track.Wrap(float64(i)*boundaryStep), d)
			pts[i] = plotter.XY{X: pose.X, Y: pose.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = color.Gray{Y: 160}
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	pts := make(plotter.XYs, len(history))
	for i, q := range history {
		pts[i] = plotter.XY{X: q.X, Y: q.Y}
	}
	egoLine, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	egoLine.Color = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	egoLine.Width = vg.Points(1)
	p.Add(egoLine)
	p.Legend.Add("ego", egoLine)
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 10*vg.Inch, path); err != nil {
		return fmt.Errorf("sim: save plot: %w", err)
	}
	return nil
}
