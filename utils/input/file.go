package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tsinghua-fib-lab/highway-planner/entity/track"
)

// ErrEmpty 航点数据为空
var ErrEmpty = errors.New("no waypoints")

// ReadFile 从航点文件读取航点
func ReadFile(path string) ([]track.Waypoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	defer f.Close()
	waypoints, err := ParseWaypoints(f)
	if err != nil {
		return nil, fmt.Errorf("input: %s: %w", path, err)
	}
	return waypoints, nil
}

// ParseWaypoints 解析航点文本
// 功能：每行5个以空白分隔的数值 x y s dx dy，跳过空行与#开头的注释行
// 返回：按文件顺序的航点列表；任一行格式错误或没有航点时返回错误
func ParseWaypoints(r io.Reader) ([]track.Waypoint, error) {
	var waypoints []track.Waypoint
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 5 {
			return nil, fmt.Errorf("line %d: want 5 fields (x y s dx dy), got %d", line, len(fields))
		}
		var v [5]float64
		for i, field := range fields {
			f, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			v[i] = f
		}
		waypoints = append(waypoints, track.Waypoint{X: v[0], Y: v[1], S: v[2], DX: v[3], DY: v[4]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(waypoints) == 0 {
		return nil, ErrEmpty
	}
	return waypoints, nil
}
