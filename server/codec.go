package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tsinghua-fib-lab/highway-planner/entity"
)

// socket.io帧格式：4表示消息，2表示事件，随后是JSON数组[event, data]
const (
	eventPrefix    = "42"
	eventTelemetry = "telemetry"
	eventControl   = "control"
)

// manualFrame 无数据时的回复，模拟器切换为手动驾驶
var manualFrame = []byte(`42["manual",{}]`)

var errBadFrame = errors.New("server: bad frame")

type frameKind int

const (
	frameIgnored frameKind = iota // 非事件帧，不回复
	frameManual                   // 事件不带数据
	frameEvent                    // 带数据的事件
)

type frame struct {
	kind    frameKind
	event   string
	payload json.RawMessage
}

// parseFrame 解析一帧websocket文本消息
func parseFrame(msg []byte) (frame, error) {
	if len(msg) <= len(eventPrefix) || !bytes.HasPrefix(msg, []byte(eventPrefix)) {
		return frame{kind: frameIgnored}, nil
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(msg[len(eventPrefix):], &parts); err != nil {
		return frame{}, fmt.Errorf("%w: %v", errBadFrame, err)
	}
	if len(parts) < 2 || bytes.Equal(bytes.TrimSpace(parts[1]), []byte("null")) {
		return frame{kind: frameManual}, nil
	}
	var event string
	if err := json.Unmarshal(parts[0], &event); err != nil {
		return frame{}, fmt.Errorf("%w: event name: %v", errBadFrame, err)
	}
	return frame{kind: frameEvent, event: event, payload: parts[1]}, nil
}

// telemetryMsg 遥测事件的数据
type telemetryMsg struct {
	X             float64     `json:"x"`
	Y             float64     `json:"y"`
	S             float64     `json:"s"`
	D             float64     `json:"d"`
	Yaw           float64     `json:"yaw"`
	Speed         float64     `json:"speed"`
	PreviousPathX []float64   `json:"previous_path_x"`
	PreviousPathY []float64   `json:"previous_path_y"`
	EndPathS      float64     `json:"end_path_s"`
	EndPathD      float64     `json:"end_path_d"`
	SensorFusion  [][]float64 `json:"sensor_fusion"` // 每行为[id, x, y, vx, vy, s, d]
}

// decodeTelemetry 解析遥测数据
func decodeTelemetry(payload json.RawMessage) (*entity.Telemetry, error) {
	var m telemetryMsg
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("%w: telemetry: %v", errBadFrame, err)
	}
	if len(m.PreviousPathX) != len(m.PreviousPathY) {
		return nil, fmt.Errorf("%w: previous path has %d x and %d y", errBadFrame, len(m.PreviousPathX), len(m.PreviousPathY))
	}
	t := &entity.Telemetry{
		X:            m.X,
		Y:            m.Y,
		S:            m.S,
		D:            m.D,
		Yaw:          m.Yaw,
		Speed:        m.Speed,
		PreviousPath: entity.NewTrajectory(m.PreviousPathX, m.PreviousPathY),
		EndPathS:     m.EndPathS,
		EndPathD:     m.EndPathD,
		SensorFusion: make([]entity.Observation, len(m.SensorFusion)),
	}
	for i, row := range m.SensorFusion {
		if len(row) != 7 {
			return nil, fmt.Errorf("%w: sensor fusion row %d has %d values", errBadFrame, i, len(row))
		}
		t.SensorFusion[i] = entity.Observation{
			ID: int64(row[0]),
			X:  row[1],
			Y:  row[2],
			VX: row[3],
			VY: row[4],
			S:  row[5],
			D:  row[6],
		}
	}
	return t, nil
}

type controlMsg struct {
	NextX []float64 `json:"next_x"`
	NextY []float64 `json:"next_y"`
}

// encodeControl 编码控制事件
func encodeControl(traj entity.Trajectory) ([]byte, error) {
	xs, ys := traj.XY()
	body, err := json.Marshal([]any{eventControl, controlMsg{NextX: xs, NextY: ys}})
	if err != nil {
		return nil, err
	}
	return append([]byte(eventPrefix), body...), nil
}
