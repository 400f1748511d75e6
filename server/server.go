package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/highway-planner/clock"
	"github.com/tsinghua-fib-lab/highway-planner/entity"
	"github.com/tsinghua-fib-lab/highway-planner/entity/ego"
)

const helloPage = "<h1>Hello world!</h1>"

// Server 遥测服务
// 功能：通过websocket接收模拟器的遥测事件，运行规划周期并回复控制事件
// 说明：规划状态由Server持有，规划周期在互斥锁内串行执行；新连接建立时状态与时钟重置
type Server struct {
	planner   *ego.Planner
	clock     *clock.Clock
	startLane int
	heartbeat int32 // 心跳日志间隔周期数，0表示不输出

	mtx   sync.Mutex
	state ego.State

	srv *http.Server
}

// New 创建遥测服务
// 参数：listen-监听地址，planner-规划器，clk-规划时钟，startLane-起始车道，heartbeat-心跳日志间隔周期数
func New(listen string, planner *ego.Planner, clk *clock.Clock, startLane int, heartbeat int32) *Server {
	s := &Server{
		planner:   planner,
		clock:     clk,
		startLane: startLane,
		heartbeat: heartbeat,
		state:     ego.NewState(startLane),
	}
	mux := http.NewServeMux()
	clk.Register(mux)
	mux.HandleFunc("/", s.serveHTTP)
	s.srv = &http.Server{Addr: listen, Handler: mux}
	return s
}

// Handler HTTP入口
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe 开始服务，直到Shutdown
func (s *Server) ListenAndServe() error {
	log.Infof("listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// State 当前规划状态
func (s *Server) State() ego.State {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.state
}

// reset 新连接开始时重置规划状态与规划时钟
func (s *Server) reset() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.state = ego.NewState(s.startLane)
	s.clock.Init()
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		s.serveWebsocket(w, r)
		return
	}
	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, helloPage)
	}
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Errorf("websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	l := log.WithField("session", uuid.NewString())
	s.reset()
	l.Infof("connected from %s", r.RemoteAddr)
	ctx := r.Context()
	for {
		typ, msg, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				l.Info("disconnected")
			default:
				l.Infof("disconnected: %v", err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		reply, err := s.handle(msg)
		if err != nil {
			l.Errorf("cycle skipped: %v", err)
			continue
		}
		if reply == nil {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, reply); err != nil {
			l.Errorf("write: %v", err)
			return
		}
	}
}

// handle 处理一帧消息
// 返回：需要回复的帧，为nil时不回复
func (s *Server) handle(msg []byte) ([]byte, error) {
	f, err := parseFrame(msg)
	if err != nil {
		return nil, err
	}
	switch f.kind {
	case frameIgnored:
		return nil, nil
	case frameManual:
		return manualFrame, nil
	}
	if f.event != eventTelemetry {
		log.Debugf("ignore event %q", f.event)
		return nil, nil
	}
	t, err := decodeTelemetry(f.payload)
	if err != nil {
		return nil, err
	}
	traj, err := s.step(t)
	if err != nil {
		return nil, err
	}
	return encodeControl(traj)
}

// step 执行一个规划周期
func (s *Server) step(t *entity.Telemetry) (entity.Trajectory, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	res, err := s.planner.Plan(t, s.state)
	if err != nil {
		return nil, err
	}
	s.state = res.State
	step := s.clock.Tick()
	if s.heartbeat > 0 && step%s.heartbeat == 0 {
		hour, minute, second := s.clock.GetHourMinuteSecond()
		log.Infof("STEP: %d(%d:%d:%.2f) %v", step, hour, minute, second, s.state)
	}
	return res.Trajectory, nil
}
