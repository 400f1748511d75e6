package task

import (
	"context"
	"flag"
	"sync/atomic"
	"time"

	"github.com/tsinghua-fib-lab/highway-planner/clock"
	"github.com/tsinghua-fib-lab/highway-planner/entity"
	"github.com/tsinghua-fib-lab/highway-planner/entity/ego"
	"github.com/tsinghua-fib-lab/highway-planner/server"
	"github.com/tsinghua-fib-lab/highway-planner/utils/config"
	"github.com/tsinghua-fib-lab/highway-planner/utils/input"
)

const shutdownTimeout = 5 * time.Second

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔周期数")
)

// Context 规划任务上下文
// 功能：持有一次运行的全部组件，包括配置、参考线、规划器、时钟与遥测服务
type Context struct {
	// 关闭指令
	closed atomic.Bool
	// 服务结束信号
	serveCloseCh chan struct{}

	// 时钟
	clock *clock.Clock
	// 运行时配置
	runtimeConfig *config.RuntimeConfig
	// 用于初始化的输入
	initRes *input.Input
	// 规划器
	planner *ego.Planner
	// 遥测服务
	server *server.Server
}

// NewContext 创建规划任务上下文
// 功能：校验配置、加载参考线并创建各组件，任一步失败则panic（拒绝启动）
// 算法说明：
// 1. 补全并校验配置
// 2. 加载参考线
// 3. 创建时钟、规划器与遥测服务
func NewContext(c config.Config) *Context {
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		log.Panicf("invalid config: %v", err)
	}
	ctx := &Context{
		serveCloseCh:  make(chan struct{}),
		runtimeConfig: rc,
	}
	ctx.clock = clock.New(rc.C.Step)
	ctx.initRes = input.Init(c.Input, rc.MaxS)
	ctx.planner = ego.NewPlanner(ctx.initRes.Track)
	ctx.server = server.New(rc.Listen, ctx.planner, ctx.clock, rc.StartLane, int32(*heartBeatInterval))
	return ctx
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Track() entity.ITrack {
	return ctx.initRes.Track
}

func (ctx *Context) Planner() *ego.Planner {
	return ctx.planner
}

// Run 运行遥测服务，直到Close
func (ctx *Context) Run() {
	defer close(ctx.serveCloseCh)
	log.Infof("start planning on %v, start lane %d", ctx.initRes.Track, ctx.runtimeConfig.StartLane)
	if err := ctx.server.ListenAndServe(); err != nil {
		log.Panicf("failed to serve: %v", err)
	}
	step, _ := ctx.clock.Snapshot()
	log.Infof("planner complete after %d cycles (%v)", step, ctx.clock)
}

// Close 优雅关闭遥测服务，并等待Run返回
func (ctx *Context) Close() {
	if ctx.closed.Swap(true) {
		return
	}
	c, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ctx.server.Shutdown(c); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	// wait for graceful stop
	<-ctx.serveCloseCh
}
