package clock

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	clockv1 "git.fiblab.net/sim/protos/v2/go/city/clock/v1"
	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
)

// Register 将ClockService注册到HTTP路由
// 功能：使规划器时间可以通过RPC接口被外部查询
func (c *Clock) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	mux.Handle(clockv1connect.NewClockServiceHandler(c, opts...))
}

// Now 获取当前规划器时间
// 功能：RPC接口，返回已完成周期数对应的时间
func (c *Clock) Now(ctx context.Context, in *connect.Request[clockv1.NowRequest]) (*connect.Response[clockv1.NowResponse], error) {
	_, t := c.Snapshot()
	return connect.NewResponse(&clockv1.NowResponse{
		T: t,
	}), nil
}
