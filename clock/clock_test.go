package clock_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	clockv1 "git.fiblab.net/sim/protos/v2/go/city/clock/v1"
	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/highway-planner/clock"
	"github.com/tsinghua-fib-lab/highway-planner/utils/config"
)

func TestTick(t *testing.T) {
	c := clock.New(config.ControlStep{Interval: 0.02, Total: 3})
	assert.False(t, c.Done())
	assert.Equal(t, int32(1), c.Tick())
	c.Tick()
	assert.False(t, c.Done())
	c.Tick()
	assert.True(t, c.Done())
	step, now := c.Snapshot()
	assert.Equal(t, int32(3), step)
	assert.InDelta(t, 0.06, now, 1e-12)

	c.Init()
	step, now = c.Snapshot()
	assert.Equal(t, int32(0), step)
	assert.Equal(t, 0.0, now)
}

func TestUnboundedClockNeverDone(t *testing.T) {
	c := clock.New(config.ControlStep{Interval: 0.02})
	for range 10 {
		c.Tick()
	}
	assert.False(t, c.Done())
}

func TestString(t *testing.T) {
	c := clock.New(config.ControlStep{Interval: 1})
	for range 3723 {
		c.Tick()
	}
	assert.Equal(t, "01:02:03", c.String())
	h, m, s := c.GetHourMinuteSecond()
	assert.Equal(t, 1, h)
	assert.Equal(t, 2, m)
	assert.InDelta(t, 3, s, 1e-9)
}

func TestNowRPC(t *testing.T) {
	c := clock.New(config.ControlStep{Interval: 0.02})
	for range 50 {
		c.Tick()
	}
	mux := http.NewServeMux()
	c.Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := clockv1connect.NewClockServiceClient(srv.Client(), srv.URL)
	res, err := client.Now(context.Background(), connect.NewRequest(&clockv1.NowRequest{}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Msg.T, 1e-12)
}
