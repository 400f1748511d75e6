// 离线闭环仿真：用合成交通驱动规划器，输出统计与本车轨迹图
package main

import (
	"flag"
	"os"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/highway-planner/sim"
	"github.com/tsinghua-fib-lab/highway-planner/utils/config"
	"github.com/tsinghua-fib-lab/highway-planner/utils/input"
)

var (
	configPath = flag.String("config", "", "config file path")
	cycles     = flag.Int("cycles", 0, "number of planning cycles (0 means control.step.total)")
	logLevel   = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error）")

	log = logrus.WithField("module", "sim")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Panicf("bad log.level: %v", err)
	}
	logrus.SetLevel(level)

	file, err := os.ReadFile(*configPath)
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	c, err := config.Parse(file)
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		log.Panicf("invalid config: %v", err)
	}
	if c.Sim == nil {
		log.Panic("config has no sim section")
	}
	if *cycles > 0 {
		rc.C.Step.Total = int32(*cycles)
	}

	tr := input.Init(c.Input, rc.MaxS).Track
	s := sim.New(tr, sim.Options{
		Seed:      c.Sim.Seed,
		Vehicles:  c.Sim.Vehicles,
		Consume:   c.Sim.Consume,
		MinSpeed:  c.Sim.MinSpeed,
		MaxSpeed:  c.Sim.MaxSpeed,
		StartLane: rc.StartLane,
		Cycles:    rc.C.Step.Total,
	})
	if _, err := s.Run(); err != nil {
		log.Errorf("simulation stopped at %v: %v", s.Clock(), err)
	}
	m := s.Metrics()
	log.Infof("result: %v", m)
	if c.Sim.Plot != "" {
		if err := sim.SavePlot(c.Sim.Plot, tr, s.History()); err != nil {
			log.Panicf("%v", err)
		}
		log.Infof("plot saved to %s", c.Sim.Plot)
	}
	if !s.Clock().Done() || m.Collisions > 0 {
		os.Exit(1)
	}
}
