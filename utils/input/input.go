package input

import (
	"context"
	"fmt"
	"time"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/tsinghua-fib-lab/highway-planner/entity/track"
	"github.com/tsinghua-fib-lab/highway-planner/utils/config"
	"go.mongodb.org/mongo-driver/mongo"
)

// 从MongoDB下载航点的超时时间
const downloadTimeout = 30 * time.Second

// Input 输入数据
// 功能：存储规划器所需的参考线
type Input struct {
	Track *track.Track
}

// Init 加载输入数据
// 功能：根据配置加载参考线，失败时直接panic（拒绝启动）
// 参数：c-输入配置，maxS-环线总长
// 返回：加载完成的输入数据指针
// 算法说明：
// 1. 指定了文件则从文件加载
// 2. 否则连接MongoDB并下载航点集合
// 3. 校验航点并构建参考线
func Init(c config.Input, maxS float64) *Input {
	var waypoints []track.Waypoint
	var err error
	if c.Map.File != "" {
		log.Infof("start loading waypoints from %s", c.Map.File)
		waypoints, err = ReadFile(c.Map.File)
		if err != nil {
			log.Panicf("failed to load waypoints from file: %v", err)
		}
	} else {
		client := mongoutil.NewClient(c.URI)
		defer client.Disconnect(context.Background())
		log.Infof("start fetching from %s.%s", c.Map.DB, c.Map.Col)
		ctx, cancel := context.WithTimeout(context.Background(), downloadTimeout)
		defer cancel()
		waypoints, err = Download(ctx, client, c.Map)
		if err != nil {
			log.Panicf("failed to download waypoints: %v", err)
		}
		log.Infof("finish fetching from %s.%s", c.Map.DB, c.Map.Col)
	}
	t, err := track.New(waypoints, maxS)
	if err != nil {
		log.Panicf("bad track: %v", err)
	}
	log.Infof("track: %v", t)
	return &Input{Track: t}
}

// Download 从MongoDB下载航点
// 功能：读取集合中全部航点文档，按s升序排列
func Download(ctx context.Context, client *mongo.Client, path config.InputPath) ([]track.Waypoint, error) {
	coll := client.Database(path.GetDb()).Collection(path.GetColl())
	waypoints, err := downloadWaypoints(ctx, coll)
	if err != nil {
		return nil, fmt.Errorf("input: %s.%s: %w", path.DB, path.Col, err)
	}
	if len(waypoints) == 0 {
		return nil, fmt.Errorf("input: %s.%s: %w", path.DB, path.Col, ErrEmpty)
	}
	return waypoints, nil
}
