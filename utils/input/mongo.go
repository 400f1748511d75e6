package input

import (
	"context"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/highway-planner/entity/track"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// waypointDoc MongoDB中的航点文档
type waypointDoc struct {
	X  float64 `bson:"x"`
	Y  float64 `bson:"y"`
	S  float64 `bson:"s"`
	DX float64 `bson:"dx"`
	DY float64 `bson:"dy"`
}

func (d waypointDoc) waypoint() track.Waypoint {
	return track.Waypoint{X: d.X, Y: d.Y, S: d.S, DX: d.DX, DY: d.DY}
}

func downloadWaypoints(ctx context.Context, coll *mongo.Collection) ([]track.Waypoint, error) {
	opts := options.Find().SetSort(bson.D{{Key: "s", Value: 1}})
	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []waypointDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return lo.Map(docs, func(d waypointDoc, _ int) track.Waypoint {
		return d.waypoint()
	}), nil
}
