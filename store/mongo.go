package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/spektr-org/fieldreport/engine"
)

// ============================================================================
// MONGO SOURCE — engine.Source over an events collection
// ============================================================================
// Documents are stored pre-joined (campaign, place, users, results, ...), so
// one find reads everything the resolver needs. The company and the
// event:start_date window are pushed into the query; every other predicate
// runs in the engine.
// ============================================================================

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 2 * time.Second
)

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo connection uri is empty")
	}
	opts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(30 * time.Second)

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pctx, cancelPing := context.WithTimeout(ctx, pingTimeout)
	defer cancelPing()
	if err := client.Ping(pctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// MongoSource reads events from a MongoDB collection.
type MongoSource struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewMongoSource creates a source over coll.
func NewMongoSource(coll *mongo.Collection, log *zap.Logger) *MongoSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &MongoSource{coll: coll, log: log}
}

// Events implements engine.Source.
func (m *MongoSource) Events(ctx context.Context, q engine.Query) (engine.EventView, error) {
	filter := BuildFilter(q)
	cur, err := m.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer cur.Close(ctx)

	var events []engine.Event
	skipped := 0
	for cur.Next(ctx) {
		var e engine.Event
		if err := cur.Decode(&e); err != nil {
			m.log.Warn("decode event failed", zap.Error(err))
			skipped++
			continue
		}
		normalizeAnswers(&e)
		events = append(events, e)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	m.log.Debug("events loaded",
		zap.String("collection", m.coll.Name()),
		zap.Int("events", len(events)),
		zap.Int("skipped", skipped))
	return q.Filters.Apply(engine.NewSliceView(events)), nil
}

// BuildFilter translates the pushable part of a query into a find filter.
func BuildFilter(q engine.Query) bson.D {
	filter := bson.D{}
	if q.CompanyID != "" {
		filter = append(filter, bson.E{Key: "company_id", Value: q.CompanyID})
	}
	if window, ok := q.Filters.StartWindow(); ok {
		from, to := window.Bounds(q.Scope.Location)
		rng := bson.D{}
		if !from.IsZero() {
			rng = append(rng, bson.E{Key: "$gte", Value: from})
		}
		if !to.IsZero() {
			rng = append(rng, bson.E{Key: "$lt", Value: to})
		}
		if len(rng) > 0 {
			filter = append(filter, bson.E{Key: "start_at", Value: rng})
		}
	}
	return filter
}

// normalizeAnswers turns BSON arrays in form answers into plain slices, the
// shape the resolver reads multi-choice answers in.
func normalizeAnswers(e *engine.Event) {
	for i := range e.Activities {
		for j := range e.Activities[i].Results {
			r := &e.Activities[i].Results[j]
			if a, ok := r.Value.(primitive.A); ok {
				r.Value = []interface{}(a)
			}
		}
	}
}
