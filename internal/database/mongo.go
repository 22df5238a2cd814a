package database

import (
	"context"
	"fmt"

	"github.com/vedran77/glamplanner/internal/config"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("unable to ping mongo: %w", err)
	}

	return client, client.Database(cfg.MongoDBName), nil
}

// EnsureIndexes creates the lookup and ordering indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	keys := func(fields ...string) bson.D {
		d := bson.D{}
		for _, k := range fields {
			dir := 1
			if k == "created_at" {
				dir = -1
			}
			d = append(d, bson.E{Key: k, Value: dir})
		}
		return d
	}

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: keys("username"), Options: options.Index().SetUnique(true)},
			{Keys: keys("email"), Options: options.Index().SetUnique(true)},
		},
		"plans": {
			{Keys: keys("responder_id", "created_at")},
			{Keys: keys("requester_id", "created_at")},
		},
		"events":  {{Keys: keys("created_at")}},
		"gallery": {{Keys: keys("created_at")}},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}
