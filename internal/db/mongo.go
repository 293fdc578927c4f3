package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"
)

const defaultMongoDatabase = "taskmanager"

// ConnectMongo connects to the server and returns the database named in the uri path
// (or "taskmanager" when the path is empty).
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, *mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid mongo uri. Err: %w", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("cant initialize mongo client. Err: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo is not reachable. Err: %w", err)
	}

	name := cs.Database
	if name == "" {
		name = defaultMongoDatabase
	}

	return client, client.Database(name), nil
}
