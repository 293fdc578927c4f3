// Package mongodb stores users and tasks as documents.
// Ids are kept as uuid strings so both backends expose the same models.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/nkiryanov/taskmanager/internal/repository"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

type Storage struct {
	db *mongo.Database
}

func NewStorage(db *mongo.Database) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{Coll: s.db.Collection(usersCollection)}
}

func (s *Storage) Task() repository.TaskRepo {
	return &TaskRepo{Coll: s.db.Collection(tasksCollection)}
}

// EnsureIndexes creates the unique email index and task lookup indexes.
// Safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("mongo: create users index: %w", err)
	}

	_, err = db.Collection(tasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_by", Value: 1}}, Options: options.Index().SetName("tasks_created_by_idx")},
		{Keys: bson.D{{Key: "assignee_id", Value: 1}}, Options: options.Index().SetName("tasks_assignee_id_idx")},
	})
	if err != nil {
		return fmt.Errorf("mongo: create tasks indexes: %w", err)
	}

	return nil
}

// mongo keeps milliseconds only
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
