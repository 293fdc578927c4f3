package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDocument) model() (models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("mongo: user has broken id %q: %w", d.ID, err)
	}

	return models.User{
		ID:             id,
		Name:           d.Name,
		Email:          d.Email,
		HashedPassword: d.PasswordHash,
		Role:           models.Role(d.Role),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

type UserRepo struct {
	Coll *mongo.Collection
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	ts := now()
	doc := userDocument{
		ID:           uuid.NewString(),
		Name:         u.Name,
		Email:        normalizeEmail(u.Email),
		PasswordHash: u.HashedPassword,
		Role:         string(u.Role),
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	_, err := r.Coll.InsertOne(ctx, doc)
	switch {
	case err == nil:
		return doc.model()
	case mongo.IsDuplicateKeyError(err):
		return models.User{}, apperrors.ErrDuplicateEmail
	default:
		return models.User{}, fmt.Errorf("mongo error: %w", err)
	}
}

func (r *UserRepo) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: u.Name},
		{Key: "email", Value: normalizeEmail(u.Email)},
		{Key: "password_hash", Value: u.HashedPassword},
		{Key: "role", Value: string(u.Role)},
		{Key: "updated_at", Value: now()},
	}}}

	var doc userDocument
	err := r.Coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: u.ID.String()}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)

	switch {
	case err == nil:
		return doc.model()
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.User{}, apperrors.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.User{}, apperrors.ErrDuplicateEmail
	default:
		return models.User{}, fmt.Errorf("mongo error: %w", err)
	}
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: normalizeEmail(email)}})
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.Coll.CountDocuments(ctx,
		bson.D{{Key: "email", Value: normalizeEmail(email)}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("mongo error: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := r.Coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.model()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.D) (models.User, error) {
	var doc userDocument
	err := r.Coll.FindOne(ctx, filter).Decode(&doc)

	switch {
	case err == nil:
		return doc.model()
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.User{}, apperrors.ErrUserNotFound
	default:
		return models.User{}, fmt.Errorf("mongo error: %w", err)
	}
}
