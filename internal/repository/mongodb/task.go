package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/repository"
)

type taskDocument struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Status      string     `bson:"status"`
	Priority    string     `bson:"priority"`
	DueDate     *time.Time `bson:"due_date,omitempty"`
	CreatedBy   string     `bson:"created_by"`
	AssigneeID  *string    `bson:"assignee_id,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func (d taskDocument) model() (models.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("mongo: task has broken id %q: %w", d.ID, err)
	}
	createdBy, err := uuid.Parse(d.CreatedBy)
	if err != nil {
		return models.Task{}, fmt.Errorf("mongo: task %s has broken creator: %w", d.ID, err)
	}

	t := models.Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Status:      models.TaskStatus(d.Status),
		Priority:    models.TaskPriority(d.Priority),
		DueDate:     d.DueDate,
		CreatedBy:   createdBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.AssigneeID != nil {
		assignee, err := uuid.Parse(*d.AssigneeID)
		if err != nil {
			return models.Task{}, fmt.Errorf("mongo: task %s has broken assignee: %w", d.ID, err)
		}
		t.AssigneeID = &assignee
	}
	return t, nil
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func millis(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}

type TaskRepo struct {
	Coll *mongo.Collection
}

func (r *TaskRepo) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if t.Status == "" {
		t.Status = models.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = models.TaskPriorityMedium
	}

	ts := now()
	doc := taskDocument{
		ID:          uuid.NewString(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     millis(t.DueDate),
		CreatedBy:   t.CreatedBy.String(),
		AssigneeID:  optionalID(t.AssigneeID),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	if _, err := r.Coll.InsertOne(ctx, doc); err != nil {
		return models.Task{}, fmt.Errorf("mongo error: %w", err)
	}
	return doc.model()
}

func (r *TaskRepo) GetTask(ctx context.Context, id uuid.UUID) (models.Task, error) {
	var doc taskDocument
	err := r.Coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc)

	switch {
	case err == nil:
		return doc.model()
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Task{}, apperrors.ErrTaskNotFound
	default:
		return models.Task{}, fmt.Errorf("mongo error: %w", err)
	}
}

func (r *TaskRepo) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	set := bson.D{
		{Key: "title", Value: t.Title},
		{Key: "description", Value: t.Description},
		{Key: "status", Value: string(t.Status)},
		{Key: "priority", Value: string(t.Priority)},
		{Key: "updated_at", Value: now()},
	}
	unset := bson.D{}

	if t.DueDate != nil {
		set = append(set, bson.E{Key: "due_date", Value: millis(t.DueDate)})
	} else {
		unset = append(unset, bson.E{Key: "due_date", Value: ""})
	}
	if t.AssigneeID != nil {
		set = append(set, bson.E{Key: "assignee_id", Value: t.AssigneeID.String()})
	} else {
		unset = append(unset, bson.E{Key: "assignee_id", Value: ""})
	}

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}

	var doc taskDocument
	err := r.Coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: t.ID.String()}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)

	switch {
	case err == nil:
		return doc.model()
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Task{}, apperrors.ErrTaskNotFound
	default:
		return models.Task{}, fmt.Errorf("mongo error: %w", err)
	}
}

func (r *TaskRepo) DeleteTask(ctx context.Context, id uuid.UUID) error {
	res, err := r.Coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepo) ListTasks(ctx context.Context, opts repository.ListTasksOpts) ([]models.Task, error) {
	filter := bson.D{}
	if opts.VisibleTo != nil {
		id := opts.VisibleTo.String()
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_by", Value: id}},
			bson.D{{Key: "assignee_id", Value: id}},
		}})
	}
	if opts.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: string(opts.Status)})
	}
	if opts.Priority != "" {
		filter = append(filter, bson.E{Key: "priority", Value: string(opts.Priority)})
	}
	if opts.AssigneeID != nil {
		filter = append(filter, bson.E{Key: "assignee_id", Value: opts.AssigneeID.String()})
	}

	cursor, err := r.Coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}

	tasks := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		t, err := d.model()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
