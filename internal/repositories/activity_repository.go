package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository defines the interface for the activity log
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
	FindActivity(ctx context.Context, filter models.ActivityFilter) (*models.Activity, error)
	UpdateActivity(ctx context.Context, activity *models.Activity) error
	DeleteActivity(ctx context.Context, id primitive.ObjectID) error
	DeleteActivitiesByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	// ListActivities returns the owner's active entries created in [from, to], newest first.
	ListActivities(ctx context.Context, owner primitive.ObjectID, from, to time.Time) ([]models.Activity, error)
}

// MongoActivityRepository implements ActivityRepository for MongoDB
type MongoActivityRepository struct {
	collection *mongo.Collection
}

func NewMongoActivityRepository(db *mongo.Database) *MongoActivityRepository {
	return &MongoActivityRepository{collection: db.Collection("activities")}
}

func (r *MongoActivityRepository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID.IsZero() {
		activity.ID = primitive.NewObjectID()
	}
	activity.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, activity)
	return err
}

func activityFilter(f models.ActivityFilter) bson.M {
	filter := bson.M{}
	if f.Type != "" {
		filter["activity_type"] = f.Type
	}
	if !f.Owner.IsZero() {
		filter["owner"] = f.Owner
	}
	if f.Post != nil {
		filter["post"] = *f.Post
	}
	if f.Comment != nil {
		filter["comment"] = *f.Comment
	}
	if f.Active {
		filter["state"] = models.LifecycleActive
	}
	return filter
}

func (r *MongoActivityRepository) FindActivity(ctx context.Context, f models.ActivityFilter) (*models.Activity, error) {
	var activity models.Activity
	if err := findOne(ctx, r.collection, activityFilter(f), &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *MongoActivityRepository) UpdateActivity(ctx context.Context, activity *models.Activity) error {
	return replaceByID(ctx, r.collection, activity.ID, activity)
}

func (r *MongoActivityRepository) DeleteActivity(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func (r *MongoActivityRepository) DeleteActivitiesByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"owner": owner})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoActivityRepository) ListActivities(ctx context.Context, owner primitive.ObjectID, from, to time.Time) ([]models.Activity, error) {
	var activities []models.Activity
	filter := bson.M{
		"owner":      owner,
		"state":      models.LifecycleActive,
		"created_at": bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := findAll(ctx, r.collection, filter, &activities, opts); err != nil {
		return nil, err
	}
	return activities, nil
}
